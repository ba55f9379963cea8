package browser

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/ports"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

const navigationTimeout = 30000

// Browser is a live playwright browser. A persistent launch has no browser
// object, only its single context.
type Browser struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	persistent playwright.BrowserContext
	mode       string
	logger     *zap.Logger

	mu             sync.Mutex
	persistentUsed bool
}

func (b *Browser) NewContext(_ context.Context, settings entity.BrowserSettings) (ports.ContextHandle, error) {
	const op = "NewContext"
	logger := b.logger.With(zap.String(logg.Operation, op))

	var (
		bc    playwright.BrowserContext
		owned = true
	)

	if b.persistent != nil {
		b.mu.Lock()
		used := b.persistentUsed
		b.persistentUsed = true
		b.mu.Unlock()

		if used {
			return nil, apperr.WrapErrorWithReason(op, apperr.CodeUnavailable, "persistent_context_in_use")
		}

		bc, owned = b.persistent, false
	} else {
		var err error

		bc, err = b.browser.NewContext(ContextOptions(settings))
		if err != nil {
			return nil, wrapBrowser(op, "context_create_failed", err)
		}
	}

	c := &Context{
		id:      uuid.NewString(),
		context: bc,
		owned:   owned,
		logger:  logger,
		release: b.releasePersistent,
	}

	if settings.SaveTracePath != "" {
		err := bc.Tracing().Start(playwright.TracingStartOptions{
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
		})
		if err != nil {
			logger.Warn("Failed to start tracing", zap.Error(err))
		} else {
			c.traceDir = settings.SaveTracePath
		}
	}

	return c, nil
}

func (b *Browser) releasePersistent() {
	b.mu.Lock()
	b.persistentUsed = false
	b.mu.Unlock()
}

// Close closes the browser and stops the playwright driver.
func (b *Browser) Close(context.Context) error {
	var errs []error

	if b.persistent != nil {
		if err := b.persistent.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close persistent context: %w", err))
		}
	}

	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}

	if err := b.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}

	b.logger.Info("Browser closed", zap.String("mode", b.mode))

	return errors.Join(errs...)
}

// Context is a browsing context of a Browser.
type Context struct {
	id       string
	context  playwright.BrowserContext
	owned    bool
	traceDir string
	logger   *zap.Logger
	release  func()
}

// Visit opens url in a new page and reports where it landed.
func (c *Context) Visit(ctx context.Context, url string) (*entity.PageInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := c.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}

	_, err = page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(navigationTimeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, fmt.Errorf("goto: %w", err)
	}

	title, err := page.Title()
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}

	c.logger.Info("Page visited", zap.String(logg.URL, page.URL()))

	return &entity.PageInfo{URL: page.URL(), Title: title}, nil
}

// TracePath is where Close writes the trace archive, or "" when tracing is off.
func (c *Context) TracePath() string {
	if c.traceDir == "" {
		return ""
	}

	return filepath.Join(c.traceDir, c.id+".zip")
}

// Close stops tracing and closes the context. The persistent context is
// left to its browser.
func (c *Context) Close(context.Context) error {
	var errs []error

	if path := c.TracePath(); path != "" {
		if err := c.context.Tracing().Stop(path); err != nil {
			errs = append(errs, fmt.Errorf("stop tracing: %w", err))
		}
	}

	if c.owned {
		if err := c.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	} else if c.release != nil {
		c.release()
	}

	return errors.Join(errs...)
}
