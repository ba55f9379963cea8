package browser

import (
	"browser-use-webui/internal/config"
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/ports"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"browser-use-webui/pkg/tracing"
	"context"
	"fmt"
	"os"

	"github.com/playwright-community/playwright-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	launcherName  = "BrowserLauncher"
	browserTracer = "browser.launcher"
)

var (
	baseArgs = []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
	}
	disableSecurityArgs = []string{
		"--disable-web-security",
		"--disable-site-isolation-trials",
		"--disable-features=IsolateOrigins,site-per-process",
	}
)

// Launcher opens playwright-driven chromium browsers.
type Launcher struct {
	config *config.Config
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

func NewLauncher(params Params) *Launcher {
	return &Launcher{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, launcherName)),
		tracer: otel.Tracer(browserTracer),
	}
}

// Open starts playwright and obtains a browser: over CDP or WSS when an
// endpoint is set, as a persistent context when the user's own browser
// profile is requested, and as a fresh launch otherwise.
func (l *Launcher) Open(ctx context.Context, settings entity.BrowserSettings) (_ ports.BrowserHandle, err error) {
	const op = "Open"
	logger := l.logger.With(zap.String(logg.Operation, op))

	ctx, step := tracing.StartSpan(ctx, l.tracer, logger, op,
		attribute.Bool("headless", settings.Headless),
		attribute.Bool("own_browser", settings.UseOwnBrowser),
	)
	defer func() {
		step.End(err)
	}()

	if l.config.BrowserConfig.InstallDriver {
		step.AddEvent("installing playwright")

		if err = playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, wrapBrowser(op, "playwright_install_failed", err)
		}
	}

	step.AddEvent("starting playwright")

	pw, err := playwright.Run()
	if err != nil {
		return nil, wrapBrowser(op, "playwright_start_failed", err)
	}

	b, err := l.open(pw, settings)
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			logger.Warn("Failed to stop playwright", zap.Error(stopErr))
		}

		return nil, err
	}

	logger.Info("Browser opened", zap.String("mode", b.mode))

	return b, nil
}

func (l *Launcher) open(pw *playwright.Playwright, settings entity.BrowserSettings) (*Browser, error) {
	const op = "Open"

	b := &Browser{
		pw:     pw,
		logger: l.logger,
	}

	switch {
	case settings.CDPURL != "":
		browser, err := pw.Chromium.ConnectOverCDP(settings.CDPURL)
		if err != nil {
			return nil, apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
				apperr.MetaReason: "cdp_connect_failed",
				apperr.MetaStage:  apperr.StageBrowser,
				apperr.MetaURL:    settings.CDPURL,
			})
		}
		b.browser, b.mode = browser, "cdp"

	case settings.WSSURL != "":
		browser, err := pw.Chromium.Connect(settings.WSSURL)
		if err != nil {
			return nil, apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
				apperr.MetaReason: "wss_connect_failed",
				apperr.MetaStage:  apperr.StageBrowser,
				apperr.MetaURL:    settings.WSSURL,
			})
		}
		b.browser, b.mode = browser, "wss"

	case settings.UseOwnBrowser && settings.UserDataDir != "":
		if err := os.MkdirAll(settings.UserDataDir, 0o755); err != nil {
			return nil, wrapBrowser(op, "mkdir_failed", err)
		}

		persistent, err := pw.Chromium.LaunchPersistentContext(settings.UserDataDir, PersistentOptions(settings))
		if err != nil {
			return nil, wrapBrowser(op, "launch_persistent_failed", err)
		}
		b.persistent, b.mode = persistent, "persistent"

	default:
		browser, err := pw.Chromium.Launch(LaunchOptions(settings))
		if err != nil {
			return nil, wrapBrowser(op, "browser_launch_failed", err)
		}
		b.browser, b.mode = browser, "launch"
	}

	return b, nil
}

// LaunchArgs returns the chromium command line for settings.
func LaunchArgs(settings entity.BrowserSettings) []string {
	args := append([]string{}, baseArgs...)
	if settings.DisableSecurity {
		args = append(args, disableSecurityArgs...)
	}

	return append(args, fmt.Sprintf("--window-size=%d,%d", settings.WindowWidth, settings.WindowHeight))
}

func LaunchOptions(settings entity.BrowserSettings) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(settings.Headless),
		Args:     LaunchArgs(settings),
	}
	if settings.UseOwnBrowser && settings.BinaryPath != "" {
		opts.ExecutablePath = playwright.String(settings.BinaryPath)
	}
	if settings.SaveDownloadPath != "" {
		opts.DownloadsPath = playwright.String(settings.SaveDownloadPath)
	}

	return opts
}

func PersistentOptions(settings entity.BrowserSettings) playwright.BrowserTypeLaunchPersistentContextOptions {
	ctxOpts := ContextOptions(settings)

	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:          playwright.Bool(settings.Headless),
		Args:              LaunchArgs(settings),
		Viewport:          ctxOpts.Viewport,
		IgnoreHttpsErrors: ctxOpts.IgnoreHttpsErrors,
		BypassCSP:         ctxOpts.BypassCSP,
		RecordVideo:       ctxOpts.RecordVideo,
		AcceptDownloads:   ctxOpts.AcceptDownloads,
	}
	if settings.BinaryPath != "" {
		opts.ExecutablePath = playwright.String(settings.BinaryPath)
	}
	if settings.SaveDownloadPath != "" {
		opts.DownloadsPath = playwright.String(settings.SaveDownloadPath)
	}

	return opts
}

// ContextOptions maps settings onto a new browsing context.
func ContextOptions(settings entity.BrowserSettings) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  settings.WindowWidth,
			Height: settings.WindowHeight,
		},
		AcceptDownloads: playwright.Bool(true),
	}
	if settings.DisableSecurity {
		opts.IgnoreHttpsErrors = playwright.Bool(true)
		opts.BypassCSP = playwright.Bool(true)
	}
	if settings.SaveRecordingPath != "" {
		opts.RecordVideo = &playwright.RecordVideo{Dir: settings.SaveRecordingPath}
	}

	return opts
}

func wrapBrowser(op, reason string, err error) error {
	return apperr.Wrap(op, apperr.CodeUnavailable, err, map[string]any{
		apperr.MetaReason: reason,
		apperr.MetaStage:  apperr.StageBrowser,
	})
}
