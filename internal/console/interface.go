package console

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/pkg/logg"
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const consoleName = "Console"

var errExit = errors.New("exit")

// Backend is the settings manager as seen by the console.
type Backend interface {
	Component(key string) (entity.Component, error)
	Change(ctx context.Context, key string, value any) (map[string]entity.Component, error)
	LaunchSession(ctx context.Context) (entity.SessionStatus, error)
	RunTask(ctx context.Context, description, startURL string) (entity.SessionStatus, error)
	StopSession(ctx context.Context) entity.SessionStatus
	SessionStatus() entity.SessionStatus
	SaveConfig(ctx context.Context, dir string) (string, error)
	LoadConfig(ctx context.Context, path string) (map[string]entity.Component, error)
}

// Dispatcher runs fn on the UI event loop.
type Dispatcher interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Interface is a line-oriented terminal front end over the same backend as
// the HTTP UI.
type Interface struct {
	logger      *zap.Logger
	backend     Backend
	dispatcher  Dispatcher
	settingsDir string
	in          io.Reader
	out         io.Writer
}

func NewInterface(logger *zap.Logger, backend Backend, dispatcher Dispatcher, settingsDir string, in io.Reader, out io.Writer) *Interface {
	return &Interface{
		logger:      logger.With(zap.String(logg.Layer, consoleName)),
		backend:     backend,
		dispatcher:  dispatcher,
		settingsDir: settingsDir,
		in:          in,
		out:         out,
	}
}

// Start reads commands until EOF, "exit" or ctx is done.
func (i *Interface) Start(ctx context.Context) error {
	i.printHelp()

	scanner := bufio.NewScanner(i.in)

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(i.out, "\n> ")

		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		err := i.dispatcher.Do(ctx, func(ctx context.Context) error {
			return i.handleCommand(ctx, input)
		})
		if errors.Is(err, errExit) {
			return nil
		}

		if err != nil {
			i.logger.Error("Command error", zap.Error(err))
			fmt.Fprintf(i.out, "Error: %v\n", err)
		}
	}
}

func (i *Interface) handleCommand(ctx context.Context, input string) error {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help", "h":
		i.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintln(i.out, "Shutting down...")

		return errExit
	case "status":
		i.printStatus(i.backend.SessionStatus())
	case "get":
		c, err := i.backend.Component(rest)
		if err != nil {
			return err
		}
		i.printJSON(c)
	case "set":
		key, value, ok := strings.Cut(rest, " ")
		if !ok {
			return fmt.Errorf("usage: set <key> <value>")
		}

		updates, err := i.backend.Change(ctx, key, strings.TrimSpace(value))
		if err != nil {
			return err
		}
		i.printUpdates(updates)
	case "launch":
		status, err := i.backend.LaunchSession(ctx)
		if err != nil {
			return err
		}
		i.printStatus(status)
	case "run":
		if rest == "" {
			return fmt.Errorf("usage: run <task>")
		}

		status, err := i.backend.RunTask(ctx, rest, "")
		if err != nil {
			return err
		}
		i.printStatus(status)
	case "visit":
		url, task, _ := strings.Cut(rest, " ")
		if url == "" {
			return fmt.Errorf("usage: visit <url> [task]")
		}

		status, err := i.backend.RunTask(ctx, strings.TrimSpace(task), url)
		if err != nil {
			return err
		}
		i.printStatus(status)
	case "stop":
		i.printStatus(i.backend.StopSession(ctx))
	case "save":
		dir := rest
		if dir == "" {
			dir = i.settingsDir
		}

		path, err := i.backend.SaveConfig(ctx, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(i.out, "Saved to %s\n", path)
	case "load":
		if rest == "" {
			return fmt.Errorf("usage: load <path>")
		}

		updates, err := i.backend.LoadConfig(ctx, rest)
		if err != nil {
			return err
		}
		fmt.Fprintf(i.out, "Loaded %d components\n", len(updates))
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}

	return nil
}

func (i *Interface) printStatus(status entity.SessionStatus) {
	fmt.Fprintf(i.out, "session: %s browser=%t context=%t task=%t tools=%t\n",
		status.State, status.BrowserOpen, status.ContextOpen, status.TaskRunning, status.ToolClientOpen)
}

func (i *Interface) printUpdates(updates map[string]entity.Component) {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		c := updates[k]
		fmt.Fprintf(i.out, "%s = %v (visible=%t)\n", k, c.Value, c.Visible)
	}
}

func (i *Interface) printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(i.out, "%v\n", v)

		return
	}

	fmt.Fprintln(i.out, string(data))
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  help, h            - Show this help message
  status             - Show the browser session
  get <key>          - Show a setting, e.g. get browser_settings.headless
  set <key> <value>  - Change a setting and apply its rules
  launch             - Open a browser session with the current settings
  run <task>         - Run a task in the session
  visit <url> [task] - Run a task starting at url
  stop               - Close the session
  save [dir]         - Save settings to a timestamped file
  load <path>        - Load settings from a file
  exit, quit, q      - Exit the application
`
	fmt.Fprintln(i.out, help)
}
