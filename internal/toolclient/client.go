package toolclient

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/ports"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"browser-use-webui/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	connectorName = "ToolConnector"
	toolTracer    = "toolclient.connector"

	clientName    = "browser-use-webui"
	clientVersion = "1.0.0"
)

// TransportFunc builds the transport for one configured server.
type TransportFunc func(name string, server entity.ToolServer) (mcp.Transport, error)

// Connector opens one MCP client session per configured server.
type Connector struct {
	logger    *zap.Logger
	tracer    trace.Tracer
	transport TransportFunc
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewConnector(params Params) *Connector {
	return &Connector{
		logger:    params.Logger.With(zap.String(logg.Layer, connectorName)),
		tracer:    otel.Tracer(toolTracer),
		transport: Transport,
	}
}

// WithTransport returns a copy of c that builds transports with fn.
func (c *Connector) WithTransport(fn TransportFunc) *Connector {
	clone := *c
	clone.transport = fn

	return &clone
}

// Transport picks a streamable HTTP transport for servers with a URL and a
// subprocess transport otherwise.
func Transport(name string, server entity.ToolServer) (mcp.Transport, error) {
	if server.URL != "" {
		return &mcp.StreamableClientTransport{Endpoint: server.URL}, nil
	}

	if server.Command == "" {
		return nil, fmt.Errorf("server %q: no command or url", name)
	}

	cmd := exec.Command(server.Command, server.Args...)
	if len(server.Env) > 0 {
		cmd.Env = os.Environ()
		keys := make([]string, 0, len(server.Env))
		for k := range server.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			cmd.Env = append(cmd.Env, k+"="+server.Env[k])
		}
	}

	return &mcp.CommandTransport{Command: cmd}, nil
}

func (c *Connector) Connect(ctx context.Context, cfg entity.ToolConfig) (_ ports.ToolClient, err error) {
	const op = "Connect"
	logger := c.logger.With(zap.String(logg.Operation, op))

	names := cfg.ServerNames()

	ctx, step := tracing.StartSpan(ctx, c.tracer, logger, op, attribute.Int("servers", len(names)))
	defer func() {
		step.End(err)
	}()

	if len(names) == 0 {
		return nil, apperr.WrapErrorWithReason(op, apperr.CodeInvalidArgument, "no_servers")
	}

	client := &Client{
		logger:   logger,
		sessions: make(map[string]*mcp.ClientSession, len(names)),
		order:    make([]string, 0, len(names)),
	}
	mc := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: clientVersion}, nil)

	for _, name := range names {
		transport, terr := c.transport(name, cfg.Servers[name])
		if terr != nil {
			_ = client.Close(ctx)

			return nil, apperr.Wrap(op, apperr.CodeInvalidArgument, terr, map[string]any{
				apperr.MetaReason: "bad_server",
				apperr.MetaStage:  apperr.StageToolClient,
				apperr.MetaServer: name,
			})
		}

		session, cerr := mc.Connect(ctx, transport, nil)
		if cerr != nil {
			_ = client.Close(ctx)

			return nil, apperr.Wrap(op, apperr.CodeUnavailable, cerr, map[string]any{
				apperr.MetaReason: "connect_failed",
				apperr.MetaStage:  apperr.StageToolClient,
				apperr.MetaServer: name,
			})
		}

		client.sessions[name] = session
		client.order = append(client.order, name)
		step.AddEvent("server connected", attribute.String("server", name))
	}

	logger.Info("Tool client connected", zap.Strings(logg.Server, client.order))

	return client, nil
}

// Client is a set of MCP sessions keyed by server name.
type Client struct {
	logger   *zap.Logger
	sessions map[string]*mcp.ClientSession
	order    []string
}

// Tools lists tool names as "<server>.<tool>", servers in name order.
func (c *Client) Tools(ctx context.Context) ([]string, error) {
	var tools []string

	for _, name := range c.order {
		res, err := c.sessions[name].ListTools(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("list tools of %s: %w", name, err)
		}

		for _, tool := range res.Tools {
			tools = append(tools, name+"."+tool.Name)
		}
	}

	return tools, nil
}

// Close closes every session and joins their errors.
func (c *Client) Close(context.Context) error {
	var errs []error

	for i := len(c.order) - 1; i >= 0; i-- {
		name := c.order[i]
		if err := c.sessions[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}

		delete(c.sessions, name)
	}

	c.order = c.order[:0]

	return errors.Join(errs...)
}
