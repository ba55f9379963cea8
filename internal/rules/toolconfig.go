package rules

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"browser-use-webui/pkg/tracing"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	toolConfigRuleName   = "ToolConfigRule"
	toolConfigRuleTracer = "rules.toolconfig"

	ToolConfigExtension = ".json"
	displayIndent       = "  "
)

// ToolClientCloser releases the tool client opened from a previous file.
type ToolClientCloser interface {
	CloseToolClient(ctx context.Context) bool
}

// ToolConfig turns a tool-configuration file path into the display state of
// the parsed config.
type ToolConfig struct {
	logger *zap.Logger
	tracer trace.Tracer
	closer ToolClientCloser
}

func NewToolConfig(logger *zap.Logger, closer ToolClientCloser) *ToolConfig {
	return &ToolConfig{
		logger: logger.With(zap.String(logg.Layer, toolConfigRuleName)),
		tracer: otel.Tracer(toolConfigRuleTracer),
		closer: closer,
	}
}

// Apply closes any open tool client first. A rejected path (empty, missing,
// wrong extension) hides the display without an error; malformed content is a
// parse_failed error.
func (r *ToolConfig) Apply(ctx context.Context, path string) (display entity.ToolConfigDisplay, err error) {
	const op = "Apply"
	logger := r.logger.With(zap.String(logg.Operation, op), zap.String(logg.Path, path))

	ctx, step := tracing.StartSpan(ctx, r.tracer, logger, op, attribute.String("path", path))
	defer func() {
		step.End(err)
	}()

	if r.closer.CloseToolClient(ctx) {
		step.AddEvent("previous tool client closed")
	}

	if reason := rejectPath(path); reason != "" {
		logger.Warn("Not a valid tool config file", zap.String(apperr.MetaReason, reason))

		return entity.ToolConfigDisplay{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return entity.ToolConfigDisplay{}, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "read_failed",
			apperr.MetaStage:  apperr.StageRule,
			apperr.MetaPath:   path,
		})
	}

	text, err := FormatToolConfig(raw)
	if err != nil {
		return entity.ToolConfigDisplay{}, apperr.Wrap(op, apperr.CodeParseFailed, err, map[string]any{
			apperr.MetaReason: "tool_config_malformed",
			apperr.MetaStage:  apperr.StageRule,
			apperr.MetaPath:   path,
		})
	}

	return entity.ToolConfigDisplay{Text: text, Visible: true}, nil
}

// FormatToolConfig checks that raw is a JSON object and re-indents it with two
// spaces, keeping key order.
func FormatToolConfig(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("decode tool config: %w", err)
	}

	if obj == nil {
		return "", errors.New("tool config must be a JSON object")
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", displayIndent); err != nil {
		return "", fmt.Errorf("indent tool config: %w", err)
	}

	return buf.String(), nil
}

func rejectPath(path string) string {
	if path == "" {
		return "empty_path"
	}

	info, err := os.Stat(path)
	if err != nil {
		return "not_found"
	}

	if info.IsDir() {
		return "is_directory"
	}

	if !strings.HasSuffix(path, ToolConfigExtension) {
		return "wrong_extension"
	}

	return ""
}
