package webui

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/registry"
	"browser-use-webui/internal/rules"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"browser-use-webui/pkg/tracing"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const settingsFileLayout = "20060102-150405"

// SaveConfig writes the value of every non-file component to a new JSON file
// in dir and returns its path.
func (m *Manager) SaveConfig(ctx context.Context, dir string) (path string, err error) {
	const op = "SaveConfig"
	logger := m.logger.With(zap.String(logg.Operation, op))

	_, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("dir", dir))
	defer func() {
		step.End(err)
	}()

	values := make(map[string]any)

	for _, key := range m.registry.SortedKeys() {
		comp, _ := m.registry.Lookup(key)
		if comp.Kind == entity.KindFile {
			continue
		}

		values[key] = comp.Value
	}

	data, err := json.MarshalIndent(values, "", "    ")
	if err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "marshal_failed",
			apperr.MetaStage:  apperr.StageConfig,
		})
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "mkdir_failed",
			apperr.MetaStage:  apperr.StageConfig,
			apperr.MetaPath:   dir,
		})
	}

	path = filepath.Join(dir, time.Now().Format(settingsFileLayout)+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "write_failed",
			apperr.MetaStage:  apperr.StageConfig,
			apperr.MetaPath:   path,
		})
	}

	logger.Info("Settings saved", zap.String(logg.Path, path))

	return path, nil
}

// LoadConfig restores values written by SaveConfig. Unknown keys and values a
// component rejects are skipped with a warning. Provider-derived state is
// recomputed without overwriting the saved model names, and the session is
// torn down since the browser settings may have changed.
func (m *Manager) LoadConfig(ctx context.Context, path string) (updates map[string]entity.Component, err error) {
	const op = "LoadConfig"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Path, path))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("path", path))
	defer func() {
		step.End(err)
	}()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFoundError(op, err)
		}

		return nil, apperr.Wrap(op, apperr.CodeInternal, err, map[string]any{
			apperr.MetaReason: "read_failed",
			apperr.MetaStage:  apperr.StageConfig,
			apperr.MetaPath:   path,
		})
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, apperr.Wrap(op, apperr.CodeParseFailed, err, map[string]any{
			apperr.MetaReason: "settings_malformed",
			apperr.MetaStage:  apperr.StageConfig,
			apperr.MetaPath:   path,
		})
	}

	modelKeys := map[string]llmFields{
		registry.Key(AgentTab, mainLLM.Model):    mainLLM,
		registry.Key(AgentTab, plannerLLM.Model): plannerLLM,
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		if _, isModel := modelKeys[key]; isModel {
			continue
		}

		comp, err := m.registry.Lookup(key)
		if err != nil {
			logger.Warn("Skipping unknown setting", zap.String(logg.Key, key))

			continue
		}

		if comp.Kind == entity.KindFile {
			continue
		}

		if err := comp.SetValue(values[key]); err != nil {
			logger.Warn("Skipping rejected setting", zap.String(logg.Key, key), zap.Error(err))
		}
	}

	for _, block := range []llmFields{mainLLM, plannerLLM} {
		m.restoreLLMBlock(block, values[registry.Key(AgentTab, block.Model)], logger)
	}

	display, _ := m.registry.Get(AgentTab, FieldToolConfigDisplay)
	display.Visible = display.StringValue() != ""

	m.session.Teardown(ctx, "settings loaded")

	logger.Info("Settings loaded", zap.Int("values", len(values)))

	return m.Components(), nil
}

func (m *Manager) restoreLLMBlock(block llmFields, savedModel any, logger *zap.Logger) {
	providerComp, _ := m.registry.Get(AgentTab, block.Provider)
	modelComp, _ := m.registry.Get(AgentTab, block.Model)
	ctxComp, _ := m.registry.Get(AgentTab, block.ContextLength)

	provider := providerComp.StringValue()
	res := rules.ModelList(m.table, provider)

	modelComp.Apply(rules.ModelListPatch(res))
	ctxComp.Visible = rules.ContextLengthVisible(provider)

	model, ok := savedModel.(string)
	if !ok || model == "" {
		return
	}

	if err := modelComp.SetValue(model); err != nil {
		logger.Warn("Skipping rejected model", zap.String(logg.Key, block.Model), zap.Error(err))
	}
}
