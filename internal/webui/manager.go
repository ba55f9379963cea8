package webui

import (
	"browser-use-webui/internal/config"
	"browser-use-webui/internal/entity"
	"browser-use-webui/internal/registry"
	"browser-use-webui/internal/rules"
	"browser-use-webui/internal/session"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"browser-use-webui/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	managerName   = "WebuiManager"
	managerTracer = "webui.manager"
)

// RuleFunc maps the new value of a source component to patches keyed by
// target component key.
type RuleFunc func(ctx context.Context, value any) (map[string]entity.Patch, error)

// Rule is a named reactive binding from one source component to its targets.
type Rule struct {
	Name    string
	Source  string
	Targets []string
	Apply   RuleFunc
}

type RuleInfo struct {
	Name    string   `json:"name"`
	Source  string   `json:"source"`
	Targets []string `json:"targets"`
}

// Manager assembles the settings tabs over the component registry and runs
// change events through the bound rules. Callers serialize access through a
// Loop.
type Manager struct {
	config   *config.Config
	logger   *zap.Logger
	tracer   trace.Tracer
	registry *registry.Registry
	session  *session.Controller
	table    config.ModelTable
	toolRule *rules.ToolConfig
	rules    []Rule
	bySource map[string][]int
}

type Params struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Registry *registry.Registry
	Session  *session.Controller
	Table    config.ModelTable
}

// NewManager builds every tab. A duplicate component key is a startup error.
func NewManager(params Params) (*Manager, error) {
	m := &Manager{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, managerName)),
		tracer:   otel.Tracer(managerTracer),
		registry: params.Registry,
		session:  params.Session,
		table:    params.Table,
		toolRule: rules.NewToolConfig(params.Logger, params.Session),
		bySource: make(map[string][]int),
	}

	if err := m.buildAgentSettingsTab(); err != nil {
		return nil, fmt.Errorf("build agent settings tab: %w", err)
	}

	if err := m.buildBrowserSettingsTab(); err != nil {
		return nil, fmt.Errorf("build browser settings tab: %w", err)
	}

	m.logger.Info("Web UI assembled",
		zap.Int("components", len(m.registry.Keys())),
		zap.Int("rules", len(m.rules)))

	return m, nil
}

// Bind registers a rule. Source and targets must name registered components.
func (m *Manager) Bind(rule Rule) error {
	const op = "Bind"

	if rule.Name == "" {
		return apperr.InvalidReqError(op, "name", errors.New("rule name is empty"))
	}

	if rule.Apply == nil {
		return apperr.InvalidReqError(op, "apply", fmt.Errorf("rule %q has no apply func", rule.Name))
	}

	for _, existing := range m.rules {
		if existing.Name == rule.Name {
			return apperr.DuplicateKeyError(op, rule.Name, fmt.Errorf("rule %q already bound", rule.Name))
		}
	}

	keys := m.registry.Keys()
	for _, key := range append([]string{rule.Source}, rule.Targets...) {
		if _, ok := keys[key]; !ok {
			return apperr.NotFoundError(op, fmt.Errorf("%w: rule %q references %s", registry.ErrNotFound, rule.Name, key))
		}
	}

	m.bySource[rule.Source] = append(m.bySource[rule.Source], len(m.rules))
	m.rules = append(m.rules, rule)

	return nil
}

func (m *Manager) Rules() []RuleInfo {
	out := make([]RuleInfo, len(m.rules))
	for i, r := range m.rules {
		out[i] = RuleInfo{
			Name:    r.Name,
			Source:  r.Source,
			Targets: append([]string{}, r.Targets...),
		}
	}

	return out
}

// Change stores value on the component and, when the stored value actually
// changed, runs every rule bound to it in binding order. It returns snapshots
// of each component it touched. If a rule fails, the source and every target
// patched so far are restored; side effects of the rules are not undone.
func (m *Manager) Change(ctx context.Context, key string, value any) (updates map[string]entity.Component, err error) {
	const op = "Change"
	logger := m.logger.With(zap.String(logg.Operation, op), zap.String(logg.Key, key))

	ctx, step := tracing.StartSpan(ctx, m.tracer, logger, op, attribute.String("key", key))
	defer func() {
		step.End(err)
	}()

	comp, err := m.registry.Lookup(key)
	if err != nil {
		return nil, err
	}

	previous := map[string]entity.Component{key: comp.Snapshot()}
	defer func() {
		if err != nil {
			m.restore(previous)
		}
	}()

	if err := comp.SetValue(value); err != nil {
		return nil, apperr.InvalidReqError(op, key, err)
	}

	updates = map[string]entity.Component{key: comp.Snapshot()}

	if reflect.DeepEqual(previous[key].Value, comp.Value) {
		step.AddEvent("value unchanged")

		return updates, nil
	}

	for _, idx := range m.bySource[key] {
		rule := m.rules[idx]
		step.AddEvent("rule", attribute.String("rule", rule.Name))

		patches, err := rule.Apply(ctx, comp.Value)
		if err != nil {
			logger.Error("Rule failed", zap.String(logg.Rule, rule.Name), zap.Error(err))

			return nil, err
		}

		for target, patch := range patches {
			if !slices.Contains(rule.Targets, target) {
				return nil, apperr.Wrap(op, apperr.CodeInternal,
					fmt.Errorf("rule %q patched undeclared target %s", rule.Name, target),
					map[string]any{apperr.MetaStage: apperr.StageRule, apperr.MetaKey: target})
			}

			targetComp, err := m.registry.Lookup(target)
			if err != nil {
				return nil, err
			}

			if _, seen := previous[target]; !seen {
				previous[target] = targetComp.Snapshot()
			}

			targetComp.Apply(patch)
			updates[target] = targetComp.Snapshot()
		}
	}

	return updates, nil
}

func (m *Manager) restore(previous map[string]entity.Component) {
	for key, snap := range previous {
		comp, err := m.registry.Lookup(key)
		if err != nil {
			continue
		}

		*comp = snap
	}
}

func (m *Manager) Component(key string) (entity.Component, error) {
	comp, err := m.registry.Lookup(key)
	if err != nil {
		return entity.Component{}, err
	}

	return comp.Snapshot(), nil
}

func (m *Manager) Components() map[string]entity.Component {
	out := make(map[string]entity.Component)
	for _, key := range m.registry.SortedKeys() {
		comp, _ := m.registry.Lookup(key)
		out[key] = comp.Snapshot()
	}

	return out
}
