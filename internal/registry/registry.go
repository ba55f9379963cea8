package registry

import (
	"browser-use-webui/internal/entity"
	"browser-use-webui/pkg/apperr"
	"browser-use-webui/pkg/logg"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const registryName = "Registry"

var (
	ErrDuplicateKey = errors.New("component key already registered")
	ErrNotFound     = errors.New("component not registered")
)

// Registry maps "<namespace>.<field>" keys to components. Keys are write-once
// for the lifetime of the UI session. All tabs register at startup, before any
// event is dispatched, so the registry itself takes no locks.
type Registry struct {
	logger     *zap.Logger
	components map[string]*entity.Component
}

func New(logger *zap.Logger) *Registry {
	return &Registry{
		logger:     logger.With(zap.String(logg.Layer, registryName)),
		components: make(map[string]*entity.Component),
	}
}

func Key(namespace, field string) string {
	return namespace + "." + field
}

// SplitKey is the inverse of Key.
func SplitKey(key string) (namespace, field string, ok bool) {
	namespace, field, ok = strings.Cut(key, ".")
	if !ok || namespace == "" || field == "" {
		return "", "", false
	}

	return namespace, field, true
}

func (r *Registry) Register(namespace, field string, comp *entity.Component) error {
	const op = "Register"

	if namespace == "" || strings.Contains(namespace, ".") {
		return apperr.InvalidReqError(op, "namespace", fmt.Errorf("invalid namespace %q", namespace))
	}

	if field == "" {
		return apperr.InvalidReqError(op, "field", errors.New("field name is empty"))
	}

	if comp == nil {
		return apperr.InvalidReqError(op, "component", errors.New("component is nil"))
	}

	key := Key(namespace, field)
	if _, exists := r.components[key]; exists {
		return apperr.DuplicateKeyError(op, key, fmt.Errorf("%w: %s", ErrDuplicateKey, key))
	}

	r.components[key] = comp
	r.logger.Debug("Component registered", zap.String(logg.Operation, op), zap.String(logg.Key, key))

	return nil
}

// RegisterTab registers every field of a tab in field-name order and stops at
// the first failure.
func (r *Registry) RegisterTab(namespace string, fields map[string]*entity.Component) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if err := r.Register(namespace, name, fields[name]); err != nil {
			return err
		}
	}

	return nil
}

func (r *Registry) Get(namespace, field string) (*entity.Component, error) {
	return r.Lookup(Key(namespace, field))
}

func (r *Registry) Lookup(key string) (*entity.Component, error) {
	const op = "Lookup"

	comp, ok := r.components[key]
	if !ok {
		return nil, apperr.NotFoundError(op, fmt.Errorf("%w: %s", ErrNotFound, key))
	}

	return comp, nil
}

func (r *Registry) Has(key string) bool {
	_, ok := r.components[key]

	return ok
}

// Keys returns the set of registered keys.
func (r *Registry) Keys() map[string]struct{} {
	keys := make(map[string]struct{}, len(r.components))
	for key := range r.components {
		keys[key] = struct{}{}
	}

	return keys
}

func (r *Registry) SortedKeys() []string {
	keys := make([]string, 0, len(r.components))
	for key := range r.components {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// Namespace returns the fields registered under namespace, keyed by field name.
func (r *Registry) Namespace(namespace string) map[string]*entity.Component {
	out := make(map[string]*entity.Component)
	prefix := namespace + "."

	for key, comp := range r.components {
		if field, ok := strings.CutPrefix(key, prefix); ok {
			out[field] = comp
		}
	}

	return out
}
