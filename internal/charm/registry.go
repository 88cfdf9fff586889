// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"context"
	"path"
	"sort"

	"github.com/juju/errors"
)

// Environment variables the unit agent uses to name the hook being run.
const (
	EnvDispatchPath = "JUJU_DISPATCH_PATH"
	EnvHookName     = "JUJU_HOOK_NAME"
)

// HookFunc handles a single hook.
type HookFunc func(ctx context.Context) error

// Registry maps hook names to the functions handling them.
type Registry struct {
	hooks map[string]HookFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]HookFunc)}
}

// Register binds f to the named hook. Registering the same hook twice is
// an error.
func (r *Registry) Register(name string, f HookFunc) error {
	if name == "" {
		return errors.NotValidf("empty hook name")
	}
	if f == nil {
		return errors.NotValidf("nil handler for hook %q", name)
	}
	if _, ok := r.hooks[name]; ok {
		return errors.AlreadyExistsf("handler for hook %q", name)
	}
	r.hooks[name] = f
	return nil
}

// Hooks returns the names of the registered hooks, sorted.
func (r *Registry) Hooks() []string {
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run runs the handler of the named hook. Hooks without a handler are
// ignored.
func (r *Registry) Run(ctx context.Context, name string) error {
	f, ok := r.hooks[name]
	if !ok {
		logger.Debugf("no handler for hook %q", name)
		return nil
	}
	logger.Debugf("running hook %q", name)
	return errors.Annotatef(f(ctx), "running hook %q", name)
}

// HookName returns the name of the hook being dispatched, taken from the
// dispatch path set by the unit agent or, for older agents, the hook
// name.
func HookName(getenv func(string) string) (string, error) {
	if dispatch := getenv(EnvDispatchPath); dispatch != "" {
		return path.Base(dispatch), nil
	}
	if name := getenv(EnvHookName); name != "" {
		return name, nil
	}
	return "", errors.NotFoundf("%s and %s", EnvDispatchPath, EnvHookName)
}
