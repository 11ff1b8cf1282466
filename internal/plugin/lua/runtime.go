package lua

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dshills/lantern/internal/plugin"
)

// Runtime executes active plugins inside a shared sandboxed Lua state.
//
// It consumes the coordinator's activation configs verbatim: each
// "local" config points at a plugin's manifest directory, from which the
// runtime re-reads the manifest and runs the entry point. Per-plugin
// failures are collected rather than aborting the batch, so one broken
// plugin cannot block the rest.
type Runtime struct {
	mu sync.Mutex

	state *State

	// activated plugin names, in activation order.
	activated []string
}

// NewRuntime creates a runtime with a fresh sandboxed state.
func NewRuntime() *Runtime {
	return &Runtime{state: NewState()}
}

// Activate loads and runs every plugin in configs. It returns the
// joined errors of all plugins that failed; a nil error means every
// plugin activated. Already processed configs are not rolled back on
// later failures.
func (r *Runtime) Activate(ctx context.Context, configs []plugin.ActivationConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var activateErrors []error
	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			activateErrors = append(activateErrors, err)
			break
		}
		if err := r.activateOne(cfg); err != nil {
			activateErrors = append(activateErrors, err)
		}
	}

	if len(activateErrors) > 0 {
		return fmt.Errorf("failed to activate %d plugins: %w",
			len(activateErrors), errors.Join(activateErrors...))
	}
	return nil
}

// activateOne runs a single plugin's entry point.
// Must be called with mu held.
func (r *Runtime) activateOne(cfg plugin.ActivationConfig) error {
	if cfg.Type != plugin.ConfigTypeLocal {
		return fmt.Errorf("%w: %q", ErrUnknownConfigType, cfg.Type)
	}

	manifest, err := plugin.LoadManifest(filepath.Join(cfg.Path, plugin.ManifestFile))
	if err != nil {
		return fmt.Errorf("plugin at %s: %w", cfg.Path, err)
	}

	mainPath := filepath.Join(cfg.Path, manifest.Main)
	if err := r.state.DoFile(mainPath); err != nil {
		return fmt.Errorf("plugin %q: %w", manifest.Name, err)
	}

	r.activated = append(r.activated, manifest.Name)
	return nil
}

// Activated returns the names of plugins that ran successfully, in
// activation order.
func (r *Runtime) Activated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.activated))
	copy(names, r.activated)
	return names
}

// State returns the underlying Lua state, for host API registration.
func (r *Runtime) State() *State {
	return r.state
}

// Close shuts down the Lua state. Idempotent.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Close()
}
