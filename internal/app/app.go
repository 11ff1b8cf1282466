// Package app wires Lantern's components together: the settings store,
// the plugin loader and coordinator, the Lua runtime, and command
// discovery. It owns the startup reconcile sequence and the restart
// detection the coordinator's fingerprint exists for.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/lantern/internal/command"
	"github.com/dshills/lantern/internal/config"
	"github.com/dshills/lantern/internal/plugin"
	plua "github.com/dshills/lantern/internal/plugin/lua"
)

// Options configures the application.
type Options struct {
	// WorkspacePath is the workspace directory. Defaults to the current
	// directory.
	WorkspacePath string

	// SettingsPath overrides the settings file location. Defaults to
	// <workspace>/.lantern/settings.json.
	SettingsPath string

	// PluginRoots overrides the plugin search roots. Defaults to the
	// loader's roots for the workspace.
	PluginRoots []plugin.Root

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string

	// Debug forces debug-level logging.
	Debug bool
}

// App owns the plugin subsystem for one Lantern process.
type App struct {
	mu sync.Mutex

	opts     Options
	log      *Logger
	settings *config.Settings
	coord    *plugin.Coordinator
	runtime  *plua.Runtime
	commands *command.Registry

	// sessionKey is the fingerprint of the active plugin set the
	// running session was started with.
	sessionKey string

	started bool
}

// New creates an application from the given options. Nothing touches
// the disk until Startup.
func New(opts Options) (*App, error) {
	if opts.WorkspacePath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve workspace: %w", err)
		}
		opts.WorkspacePath = cwd
	}
	if opts.SettingsPath == "" {
		opts.SettingsPath = filepath.Join(opts.WorkspacePath, plugin.ManifestDir, config.DefaultSettingsFile)
	}

	roots := opts.PluginRoots
	if roots == nil {
		roots = plugin.DefaultRoots(opts.WorkspacePath)
	}

	level := ParseLogLevel(opts.LogLevel)
	if opts.Debug {
		level = LogLevelDebug
	}

	loader := plugin.NewLoader(plugin.WithRoots(roots...))
	return &App{
		opts:     opts,
		log:      NewLogger(level, os.Stderr),
		coord:    plugin.NewCoordinator(loader),
		runtime:  plua.NewRuntime(),
		commands: command.NewRegistry(),
	}, nil
}

// Startup runs the full reconcile sequence: load persisted enablement,
// discover plugins, prune stale enabled IDs from settings, activate the
// active set, and discover plugin commands. Individual plugin failures
// during activation are logged, not fatal; discovery or settings errors
// are.
func (a *App) Startup(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	settings, err := config.LoadSettings(a.opts.SettingsPath)
	if err != nil {
		return err
	}
	a.settings = settings

	a.coord.SetEnabledPluginIDs(settings.EnabledPlugins())
	if err := a.coord.LoadPlugins(ctx); err != nil {
		return fmt.Errorf("plugin discovery failed: %w", err)
	}
	a.log.Debug("discovered %d plugins", len(a.coord.Plugins()))

	// Enabled IDs whose plugins exist but cannot activate are pruned
	// from settings so they don't linger forever.
	if stale := a.coord.UnavailableEnabledPlugins(); len(stale) != 0 {
		a.log.Warn("pruning %d unavailable enabled plugins: %v", len(stale), stale)
		remaining := removeAll(settings.EnabledPlugins(), stale)
		if err := a.persistLocked(remaining); err != nil {
			return err
		}
		a.coord.SetEnabledPluginIDs(remaining)
	}

	if err := a.runtime.Activate(ctx, a.coord.ActivePluginConfigs()); err != nil {
		a.log.Error("plugin activation: %v", err)
	}
	a.log.Info("activated %d of %d enabled plugins",
		len(a.runtime.Activated()), a.coord.EnabledCount())

	if err := a.commands.Discover(a.coord.PluginCommandPaths()); err != nil {
		return fmt.Errorf("command discovery failed: %w", err)
	}
	a.log.Debug("discovered %d plugin commands", a.commands.Count())

	a.sessionKey = a.coord.PluginsKey()
	a.started = true
	return nil
}

// EnablePlugin enables a plugin and persists the updated enabled set.
func (a *App) EnablePlugin(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.persistLocked(a.coord.EnablePlugin(id))
}

// DisablePlugin disables a plugin and persists the updated enabled set.
func (a *App) DisablePlugin(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.persistLocked(a.coord.DisablePlugin(id))
}

// TogglePlugin flips a plugin's enabled state and persists the updated
// enabled set.
func (a *App) TogglePlugin(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.persistLocked(a.coord.TogglePlugin(id))
}

// persistLocked writes the enabled-ID set to settings.
// Must be called with mu held.
func (a *App) persistLocked(ids []string) error {
	if a.settings == nil {
		settings, err := config.LoadSettings(a.opts.SettingsPath)
		if err != nil {
			return err
		}
		a.settings = settings
	}
	if err := a.settings.SetEnabledPlugins(ids); err != nil {
		return err
	}
	return a.settings.Save()
}

// Plugins returns the current plugin list.
func (a *App) Plugins() []*plugin.Plugin {
	return a.coord.Plugins()
}

// Commands returns the discovered plugin commands.
func (a *App) Commands() []command.Command {
	return a.commands.All()
}

// NeedsRestart reports whether the active plugin set has drifted from
// the one the session was started with. The fingerprint is an opaque
// equality token; any change means the Lua runtime no longer matches
// the coordinator's view.
func (a *App) NeedsRestart() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return false
	}
	return a.coord.PluginsKey() != a.sessionKey
}

// Coordinator exposes the plugin coordinator for read queries.
func (a *App) Coordinator() *plugin.Coordinator {
	return a.coord
}

// Shutdown releases the Lua runtime. Safe to call more than once.
func (a *App) Shutdown() {
	if err := a.runtime.Close(); err != nil {
		a.log.Error("runtime shutdown: %v", err)
	}
}

// removeAll returns ids without any member of drop.
func removeAll(ids, drop []string) []string {
	dropSet := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		dropSet[id] = struct{}{}
	}

	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := dropSet[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	return remaining
}
