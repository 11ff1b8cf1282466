// Package command discovers commands contributed by active plugins.
//
// The coordinator hands over one install path per active plugin; this
// package appends the fixed "commands" subdirectory and registers every
// Lua file it finds there. Whether that subdirectory exists at all is
// this package's concern, not the coordinator's.
package command

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dshills/lantern/internal/plugin"
)

// CommandsSubdir is the fixed subdirectory under a plugin's install path
// that holds its command scripts.
const CommandsSubdir = "commands"

// Command is one plugin-contributed command.
type Command struct {
	// PluginName is the bare name of the contributing plugin.
	PluginName string

	// Name is the command name, the script's file stem.
	Name string

	// Path is the absolute path to the command script.
	Path string
}

// ID returns the qualified command identifier, "<plugin>.<name>".
func (c Command) ID() string {
	return c.PluginName + "." + c.Name
}

// Registry holds discovered plugin commands.
type Registry struct {
	mu sync.RWMutex

	// commands by qualified ID
	commands map[string]Command

	// order of first registration, for deterministic listing
	order []string

	// lastScan records when Discover last ran.
	lastScan time.Time
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Discover scans the commands subdirectory of every given path and
// replaces the registry contents with what it finds. Plugins without a
// commands directory contribute nothing; that is not an error. Within a
// plugin, scripts register in directory order; the first registration of
// a qualified ID wins.
func (r *Registry) Discover(paths []plugin.CommandPath) error {
	found := make(map[string]Command)
	var order []string

	for _, p := range paths {
		dir := filepath.Join(p.CommandsPath, CommandsSubdir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
				continue
			}

			cmd := Command{
				PluginName: p.PluginName,
				Name:       strings.TrimSuffix(entry.Name(), ".lua"),
				Path:       filepath.Join(dir, entry.Name()),
			}
			if _, exists := found[cmd.ID()]; exists {
				continue
			}
			found[cmd.ID()] = cmd
			order = append(order, cmd.ID())
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = found
	r.order = order
	r.lastScan = time.Now()
	return nil
}

// Get retrieves a command by qualified ID.
func (r *Registry) Get(id string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[id]
	return cmd, ok
}

// All returns every registered command in registration order.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Command, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.commands[id])
	}
	return result
}

// ByPlugin returns the commands contributed by one plugin, in
// registration order.
func (r *Registry) ByPlugin(pluginName string) []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Command
	for _, id := range r.order {
		if cmd := r.commands[id]; cmd.PluginName == pluginName {
			result = append(result, cmd)
		}
	}
	return result
}

// Count returns the number of registered commands.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// LastScan returns when Discover last completed, zero if never.
func (r *Registry) LastScan() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastScan
}
