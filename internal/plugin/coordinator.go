package plugin

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// RegistrySource supplies the current list of discoverable plugins.
//
// Implementations own status assignment (available, unavailable,
// invalid-manifest) and any presentation ordering (project-scoped before
// user-scoped); the coordinator preserves the order it receives. The
// call must have no side effects visible to the coordinator.
type RegistrySource interface {
	ListPlugins(ctx context.Context) ([]*Plugin, error)
}

// Coordinator owns the authoritative in-memory view of all known
// plugins plus the set of plugin IDs the caller has asked to enable,
// and derives the views other subsystems need: activation configs for
// the Lua runtime, command discovery paths, and a change-detection
// fingerprint.
//
// The enabled-ID set exists independently of the plugin list: IDs can be
// enabled before any load, and they survive reloads even when no
// discovered plugin matches them. Every load re-stamps each plugin's
// Enabled flag from the set.
//
// The coordinator assumes a single sequential caller. The mutex makes
// reads safe to interleave with writes, but overlapping LoadPlugins
// calls are last-writer-wins: whichever call stores its snapshot last
// determines the list. The intended caller issues loads sequentially.
type Coordinator struct {
	mu sync.RWMutex

	source RegistrySource

	// plugins holds the latest discovery snapshot in source order.
	plugins []*Plugin

	// enabled is the caller-controlled enabled-ID set.
	enabled map[string]struct{}
}

// NewCoordinator creates an empty coordinator backed by the given
// registry source. It starts with no plugins and an empty enabled set.
func NewCoordinator(source RegistrySource) *Coordinator {
	return &Coordinator{
		source:  source,
		enabled: make(map[string]struct{}),
	}
}

// SetEnabledPluginIDs replaces the enabled-ID set with the given IDs
// (duplicates collapse) and re-stamps Enabled on every loaded plugin.
// It may be called before or after any load, any number of times.
func (c *Coordinator) SetEnabledPluginIDs(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		c.enabled[id] = struct{}{}
	}
	c.stampEnabled()
}

// LoadPlugins fetches a fresh snapshot from the registry source,
// replacing the stored list wholesale, and stamps Enabled on each plugin
// from the enabled-ID set. Any error from the source is returned to the
// caller unmodified; the stored list is left untouched in that case.
//
// The fetch runs outside the coordinator lock. If two loads overlap, the
// last one to finish wins.
func (c *Coordinator) LoadPlugins(ctx context.Context) error {
	list, err := c.source.ListPlugins(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.plugins = make([]*Plugin, len(list))
	copy(c.plugins, list)
	c.stampEnabled()
	return nil
}

// stampEnabled sets every plugin's Enabled flag from the enabled-ID set.
// Must be called with mu held.
func (c *Coordinator) stampEnabled() {
	for _, p := range c.plugins {
		_, ok := c.enabled[p.ID]
		p.Enabled = ok
	}
}

// Plugins returns the current list in load order. The slice is a copy;
// mutating it does not affect the coordinator. Elements are shared
// snapshots and should be treated as read-only.
func (c *Coordinator) Plugins() []*Plugin {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*Plugin, len(c.plugins))
	copy(result, c.plugins)
	return result
}

// HasPlugins reports whether any plugins are loaded, regardless of
// enabled or available status.
func (c *Coordinator) HasPlugins() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.plugins) > 0
}

// ActivePluginConfigs returns one activation config per active plugin
// (enabled and available), in list order. Path is the plugin's manifest
// directory, which is what the Lua runtime loads from.
func (c *Coordinator) ActivePluginConfigs() []ActivationConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()

	configs := make([]ActivationConfig, 0)
	for _, p := range c.plugins {
		if p.Active() {
			configs = append(configs, ActivationConfig{
				Type: ConfigTypeLocal,
				Path: p.ManifestPath,
			})
		}
	}
	return configs
}

// PluginCommandPaths returns one entry per active plugin pointing at its
// install path. The command loader appends its own "commands"
// subdirectory; the coordinator does not check that it exists.
func (c *Coordinator) PluginCommandPaths() []CommandPath {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]CommandPath, 0)
	for _, p := range c.plugins {
		if p.Active() {
			paths = append(paths, CommandPath{
				PluginName:   p.Name,
				CommandsPath: p.InstallPath,
			})
		}
	}
	return paths
}

// UnavailableEnabledPlugins returns the IDs of loaded plugins that are
// enabled but not available (unavailable or invalid-manifest). Enabled
// IDs with no loaded plugin at all are not reported. Callers use this to
// prune stale IDs from persisted settings.
func (c *Coordinator) UnavailableEnabledPlugins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []string
	for _, p := range c.plugins {
		if p.Enabled && p.Status != StatusAvailable {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// HasEnabledPlugins reports whether at least one active plugin exists.
// An enabled ID whose plugin is unavailable does not count.
func (c *Coordinator) HasEnabledPlugins() bool {
	return c.EnabledCount() > 0
}

// EnabledCount returns the number of active plugins.
func (c *Coordinator) EnabledCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, p := range c.plugins {
		if p.Active() {
			count++
		}
	}
	return count
}

// PluginsKey returns a stable fingerprint of the active plugin
// configuration, for callers that restart a session when the active set
// changes. Active plugins are sorted by ID with a locale-aware
// comparison, mapped to "<id>:<manifestPath>" and joined with "|".
// The result is invariant to load order; no active plugins yields "".
func (c *Coordinator) PluginsKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := make([]*Plugin, 0)
	for _, p := range c.plugins {
		if p.Active() {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return ""
	}

	col := collate.New(language.Und)
	sort.Slice(active, func(i, j int) bool {
		return col.CompareString(active[i].ID, active[j].ID) < 0
	})

	parts := make([]string, len(active))
	for i, p := range active {
		parts[i] = p.ID + ":" + p.ManifestPath
	}
	return strings.Join(parts, "|")
}

// TogglePlugin flips the enabled state of the loaded plugin with the
// given ID and returns the full updated enabled-ID set, sorted. If no
// loaded plugin matches, the set is returned unchanged; unknown IDs are
// silently ignored so toggle-style UI code stays branch-free.
func (c *Coordinator) TogglePlugin(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p := c.find(id); p != nil {
		if p.Enabled {
			p.Enabled = false
			delete(c.enabled, id)
		} else {
			p.Enabled = true
			c.enabled[id] = struct{}{}
		}
	}
	return c.enabledIDs()
}

// EnablePlugin enables the loaded plugin with the given ID and returns
// the updated enabled-ID set. It is idempotent: an unknown or already
// enabled ID leaves the set unchanged.
func (c *Coordinator) EnablePlugin(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p := c.find(id); p != nil && !p.Enabled {
		p.Enabled = true
		c.enabled[id] = struct{}{}
	}
	return c.enabledIDs()
}

// DisablePlugin disables the loaded plugin with the given ID and returns
// the updated enabled-ID set. Idempotent, symmetric to EnablePlugin.
func (c *Coordinator) DisablePlugin(id string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p := c.find(id); p != nil && p.Enabled {
		p.Enabled = false
		delete(c.enabled, id)
	}
	return c.enabledIDs()
}

// find returns the loaded plugin with the given ID, or nil.
// Must be called with mu held.
func (c *Coordinator) find(id string) *Plugin {
	for _, p := range c.plugins {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// enabledIDs returns the enabled-ID set as a sorted slice.
// Must be called with mu held.
func (c *Coordinator) enabledIDs() []string {
	ids := make([]string, 0, len(c.enabled))
	for id := range c.enabled {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
