// Package plugin tracks which optional Lua plugins are enabled for
// Lantern and reconciles that set against what is actually discoverable
// on disk.
//
// The package has two halves. The Loader scans search roots
// (workspace .lantern/plugins, then ~/.config/lantern/plugins), reads
// each plugin's .lantern/plugin.json manifest, and assigns a status:
// available, unavailable (valid manifest, missing entry point), or
// invalid-manifest. The Coordinator consumes those snapshots through
// the RegistrySource interface and merges them with the caller's
// enabled-ID set.
//
// The enabled-ID set is independent of discovery: IDs can be enabled
// before any load and survive reloads even when nothing on disk matches
// them. Every load re-stamps each plugin's Enabled flag from the set,
// so the two never diverge.
//
// Typical startup flow:
//
//	coord := plugin.NewCoordinator(plugin.NewLoader())
//	coord.SetEnabledPluginIDs(persistedIDs)
//	if err := coord.LoadPlugins(ctx); err != nil { ... }
//
//	// Prune stale IDs, activate the rest.
//	stale := coord.UnavailableEnabledPlugins()
//	configs := coord.ActivePluginConfigs()
//
// The coordinator never persists anything and never executes plugin
// code: Enable/Disable/Toggle return the updated enabled-ID set for the
// caller to persist, and ActivePluginConfigs is handed verbatim to the
// Lua runtime. PluginsKey gives callers an opaque fingerprint of the
// active set for restart detection.
//
// A plugin directory looks like:
//
//	.lantern/plugins/git-tools/
//	├── .lantern/
//	│   ├── plugin.json    # Manifest
//	│   └── init.lua       # Entry point (manifest "main")
//	└── commands/          # Optional plugin commands
//	    └── blame.lua
package plugin
