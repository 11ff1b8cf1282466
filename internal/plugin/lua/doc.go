// Package lua is Lantern's embedded plugin runtime.
//
// The coordinator decides which plugins are active; this package runs
// them. A Runtime holds one sandboxed Lua state shared by all plugins:
// only the base, table, string and math libraries are opened, the
// code-loading globals (dofile, loadfile, load, loadstring) are removed,
// and module search paths are cleared so plugin code cannot pull in
// arbitrary files.
//
// Activation consumes the coordinator's ActivationConfig slice as-is.
// For each local config the runtime reads plugin.json in the config
// path, resolves the manifest's "main" entry point and executes it.
package lua
