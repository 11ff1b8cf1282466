package plugin

// Status is the discovery-time validity of a plugin. It is assigned by
// the registry source and never changed by the coordinator.
type Status string

// Plugin statuses.
const (
	// StatusAvailable means the plugin was discovered with a valid
	// manifest and entry point and can be activated.
	StatusAvailable Status = "available"

	// StatusUnavailable means the plugin was discovered but cannot be
	// activated (for example its entry point is missing).
	StatusUnavailable Status = "unavailable"

	// StatusInvalidManifest means the plugin's manifest could not be
	// read or failed validation.
	StatusInvalidManifest Status = "invalid-manifest"
)

// Scope is the provenance of a plugin. It is an ordering hint for
// presentation only; the coordinator treats all scopes alike.
type Scope string

// Plugin scopes.
const (
	// ScopeProject marks plugins discovered in the workspace.
	ScopeProject Scope = "project"

	// ScopeUser marks plugins discovered in the user's home directories.
	ScopeUser Scope = "user"
)

// Plugin is one discoverable extension module.
//
// ID is globally unique within a single discovery snapshot, in the form
// "<name>@<source>" or a bare name. The coordinator trusts the registry
// source to keep IDs unique; all derived views assume it.
type Plugin struct {
	// ID is the unique identifier, e.g. "git-tools@project".
	ID string

	// Name is the bare plugin name from the manifest.
	Name string

	// DisplayName is the human-readable name.
	DisplayName string

	// Description is a short description from the manifest.
	Description string

	// Version is the plugin's semver string.
	Version string

	// InstallPath is the plugin's root directory on disk.
	InstallPath string

	// ManifestPath is the plugin's metadata directory, normally
	// InstallPath/.lantern.
	ManifestPath string

	// Scope is the provenance tag (project or user).
	Scope Scope

	// Enabled reflects membership in the coordinator's enabled-ID set.
	Enabled bool

	// Status is the discovery-time validity.
	Status Status
}

// Active reports whether the plugin is both enabled and available.
func (p *Plugin) Active() bool {
	return p.Enabled && p.Status == StatusAvailable
}

// ActivationConfig is the payload handed to the embedded runtime for one
// active plugin. The runtime loads plugin code from Path; the
// coordinator itself never executes plugin code.
type ActivationConfig struct {
	// Type is the config kind. Only "local" is produced today.
	Type string

	// Path is the plugin's manifest directory (not its install path).
	Path string
}

// ConfigTypeLocal is the activation config type for plugins loaded from
// the local filesystem.
const ConfigTypeLocal = "local"

// CommandPath points command discovery at one active plugin's install
// tree. CommandsPath is deliberately the install path, not the manifest
// path; the command loader appends its own fixed subdirectory and checks
// existence itself.
type CommandPath struct {
	PluginName   string
	CommandsPath string
}
