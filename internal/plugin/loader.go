package plugin

import (
	"context"
	"os"
	"path/filepath"
	"sort"
)

// Root is one directory searched for plugins. Every plugin found under
// Path gets an ID of "<name>@<source>" (or the bare name when Source is
// empty) and the root's scope.
type Root struct {
	Path   string
	Source string
	Scope  Scope
}

// Loader discovers plugins on the filesystem. It implements
// RegistrySource: each ListPlugins call re-scans the configured roots
// and returns a fresh snapshot with status assigned per plugin.
//
// Roots are searched in order and project-scoped roots should come
// first; within a root, plugins are sorted by name. The first root that
// claims an ID wins.
type Loader struct {
	roots []Root
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRoots sets the plugin search roots, replacing the defaults.
func WithRoots(roots ...Root) LoaderOption {
	return func(l *Loader) {
		l.roots = roots
	}
}

// NewLoader creates a new plugin loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		roots: DefaultRoots(""),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// DefaultRoots returns the default search roots for the given workspace
// directory: the workspace's .lantern/plugins first, then the user's
// ~/.config/lantern/plugins. An empty workspace means the current
// directory.
func DefaultRoots(workspace string) []Root {
	if workspace == "" {
		if cwd, err := os.Getwd(); err == nil {
			workspace = cwd
		}
	}

	roots := make([]Root, 0, 2)
	if workspace != "" {
		roots = append(roots, Root{
			Path:   filepath.Join(workspace, ManifestDir, "plugins"),
			Source: "project",
			Scope:  ScopeProject,
		})
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, Root{
			Path:   filepath.Join(home, ".config", "lantern", "plugins"),
			Source: "user",
			Scope:  ScopeUser,
		})
	}
	return roots
}

// Roots returns the configured search roots.
func (l *Loader) Roots() []Root {
	return l.roots
}

// ListPlugins scans all roots and returns the discovered plugins.
// Missing root directories are skipped, not errors. The returned order
// is root order, then name order within each root.
func (l *Loader) ListPlugins(ctx context.Context) ([]*Plugin, error) {
	plugins := make([]*Plugin, 0)
	seen := make(map[string]bool)

	for _, root := range l.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		found, err := l.scanRoot(root)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			// First root claiming an ID wins.
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			plugins = append(plugins, p)
		}
	}

	return plugins, nil
}

// scanRoot discovers plugins in a single root directory.
func (l *Loader) scanRoot(root Root) ([]*Plugin, error) {
	entries, err := os.ReadDir(root.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var found []*Plugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		installPath := filepath.Join(root.Path, entry.Name())
		manifestPath := filepath.Join(installPath, ManifestDir)

		// Directories without a manifest dir are not plugins.
		if stat, err := os.Stat(manifestPath); err != nil || !stat.IsDir() {
			continue
		}

		found = append(found, l.inspect(root, entry.Name(), installPath, manifestPath))
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].Name < found[j].Name
	})
	return found, nil
}

// inspect builds the Plugin record for one candidate directory,
// assigning its status from the manifest and entry point.
func (l *Loader) inspect(root Root, dirName, installPath, manifestPath string) *Plugin {
	p := &Plugin{
		Name:         dirName,
		DisplayName:  dirName,
		InstallPath:  installPath,
		ManifestPath: manifestPath,
		Scope:        root.Scope,
	}

	manifest, err := LoadManifest(filepath.Join(manifestPath, ManifestFile))
	if err != nil {
		p.Status = StatusInvalidManifest
		p.ID = pluginID(dirName, root.Source)
		return p
	}

	p.Name = manifest.Name
	p.DisplayName = manifest.DisplayName
	p.Description = manifest.Description
	p.Version = manifest.Version
	p.ID = pluginID(manifest.Name, root.Source)

	// A valid manifest whose entry point is missing makes the plugin
	// unavailable rather than invalid.
	mainPath := filepath.Join(manifestPath, manifest.Main)
	if _, err := os.Stat(mainPath); err != nil {
		p.Status = StatusUnavailable
		return p
	}

	p.Status = StatusAvailable
	return p
}

// pluginID builds "<name>@<source>", or the bare name when source is
// empty.
func pluginID(name, source string) string {
	if source == "" {
		return name
	}
	return name + "@" + source
}
