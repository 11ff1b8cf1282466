package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// createPlugin writes a plugin directory with a manifest and entry
// point under root, returning its install path.
func createPlugin(t *testing.T, root, name string) string {
	t.Helper()

	installPath := filepath.Join(root, name)
	manifestDir := filepath.Join(installPath, ManifestDir)
	if err := os.MkdirAll(manifestDir, 0755); err != nil {
		t.Fatal(err)
	}

	manifest := `{
		"name": "` + name + `",
		"version": "1.0.0",
		"displayName": "Test Plugin",
		"description": "test"
	}`
	if err := os.WriteFile(filepath.Join(manifestDir, ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(manifestDir, DefaultMain), []byte("-- "+name), 0644); err != nil {
		t.Fatal(err)
	}

	return installPath
}

func TestLoaderListPlugins(t *testing.T) {
	root := t.TempDir()
	createPlugin(t, root, "beta")
	createPlugin(t, root, "alpha")

	l := NewLoader(WithRoots(Root{Path: root, Source: "project", Scope: ScopeProject}))

	plugins, err := l.ListPlugins(context.Background())
	if err != nil {
		t.Fatalf("ListPlugins() error = %v", err)
	}

	if len(plugins) != 2 {
		t.Fatalf("ListPlugins() returned %d plugins, want 2", len(plugins))
	}
	// Name order within a root.
	if plugins[0].Name != "alpha" || plugins[1].Name != "beta" {
		t.Errorf("order = [%s, %s], want [alpha, beta]", plugins[0].Name, plugins[1].Name)
	}

	p := plugins[0]
	if p.ID != "alpha@project" {
		t.Errorf("ID = %q, want %q", p.ID, "alpha@project")
	}
	if p.Status != StatusAvailable {
		t.Errorf("Status = %q, want %q", p.Status, StatusAvailable)
	}
	if p.Scope != ScopeProject {
		t.Errorf("Scope = %q, want %q", p.Scope, ScopeProject)
	}
	if want := filepath.Join(root, "alpha"); p.InstallPath != want {
		t.Errorf("InstallPath = %q, want %q", p.InstallPath, want)
	}
	if want := filepath.Join(root, "alpha", ManifestDir); p.ManifestPath != want {
		t.Errorf("ManifestPath = %q, want %q", p.ManifestPath, want)
	}
	if p.Enabled {
		t.Error("loader assigned Enabled = true, want false (coordinator's job)")
	}
}

func TestLoaderMissingRoot(t *testing.T) {
	l := NewLoader(WithRoots(Root{
		Path:   filepath.Join(t.TempDir(), "does-not-exist"),
		Source: "project",
		Scope:  ScopeProject,
	}))

	plugins, err := l.ListPlugins(context.Background())
	if err != nil {
		t.Fatalf("ListPlugins() error = %v for missing root, want nil", err)
	}
	if len(plugins) != 0 {
		t.Errorf("ListPlugins() returned %d plugins, want 0", len(plugins))
	}
}

func TestLoaderSkipsNonPluginDirs(t *testing.T) {
	root := t.TempDir()
	createPlugin(t, root, "real")

	// A directory without a manifest dir and a stray file are ignored.
	if err := os.MkdirAll(filepath.Join(root, "not-a-plugin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(WithRoots(Root{Path: root, Source: "project", Scope: ScopeProject}))
	plugins, err := l.ListPlugins(context.Background())
	if err != nil {
		t.Fatalf("ListPlugins() error = %v", err)
	}
	if len(plugins) != 1 || plugins[0].Name != "real" {
		t.Errorf("ListPlugins() = %d plugins, want just %q", len(plugins), "real")
	}
}

func TestLoaderInvalidManifest(t *testing.T) {
	root := t.TempDir()
	manifestDir := filepath.Join(root, "broken", ManifestDir)
	if err := os.MkdirAll(manifestDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(manifestDir, ManifestFile), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(WithRoots(Root{Path: root, Source: "project", Scope: ScopeProject}))
	plugins, err := l.ListPlugins(context.Background())
	if err != nil {
		t.Fatalf("ListPlugins() error = %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("ListPlugins() returned %d plugins, want 1", len(plugins))
	}

	p := plugins[0]
	if p.Status != StatusInvalidManifest {
		t.Errorf("Status = %q, want %q", p.Status, StatusInvalidManifest)
	}
	// Falls back to the directory name for identity.
	if p.ID != "broken@project" {
		t.Errorf("ID = %q, want %q", p.ID, "broken@project")
	}
}

func TestLoaderMissingEntryPoint(t *testing.T) {
	root := t.TempDir()
	installPath := createPlugin(t, root, "hollow")
	if err := os.Remove(filepath.Join(installPath, ManifestDir, DefaultMain)); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(WithRoots(Root{Path: root, Source: "project", Scope: ScopeProject}))
	plugins, err := l.ListPlugins(context.Background())
	if err != nil {
		t.Fatalf("ListPlugins() error = %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("ListPlugins() returned %d plugins, want 1", len(plugins))
	}
	if plugins[0].Status != StatusUnavailable {
		t.Errorf("Status = %q, want %q", plugins[0].Status, StatusUnavailable)
	}
}

func TestLoaderRootOrderAndFirstWins(t *testing.T) {
	projectRoot := t.TempDir()
	userRoot := t.TempDir()
	createPlugin(t, projectRoot, "shared")
	createPlugin(t, userRoot, "shared")
	createPlugin(t, userRoot, "extra")

	l := NewLoader(WithRoots(
		Root{Path: projectRoot, Source: "project", Scope: ScopeProject},
		Root{Path: userRoot, Source: "user", Scope: ScopeUser},
	))

	plugins, err := l.ListPlugins(context.Background())
	if err != nil {
		t.Fatalf("ListPlugins() error = %v", err)
	}
	if len(plugins) != 3 {
		t.Fatalf("ListPlugins() returned %d plugins, want 3", len(plugins))
	}

	// Project root first, then user root.
	if plugins[0].ID != "shared@project" {
		t.Errorf("first plugin = %q, want %q", plugins[0].ID, "shared@project")
	}
	if plugins[0].Scope != ScopeProject {
		t.Errorf("first plugin scope = %q, want %q", plugins[0].Scope, ScopeProject)
	}
	// Different sources keep both copies distinct.
	if plugins[1].ID != "extra@user" || plugins[2].ID != "shared@user" {
		t.Errorf("user plugins = [%s, %s], want [extra@user, shared@user]", plugins[1].ID, plugins[2].ID)
	}
}

func TestLoaderDuplicateIDFirstRootWins(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	createPlugin(t, rootA, "dup")
	createPlugin(t, rootB, "dup")

	// Same source label in both roots produces the same ID.
	l := NewLoader(WithRoots(
		Root{Path: rootA, Source: "local", Scope: ScopeProject},
		Root{Path: rootB, Source: "local", Scope: ScopeUser},
	))

	plugins, err := l.ListPlugins(context.Background())
	if err != nil {
		t.Fatalf("ListPlugins() error = %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("ListPlugins() returned %d plugins, want 1", len(plugins))
	}
	if plugins[0].InstallPath != filepath.Join(rootA, "dup") {
		t.Errorf("InstallPath = %q, want first root's copy", plugins[0].InstallPath)
	}
}

func TestLoaderCancelledContext(t *testing.T) {
	root := t.TempDir()
	createPlugin(t, root, "any")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(WithRoots(Root{Path: root, Source: "project", Scope: ScopeProject}))
	if _, err := l.ListPlugins(ctx); err == nil {
		t.Error("ListPlugins() error = nil with cancelled context, want error")
	}
}

func TestLoaderAsRegistrySource(t *testing.T) {
	root := t.TempDir()
	createPlugin(t, root, "end-to-end")

	var src RegistrySource = NewLoader(WithRoots(Root{Path: root, Source: "project", Scope: ScopeProject}))
	c := NewCoordinator(src)
	c.SetEnabledPluginIDs([]string{"end-to-end@project"})
	if err := c.LoadPlugins(context.Background()); err != nil {
		t.Fatalf("LoadPlugins() error = %v", err)
	}

	if got := c.EnabledCount(); got != 1 {
		t.Errorf("EnabledCount() = %d, want 1", got)
	}
	key := c.PluginsKey()
	want := "end-to-end@project:" + filepath.Join(root, "end-to-end", ManifestDir)
	if key != want {
		t.Errorf("PluginsKey() = %q, want %q", key, want)
	}
}
