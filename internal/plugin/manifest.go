package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ManifestDir is the metadata subdirectory inside a plugin's install
// path. The manifest file and the plugin's entry point live here.
const ManifestDir = ".lantern"

// ManifestFile is the manifest filename inside ManifestDir.
const ManifestFile = "plugin.json"

// DefaultMain is the entry point used when a manifest omits "main".
const DefaultMain = "init.lua"

// Manifest describes a plugin's metadata. It lives at
// <install>/.lantern/plugin.json; Main is relative to that directory.
type Manifest struct {
	Name        string `json:"name"`        // Unique bare name (e.g. "git-tools")
	Version     string `json:"version"`     // Semver (e.g. "1.2.0")
	DisplayName string `json:"displayName"` // Human-readable name
	Description string `json:"description"` // Short description
	Author      string `json:"author"`      // Author name or org
	License     string `json:"license"`     // SPDX license identifier
	Main        string `json:"main"`        // Entry point Lua file (default "init.lua")
}

// Validation errors.
var (
	ErrMissingName    = errors.New("manifest: name is required")
	ErrInvalidName    = errors.New("manifest: name must be lowercase alphanumeric with hyphens")
	ErrMissingVersion = errors.New("manifest: version is required")
	ErrInvalidVersion = errors.New("manifest: version must be valid semver")
	ErrInvalidMain    = errors.New("manifest: main must be a .lua file")
)

// namePattern validates plugin names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// validMain reports whether main is a relative .lua path inside the
// manifest dir. Absolute paths and parent traversal are rejected.
func validMain(main string) bool {
	if main == "" || filepath.IsAbs(main) {
		return false
	}
	if filepath.Ext(main) != ".lua" {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(main), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// LoadManifest reads and validates a manifest from the given file path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if m.Main == "" {
		m.Main = DefaultMain
	}
	if m.DisplayName == "" {
		m.DisplayName = m.Name
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest for required fields and formats.
func (m *Manifest) Validate() error {
	if m == nil {
		return ErrNilManifest
	}
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, m.Name)
	}
	if m.Version == "" {
		return ErrMissingVersion
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, m.Version)
	}
	if !validMain(m.Main) {
		return fmt.Errorf("%w: %q", ErrInvalidMain, m.Main)
	}
	return nil
}
