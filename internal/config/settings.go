// Package config persists Lantern's user settings.
//
// The plugin coordinator never writes to disk itself; it hands callers
// the enabled-ID set to persist. This package is that caller-side store.
// Settings live in a single JSON file and updates are surgical: only the
// touched key is rewritten, every other key in the file is preserved
// byte-for-byte, including keys this version of Lantern knows nothing
// about.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// enabledPluginsKey is the settings key holding the enabled plugin IDs.
const enabledPluginsKey = "enabledPlugins"

// DefaultSettingsFile is the settings filename inside the workspace's
// .lantern directory.
const DefaultSettingsFile = "settings.json"

// Settings is a read-modify-write view over one settings file.
// A missing file behaves like an empty document.
type Settings struct {
	path string

	// raw is the current document; mutations go through sjson so
	// unknown keys survive.
	raw []byte
}

// LoadSettings reads the settings file at path. A missing file is not an
// error and yields empty settings.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{path: path, raw: []byte("{}")}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("settings file %s is not valid JSON", path)
	}
	s.raw = data
	return s, nil
}

// Path returns the settings file path.
func (s *Settings) Path() string {
	return s.path
}

// EnabledPlugins returns the persisted enabled plugin IDs. Absent or
// non-array values yield an empty list.
func (s *Settings) EnabledPlugins() []string {
	result := gjson.GetBytes(s.raw, enabledPluginsKey)
	if !result.IsArray() {
		return nil
	}

	var ids []string
	for _, v := range result.Array() {
		if v.Type == gjson.String {
			ids = append(ids, v.String())
		}
	}
	return ids
}

// SetEnabledPlugins replaces the persisted enabled plugin IDs in the
// in-memory document. Call Save to write the change out.
func (s *Settings) SetEnabledPlugins(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := sjson.SetBytes(s.raw, enabledPluginsKey, ids)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	s.raw = raw
	return nil
}

// Save writes the document to disk, creating parent directories as
// needed.
func (s *Settings) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	if err := os.WriteFile(s.path, s.raw, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
