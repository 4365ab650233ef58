package extension

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/tidwall/gjson"
)

// Manifest describes one extension's metadata.
type Manifest struct {
	// Name is the unique extension identifier.
	Name string
	// Version is a semver string.
	Version string
	// Main is the relative path to the entry Lua file.
	Main string
	// Tags names the front-ends the extension applies to. An empty list
	// means every front-end.
	Tags []string

	// path is the extension directory.
	path string
}

// Validation errors.
var (
	ErrMissingName = errors.New("manifest: name is required")
	ErrInvalidName = errors.New("manifest: name must be alphanumeric with hyphens")
	ErrInvalidMain = errors.New("manifest: main must be a .lua file")
)

// namePattern validates extension names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// ManifestFileName is the manifest file looked up in each extension
// directory.
const ManifestFileName = "extension.json"

// LoadManifest loads and validates an extension manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to parse manifest %s: not valid JSON", path)
	}

	m := &Manifest{
		Name:    gjson.GetBytes(data, "name").String(),
		Version: gjson.GetBytes(data, "version").String(),
		Main:    gjson.GetBytes(data, "main").String(),
		path:    filepath.Dir(path),
	}
	for _, tag := range gjson.GetBytes(data, "tags").Array() {
		m.Tags = append(m.Tags, tag.String())
	}

	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// applyDefaults sets default values for optional fields.
func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
}

// Validate checks that the manifest is valid.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}
	if filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}
	return nil
}

// Path returns the extension directory.
func (m *Manifest) Path() string {
	return m.path
}

// MainPath returns the full path to the entry Lua file.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.path, m.Main)
}

// AppliesTo returns true if the extension targets the given front-end tag.
func (m *Manifest) AppliesTo(tag string) bool {
	if len(m.Tags) == 0 {
		return true
	}
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// String returns a short description of the manifest.
func (m *Manifest) String() string {
	return fmt.Sprintf("%s v%s", m.Name, m.Version)
}
