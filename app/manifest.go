package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/ariscan/domain"
	"github.com/ludo-technologies/ariscan/internal/constants"
)

// Manifest is the parsed dependency manifest of an acquired repository
type Manifest struct {
	// Name is the declared package name
	Name string `json:"name"`

	// Version is the declared package version
	Version string `json:"version"`

	// Scripts are the declared run scripts
	Scripts map[string]string `json:"scripts"`
}

// ReadManifest loads and parses the manifest inside the workspace. A missing
// or unparseable manifest rejects the run.
func ReadManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, constants.ManifestFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewInvalidManifestError(
			constants.ManifestFileName+" not found in repository", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, domain.NewInvalidManifestError(
			constants.ManifestFileName+" is not valid JSON", err)
	}

	return &manifest, nil
}

// HasTestScript reports whether the manifest declares a real test script.
// The npm init placeholder does not count.
func (m *Manifest) HasTestScript() bool {
	script, ok := m.Scripts["test"]
	if !ok {
		return false
	}
	script = strings.TrimSpace(script)
	if script == "" {
		return false
	}
	return !strings.Contains(script, "no test specified")
}
