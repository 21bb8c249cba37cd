package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/uptimectlhq/uptimectl/pkg/types"
)

// Manifest is the declarative input: the full set of monitors the caller
// wants converged in one run.
type Manifest struct {
	Monitors []types.MonitorSpec `yaml:"monitors"`
}

// Load reads and validates a monitor manifest. Validation here covers only
// what can be rejected without talking to the remote service.
func Load(ctx context.Context, path string) (Manifest, error) {
	var m Manifest

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return m, fmt.Errorf("open manifest %q: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return m, fmt.Errorf("parse manifest %q: %w", path, err)
	}

	if len(m.Monitors) == 0 {
		return m, fmt.Errorf("manifest %q declares no monitors", path)
	}
	for i, spec := range m.Monitors {
		if err := spec.Validate(); err != nil {
			return m, fmt.Errorf("manifest %q monitor %d (%s): %w", path, i, spec.DisplayName(), err)
		}
	}

	return m, nil
}
