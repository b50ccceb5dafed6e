package personas

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"wayfarer/internal/persona"
)

//go:embed *.yaml
var presetFS embed.FS

// Load reads a persona preset by name from the embedded YAML files.
// The record is unmarshalled over the neutral default so omitted fields
// keep their documented values, then validated.
func Load(name string) (persona.Profile, error) {
	data, err := presetFS.ReadFile(name + ".yaml")
	if err != nil {
		return persona.Profile{}, fmt.Errorf("persona %q not found (available: %s): %w",
			name, strings.Join(List(), ", "), err)
	}
	return parse(data, name)
}

// LoadFile reads a persona record from a YAML (or JSON) file on disk.
func LoadFile(path string) (persona.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return persona.Profile{}, fmt.Errorf("read persona file: %w", err)
	}
	return parse(data, path)
}

// LoadCohortFile reads a YAML sequence of persona records from disk.
// Each record is decoded over the neutral default and validated, so a
// cohort file only spells out what differs from neutral.
func LoadCohortFile(path string) ([]persona.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cohort file: %w", err)
	}
	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parse cohort file %q: %w", path, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("cohort file %q: no persona records", path)
	}
	out := make([]persona.Profile, 0, len(nodes))
	for i := range nodes {
		p := persona.Default()
		if err := nodes[i].Decode(&p); err != nil {
			return nil, fmt.Errorf("cohort file %q entry %d: %w", path, i, err)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("cohort file %q entry %d: %w", path, i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadAll loads every embedded preset, sorted by name.
func LoadAll() ([]persona.Profile, error) {
	names := List()
	out := make([]persona.Profile, 0, len(names))
	for _, name := range names {
		p, err := Load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// List returns the names of all embedded presets, sorted.
func List() []string {
	entries, _ := presetFS.ReadDir(".")
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(names)
	return names
}

func parse(data []byte, src string) (persona.Profile, error) {
	p := persona.Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return persona.Profile{}, fmt.Errorf("parse persona %q: %w", src, err)
	}
	if err := p.Validate(); err != nil {
		return persona.Profile{}, err
	}
	return p, nil
}
