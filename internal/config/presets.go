package config

import (
	"fmt"
	"os"
	"strings"

	"agentdash/internal/errors"

	"gopkg.in/yaml.v3"
)

// Preset is a named query template offered to users
type Preset struct {
	Name        string `yaml:"name" json:"name"`
	Template    string `yaml:"template" json:"template"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// DefaultPresets are offered when no presets file is configured
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "definition", Template: "What is {entity}", Description: "General definition"},
		{Name: "headquarters", Template: "Where is {entity} headquartered?"},
		{Name: "founded", Template: "When was {entity} founded?"},
		{Name: "news", Template: "{entity} latest news"},
	}
}

// LoadPresets reads presets from a YAML file shaped as
//
//	presets:
//	  - name: definition
//	    template: "What is {entity}"
//
// An empty path returns DefaultPresets.
func LoadPresets(path string) ([]Preset, error) {
	if path == "" {
		return DefaultPresets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read presets file %s", path)
	}
	return ParsePresets(data)
}

// ParsePresets decodes and validates preset YAML
func ParsePresets(data []byte) ([]Preset, error) {
	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.Wrap(err, "failed to parse presets YAML")
	}

	seen := make(map[string]bool, len(pf.Presets))
	for i, p := range pf.Presets {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("preset %d has no name", i))
		}
		if strings.TrimSpace(p.Template) == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("preset %q has no template", name))
		}
		if seen[name] {
			return nil, errors.ConfigInvalid(fmt.Sprintf("preset %q defined twice", name))
		}
		seen[name] = true
		pf.Presets[i].Name = name
	}
	if len(pf.Presets) == 0 {
		return DefaultPresets(), nil
	}
	return pf.Presets, nil
}

// FindPreset looks a preset up by name
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
