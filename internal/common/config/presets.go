package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"campus-map/internal/viewport"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Map Presets
// ============================================================

// Preset описывает именованную карту: документ, селектор и параметры viewport.
type Preset struct {
	Name      string          `yaml:"name" json:"name"`
	Src       string          `yaml:"src" json:"src"`
	Selector  string          `yaml:"selector" json:"selector,omitempty"`
	ClassName string          `yaml:"class_name" json:"className,omitempty"`
	Viewport  viewport.Config `yaml:"viewport" json:"viewport"`
}

type presetFile struct {
	Maps []Preset `yaml:"maps"`
}

type Presets map[string]Preset

// LoadPresets читает YAML со списком карт. Пустой путь или отсутствующий файл дают пустой набор.
func LoadPresets(path string) (Presets, error) {
	presets := Presets{}
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return presets, nil
		}
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return ParsePresets(data)
}

func ParsePresets(data []byte) (Presets, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	presets := make(Presets, len(file.Maps))
	for i, p := range file.Maps {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: name required", i)
		}
		if strings.TrimSpace(p.Src) == "" {
			return nil, fmt.Errorf("preset %q: src required", p.Name)
		}
		if _, dup := presets[p.Name]; dup {
			return nil, fmt.Errorf("preset %q: duplicate name", p.Name)
		}
		if err := p.Viewport.WithDefaults().Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		presets[p.Name] = p
	}
	return presets, nil
}
