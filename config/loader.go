package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Validator defines an interface that configuration types can implement
// to provide custom validation logic
type Validator interface {
	Validate() error
}

// LoadYAML loads any YAML configuration into the provided target struct.
// If the target implements the Validator interface, validation will be called.
func LoadYAML[T any](path string, target *T) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("configuration file does not exist: %s: %w", absPath, err)
		}
		return fmt.Errorf("failed to read configuration file %q: %w", absPath, err)
	}

	return decode(data, target)
}

// LoadYAMLFromString loads YAML configuration from a string instead of a file.
func LoadYAMLFromString[T any](yamlContent string, target *T) error {
	return decode([]byte(yamlContent), target)
}

func decode[T any](data []byte, target *T) error {
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return nil
}

// Raw is an undecoded configuration document. The pipeline fields are
// checked by FromMap; everything else is host settings.
type Raw map[string]any

// ReadFile loads a YAML configuration file. Relative input and output roots
// are resolved against the directory holding the file.
func ReadFile(path string) (Raw, error) {
	var raw Raw
	if err := LoadYAML(path, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		raw = Raw{}
	}

	dir := filepath.Dir(path)
	for _, key := range []string{"input", "output"} {
		if p, ok := raw[key].(string); ok && p != "" && !filepath.IsAbs(p) {
			raw[key] = filepath.Join(dir, p)
		}
	}
	return raw, nil
}

// HostSettings are the settings of the process hosting the pipeline rather
// than of the pipeline itself.
type HostSettings struct {
	Mount       string   `yaml:"mount"`
	Addr        string   `yaml:"addr"`
	Static      string   `yaml:"static"`
	Concurrency int      `yaml:"concurrency"`
	Manifest    bool     `yaml:"manifest"`
	PostProcess []string `yaml:"postprocess"`
}

func (h *HostSettings) Validate() error {
	if h.Mount != "" && h.Mount[0] != '/' {
		return fmt.Errorf("mount %q must start with /", h.Mount)
	}
	if h.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", h.Concurrency)
	}
	return nil
}

// Host decodes the host settings held in r.
func (r Raw) Host() (HostSettings, error) {
	var host HostSettings
	settings := make(map[string]any, len(r))
	for key, value := range r {
		if _, pipeline := pipelineFields[key]; !pipeline {
			settings[key] = value
		}
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return host, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := decode(data, &host); err != nil {
		return host, err
	}
	return host, nil
}

// LoadFile reads a configuration file and builds both the pipeline Config
// and the host settings it carries.
func LoadFile(path string, renderers RendererLookup) (*Config, HostSettings, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return nil, HostSettings{}, err
	}
	cfg, err := FromMap(raw, renderers)
	if err != nil {
		return nil, HostSettings{}, err
	}
	host, err := raw.Host()
	if err != nil {
		return nil, HostSettings{}, err
	}
	return cfg, host, nil
}
