package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cpcf/mirrorgen/render"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return path
}

func TestLoadYAML_HostSettings(t *testing.T) {
	path := writeConfig(t, "mirrorgen.yaml", `
mount: /docs
addr: ":4000"
concurrency: 8
manifest: true
postprocess: [trim-newline, goimports]
`)

	var host HostSettings
	if err := LoadYAML(path, &host); err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	if host.Mount != "/docs" {
		t.Errorf("Expected mount '/docs', got '%s'", host.Mount)
	}
	if host.Addr != ":4000" {
		t.Errorf("Expected addr ':4000', got '%s'", host.Addr)
	}
	if host.Concurrency != 8 {
		t.Errorf("Expected concurrency 8, got %d", host.Concurrency)
	}
	if !host.Manifest {
		t.Error("Expected manifest to be enabled")
	}
	if len(host.PostProcess) != 2 || host.PostProcess[1] != "goimports" {
		t.Errorf("Unexpected postprocess list: %v", host.PostProcess)
	}
}

func TestLoadYAML_WithValidation_Failure(t *testing.T) {
	path := writeConfig(t, "bad.yaml", "mount: docs\n")

	var host HostSettings
	err := LoadYAML(path, &host)
	if err == nil {
		t.Fatal("Expected validation error for relative mount, got nil")
	}

	expectedError := `configuration validation failed: mount "docs" must start with /`
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
	}
}

func TestLoadYAML_FileNotExists(t *testing.T) {
	var raw Raw
	err := LoadYAML("/nonexistent/mirrorgen.yaml", &raw)
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}

func TestLoadYAML_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid.yaml", "invalid: yaml: content: [")

	var raw Raw
	if err := LoadYAML(path, &raw); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoadYAMLFromString_Validation(t *testing.T) {
	var host HostSettings
	err := LoadYAMLFromString("concurrency: -2\n", &host)
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "concurrency must not be negative") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestReadFile_ResolvesRoots(t *testing.T) {
	path := writeConfig(t, "mirrorgen.yaml", `
input: site/src
inputExt: md
output: /var/www/out
outputExt: html
render: markdown
`)
	dir := filepath.Dir(path)

	raw, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if raw["input"] != filepath.Join(dir, "site/src") {
		t.Errorf("Expected input resolved against %s, got %v", dir, raw["input"])
	}
	if raw["output"] != "/var/www/out" {
		t.Errorf("Absolute output should be kept, got %v", raw["output"])
	}
}

func TestReadFile_Empty(t *testing.T) {
	path := writeConfig(t, "empty.yaml", "")

	raw, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if raw == nil || len(raw) != 0 {
		t.Errorf("Expected empty document, got %v", raw)
	}
}

func TestRaw_HostIgnoresPipelineFields(t *testing.T) {
	raw := Raw{
		"input":    "src",
		"render":   func(src []byte, filename string) ([]byte, error) { return src, nil },
		"mount":    "/preview",
		"manifest": true,
	}

	host, err := raw.Host()
	if err != nil {
		t.Fatalf("Host failed: %v", err)
	}
	if host.Mount != "/preview" || !host.Manifest {
		t.Errorf("Unexpected host settings: %+v", host)
	}
}

type rendererMap map[string]render.Renderer

func (m rendererMap) Get(name string) (render.Renderer, bool) {
	r, ok := m[name]
	return r, ok
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "mirrorgen.yaml", `
input: pages
inputExt: .md
outputExt: html
exclude: []
render: copy
mount: /docs
concurrency: 4
`)
	dir := filepath.Dir(path)

	cfg, host, err := LoadFile(path, rendererMap{"copy": render.Copy})
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.InputRoot() != filepath.ToSlash(filepath.Join(dir, "pages")) {
		t.Errorf("Unexpected input root %q", cfg.InputRoot())
	}
	if cfg.InputExt() != "md" {
		t.Errorf("Expected leading dot stripped, got %q", cfg.InputExt())
	}
	if cfg.OutputRoot() != "dist" {
		t.Errorf("Expected default output root, got %q", cfg.OutputRoot())
	}
	if len(cfg.Exclude()) != 0 {
		t.Errorf("Explicit empty exclude should be kept, got %v", cfg.Exclude())
	}
	if host.Mount != "/docs" || host.Concurrency != 4 {
		t.Errorf("Unexpected host settings: %+v", host)
	}
}

func TestLoadFile_UnknownRenderer(t *testing.T) {
	path := writeConfig(t, "mirrorgen.yaml", "inputExt: md\noutputExt: html\nrender: pandoc\n")

	_, _, err := LoadFile(path, rendererMap{})

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "render" {
		t.Fatalf("Expected render ConfigError, got %v", err)
	}
}
