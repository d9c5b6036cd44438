package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/cpcf/mirrorgen/config"
	"github.com/cpcf/mirrorgen/paths"
	"github.com/cpcf/mirrorgen/processors"
	"github.com/cpcf/mirrorgen/render"
)

// defaultConfigFile is read from the working directory when --config is
// not given.
const defaultConfigFile = "mirrorgen.yaml"

type rootOptions struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	input      string
	inputExt   string
	output     string
	outputExt  string
	renderer   string
	exclude    []string
	verbose    bool
}

// pipeline is everything a command needs after configuration is resolved.
type pipeline struct {
	cfg    *config.Config
	host   config.HostSettings
	fs     billy.Filesystem
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &rootOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "mirrorgen",
		Short: "Render a source tree into a mirrored output tree",
		Long: `mirrorgen maps every source file below an input directory to an output
file at the same relative path with a different extension, rendering its
content on the way.

Settings are read from mirrorgen.yaml (or --config) and overridden by flags.

Usage:
  mirrorgen build            render every source file to disk
  mirrorgen serve            render on request, falling back to static files
  mirrorgen routes           list request paths and their sources
  mirrorgen clean            remove generated output`,
		SilenceUsage: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "configuration file (default ./"+defaultConfigFile+" when present)")
	flags.StringVar(&o.input, "input", "", "source directory (default "+config.DefaultInput+")")
	flags.StringVar(&o.inputExt, "input-ext", "", "source file extension, e.g. md")
	flags.StringVar(&o.output, "output", "", "output directory (default "+config.DefaultOutput+")")
	flags.StringVar(&o.outputExt, "output-ext", "", "output file extension, e.g. html")
	flags.StringVar(&o.renderer, "render", "", "renderer name, one of: "+rendererNames())
	flags.StringSliceVar(&o.exclude, "exclude", nil, "exclusion glob, relative to the input directory (repeatable)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "log debug output")

	cmd.AddCommand(
		newBuildCmd(o),
		newServeCmd(o),
		newRoutesCmd(o),
		newCleanCmd(o),
	)

	return cmd
}

func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(o.stderr, &slog.HandlerOptions{Level: level}))
}

// load resolves the configuration file, applies flag overrides and builds
// the pipeline on the host filesystem.
func (o *rootOptions) load(cmd *cobra.Command) (*pipeline, error) {
	logger := o.logger()

	raw := config.Raw{}
	configPath := o.configPath
	if configPath == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			configPath = defaultConfigFile
		}
	}
	if configPath != "" {
		var err error
		if raw, err = config.ReadFile(configPath); err != nil {
			return nil, err
		}
		logger.Debug("loaded configuration", "path", configPath)
	}

	flags := cmd.Flags()
	overrides := []struct {
		flag  string
		key   string
		value any
	}{
		{"input", "input", o.input},
		{"input-ext", "inputExt", o.inputExt},
		{"output", "output", o.output},
		{"output-ext", "outputExt", o.outputExt},
		{"exclude", "exclude", o.exclude},
		{"render", "render", o.renderer},
	}
	for _, ov := range overrides {
		if flags.Changed(ov.flag) {
			raw[ov.key] = ov.value
		}
	}

	// The host filesystem is rooted at "/", so both roots must be absolute.
	for key, def := range map[string]string{"input": config.DefaultInput, "output": config.DefaultOutput} {
		value, present := raw[key]
		p, isString := value.(string)
		if present && value != nil && !isString {
			continue
		}
		if p == "" {
			p = def
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory %q: %w", key, p, err)
		}
		raw[key] = filepath.ToSlash(abs)
	}

	fs := osfs.New("/")
	cfg, err := config.FromMap(raw, render.DefaultRegistry(fs))
	if err != nil {
		return nil, err
	}

	host, err := raw.Host()
	if err != nil {
		return nil, err
	}

	chain, err := processors.NewChain(host.PostProcess...)
	if err != nil {
		return nil, &config.ConfigError{Field: "postprocess", Reason: err.Error()}
	}
	if chain.HasProcessors() {
		translator := paths.NewTranslator(cfg)
		outputName := func(inputPath string) string {
			if out, ok := translator.ToOutputPath(inputPath); ok {
				return out
			}
			return inputPath
		}
		if cfg, err = cfg.WithRenderer(render.WithPostProcess(cfg.Renderer(), chain, outputName)); err != nil {
			return nil, err
		}
	}

	logger.Debug("resolved pipeline",
		"input", cfg.InputRoot(),
		"inputExt", cfg.InputExt(),
		"output", cfg.OutputRoot(),
		"outputExt", cfg.OutputExt(),
		"exclude", cfg.Exclude(),
		"postprocess", host.PostProcess)

	return &pipeline{cfg: cfg, host: host, fs: fs, logger: logger}, nil
}

// display shortens p to a path relative to the working directory when p
// lies below it.
func display(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(wd, filepath.FromSlash(p))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return filepath.ToSlash(rel)
}

func rendererNames() string {
	var names []string
	for _, meta := range render.DefaultRegistry(nil).List() {
		names = append(names, meta.Name)
	}
	return strings.Join(names, ", ")
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var errBuildFailed = errors.New("build failed")
