package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cpcf/mirrorgen/engine"
)

func newBuildCmd(o *rootOptions) *cobra.Command {
	var (
		concurrency int
		manifest    bool
		clean       bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every source file into the output directory",
		Long: `Build walks the input directory, renders every source file that is not
excluded and writes it to the mirrored path in the output directory.

A failing file does not stop the others. Every failure is logged and the
command exits non-zero once all files have been attempted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := o.load(cmd)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("concurrency") {
				concurrency = p.host.Concurrency
			}
			if !cmd.Flags().Changed("manifest") {
				manifest = p.host.Manifest
			}

			e := engine.New(p.cfg, p.fs,
				engine.WithLogger(p.logger),
				engine.WithConcurrency(concurrency),
				engine.WithManifest(manifest),
				engine.WithClean(clean),
			)

			report, err := e.Build(cmd.Context())
			if err != nil {
				var multiErr *engine.MultiError
				if !errors.As(err, &multiErr) {
					return err
				}
				for _, fe := range multiErr.Errors {
					p.logger.Error("file failed",
						"input", display(fe.Input),
						"output", display(fe.Output),
						"stage", fe.Stage,
						"error", fe.Err)
				}
				return fmt.Errorf("%w: %d of %d files failed", errBuildFailed,
					len(multiErr.Errors), len(multiErr.Errors)+len(report.Files))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "built %d files (%d bytes) into %s in %s\n",
				len(report.Files), report.Bytes(), display(p.cfg.OutputRoot()), report.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "maximum files rendered at once (0 = one goroutine per file)")
	cmd.Flags().BoolVar(&manifest, "manifest", false, "record written files in "+manifestHint)
	cmd.Flags().BoolVar(&clean, "clean", false, "remove previous output before building")

	return cmd
}
