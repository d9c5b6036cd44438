package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cpcf/mirrorgen/state"
)

var manifestHint = "<output>/" + state.ManifestName

func newCleanCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove generated output",
		Long: `Clean removes what earlier builds wrote. When the output directory holds a
build manifest only the recorded files are removed, so files placed there
by hand survive. Without a manifest the whole output directory is removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := o.load(cmd)
			if err != nil {
				return err
			}

			summary, err := state.Clean(p.fs, p.cfg.OutputRoot(), p.cfg.InputRoot())
			if err != nil {
				return err
			}

			p.logger.Debug("cleaned output", "root", p.cfg.OutputRoot(), "mode", summary.Mode)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d files and %d directories from %s (%s)\n",
				summary.FilesDeleted, summary.DirsDeleted, display(p.cfg.OutputRoot()), summary.Mode)
			return nil
		},
	}
}
