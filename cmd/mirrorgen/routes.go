package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/cpcf/mirrorgen/engine"
	"github.com/cpcf/mirrorgen/exclude"
	"github.com/cpcf/mirrorgen/paths"
	"github.com/cpcf/mirrorgen/router"
)

func newRoutesCmd(o *rootOptions) *cobra.Command {
	var (
		mount        string
		showExcluded bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the request paths served for each source file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := o.load(cmd)
			if err != nil {
				return err
			}

			rt := router.New(p.cfg, p.fs,
				router.WithMount(firstNonEmpty(mount, p.host.Mount, "/")),
				router.WithLogger(p.logger))

			plan, err := engine.New(p.cfg, p.fs, engine.WithLogger(p.logger)).Plan(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REQUEST\tSOURCE\tOUTPUT")
			for _, c := range plan {
				requestPath := rt.Mount() + outputRel(p.cfg.OutputRoot(), c.OutputPath)
				if _, decision := rt.Resolve(requestPath); decision != router.Render {
					p.logger.Debug("route does not resolve", "path", requestPath, "decision", decision)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", requestPath, display(c.InputPath), display(c.OutputPath))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if !showExcluded {
				return nil
			}
			return listExcluded(cmd, p)
		},
	}

	cmd.Flags().StringVar(&mount, "mount", "", "mount prefix of the served tree (default /)")
	cmd.Flags().BoolVar(&showExcluded, "excluded", false, "also list excluded sources and the pattern hiding each")

	return cmd
}

func listExcluded(cmd *cobra.Command, p *pipeline) error {
	translator := paths.NewTranslator(p.cfg)
	filter := exclude.New(p.cfg)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nEXCLUDED\tPATTERN")
	err := util.Walk(p.fs, p.cfg.InputRoot(), func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		c, ok := translator.FromInput(name)
		if !ok {
			return nil
		}
		if pattern, excluded := filter.Match(c.InputPath); excluded {
			fmt.Fprintf(tw, "%s\t%s\n", display(c.InputPath), pattern)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to list excluded sources: %w", err)
	}
	return tw.Flush()
}

func outputRel(outputRoot, outputPath string) string {
	return strings.TrimPrefix(outputPath, strings.TrimSuffix(outputRoot, "/")+"/")
}
