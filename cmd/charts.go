package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/claimlens/internal/chart"
	"github.com/spf13/cobra"
)

var (
	chLoad loadFlags
	chDir  string
	chOnly []string
	chList bool
)

var chartsCmd = &cobra.Command{
	Use:   "charts <file>",
	Short: "Render the EDA charts as PNG files",
	Args: func(cmd *cobra.Command, args []string) error {
		if chList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if chList {
			for _, a := range chart.Catalog() {
				fmt.Fprintln(w, a.Name)
			}
			return nil
		}
		var artifacts []chart.Artifact
		for _, name := range chOnly {
			a, ok := chart.Lookup(strings.TrimSpace(name))
			if !ok {
				return fmt.Errorf("unknown chart %q (see charts --list)", name)
			}
			artifacts = append(artifacts, a)
		}
		t, err := loadTable(cmd, args[0], &chLoad)
		if err != nil {
			return err
		}
		dir := chDir
		if dir == "" {
			dir = currentConfig().ChartsDir
		}
		opt, err := chartOptions()
		if err != nil {
			return err
		}
		results, err := chart.RenderAll(cmd.Context(), t, dir, artifacts, opt)
		if err != nil {
			return err
		}
		written := 0
		for _, r := range results {
			switch {
			case r.Err == nil:
				written++
				fmt.Fprintf(w, "✓ %s\n", r.Path)
			case errors.Is(r.Err, chart.ErrSkipped):
				fmt.Fprintf(w, "⚠ skipped %s: %v\n", r.Name, r.Err)
			}
		}
		fmt.Fprintf(w, "Wrote %d/%d charts to %s\n", written, len(results), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartsCmd)
	chartsCmd.Flags().StringVar(&chDir, "dir", "", "output directory (overrides config charts_dir)")
	chartsCmd.Flags().StringSliceVar(&chOnly, "only", nil, "render only these charts (repeatable)")
	chartsCmd.Flags().BoolVar(&chList, "list", false, "list chart names and exit")
	chLoad.register(chartsCmd)
}
