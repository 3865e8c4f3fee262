package cmd

import (
	"fmt"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	corLoad   loadFlags
	corFields []string
	corJSON   bool
)

var correlateCmd = &cobra.Command{
	Use:   "correlate <file>",
	Short: "Correlate the claim indicator (claim=1, opinion=0) with engagement fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFieldFlag(corFields, analysis.DefaultCorrelationFields)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd, args[0], &corLoad)
		if err != nil {
			return err
		}
		res, err := analysis.ClaimCorrelations(t, fields)
		if err != nil {
			return err
		}
		if corJSON {
			return writeJSON(cmd, res)
		}
		w := cmd.OutOrStdout()
		for _, c := range res {
			if !c.R.Valid {
				log.Warn("correlation undefined", "field", c.Field, "n", c.N)
			}
			fmt.Fprintf(w, "%s: r=%s (n=%d)\n", c.Field, c.R.Text("%.6f"), c.N)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(correlateCmd)
	correlateCmd.Flags().StringSliceVarP(&corFields, "field", "f", nil, "fields to correlate (repeatable; default views, likes, shares, comments)")
	correlateCmd.Flags().BoolVar(&corJSON, "json", false, "print JSON instead of text")
	corLoad.register(correlateCmd)
}
