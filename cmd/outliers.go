package cmd

import (
	"fmt"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	outLoad       loadFlags
	outFields     []string
	outMultiplier float64
	outJSON       bool
)

var outliersCmd = &cobra.Command{
	Use:   "outliers <file>",
	Short: "Count values above median + multiplier*IQR per field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseFieldFlag(outFields, dataset.CountFields)
		if err != nil {
			return err
		}
		m, err := multiplierFor(cmd, outMultiplier)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd, args[0], &outLoad)
		if err != nil {
			return err
		}
		res, err := analysis.CountOutliersFields(t, fields, m)
		if err != nil {
			return err
		}
		if outJSON {
			return writeJSON(cmd, res)
		}
		w := cmd.OutOrStdout()
		for _, o := range res {
			fmt.Fprintf(w, "Number of outliers, %s: %d (%.2f%%) threshold=%.4g (median %.4g + %g*IQR %.4g)\n",
				o.Field, o.Count, o.Percent(), o.Threshold, o.Median, o.Multiplier, o.IQR)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outliersCmd)
	outliersCmd.Flags().StringSliceVarP(&outFields, "field", "f", nil, "fields to check (repeatable; default the engagement counts)")
	outliersCmd.Flags().Float64Var(&outMultiplier, "multiplier", analysis.DefaultOutlierMultiplier, "IQR multiplier above the median (overrides config)")
	outliersCmd.Flags().BoolVar(&outJSON, "json", false, "print JSON instead of text")
	outLoad.register(outliersCmd)
}
