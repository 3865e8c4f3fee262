package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	descLoad    loadFlags
	descFields  []string
	descByClaim bool
	descJSON    bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Print count, mean, std, min, quartiles and max per numeric field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd, args[0], &descLoad)
		if err != nil {
			return err
		}
		fields, err := parseFieldFlag(descFields, dataset.AllFields())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if descByClaim {
			if !cmd.Flags().Changed("field") {
				fields = dataset.CountFields
			}
			parts := analysis.DescribeByClaim(t, fields)
			if descJSON {
				return writeJSON(cmd, parts)
			}
			for _, p := range parts {
				fmt.Fprintf(w, "[SUMMARY STATISTICS: %s (n=%d)]\n", strings.ToUpper(string(p.Status)), p.Rows)
				fmt.Fprint(w, analysis.SummaryText(p.Fields))
			}
			return nil
		}
		sums := analysis.DescribeFields(t, fields)
		if descJSON {
			return writeJSON(cmd, sums)
		}
		fmt.Fprintf(w, "[DESCRIPTIVE STATISTICS] %s (rows=%d)\n", t.Name, t.Len())
		fmt.Fprint(w, analysis.SummaryText(sums))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringSliceVarP(&descFields, "field", "f", nil, "fields to describe (repeatable; default all)")
	describeCmd.Flags().BoolVar(&descByClaim, "by-claim", false, "describe claims and opinions separately")
	describeCmd.Flags().BoolVar(&descJSON, "json", false, "print JSON instead of text")
	descLoad.register(describeCmd)
}
