package cmd

import (
	"fmt"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	grpLoad      loadFlags
	grpBy        []string
	grpField     string
	grpCanonical bool
	grpJSON      bool
)

var groupCmd = &cobra.Command{
	Use:   "group <file>",
	Short: "Aggregate a field by one or two categorical dimensions",
	Example: `  claimlens group claims.csv --by claim_status --field video_view_count
  claimlens group claims.csv --by claim,ban --field likes_per_view --canonical`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dims := make([]dataset.Dimension, 0, len(grpBy))
		for _, b := range grpBy {
			d, err := dataset.ParseDimension(b)
			if err != nil {
				return err
			}
			dims = append(dims, d)
		}
		f, err := dataset.ParseField(grpField)
		if err != nil {
			return err
		}
		t, err := loadTable(cmd, args[0], &grpLoad)
		if err != nil {
			return err
		}
		m, err := analysis.GroupBy(t, dims, f, analysis.GroupOptions{Canonical: grpCanonical})
		if err != nil {
			return err
		}
		if grpJSON {
			return writeJSON(cmd, m)
		}
		verb := "%.2f"
		for _, rf := range dataset.RateFields {
			if f == rf {
				verb = "%.6f"
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), analysis.GroupText(m, verb))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groupCmd)
	groupCmd.Flags().StringSliceVar(&grpBy, "by", []string{string(dataset.ClaimDim)}, "one or two dimensions: claim_status, author_ban_status, verified_status")
	groupCmd.Flags().StringVar(&grpField, "field", string(dataset.Views), "numeric field to aggregate")
	groupCmd.Flags().BoolVar(&grpCanonical, "canonical", false, "list every canonical group, including empty ones")
	groupCmd.Flags().BoolVar(&grpJSON, "json", false, "print JSON instead of text")
	grpLoad.register(groupCmd)
}
