package cmd

import (
	"fmt"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaLoad        loadFlags
	anaOutputPath  string
	anaChartsDir   string
	anaNoCharts    bool
	anaJSONPath    string
	anaDBPath      string
	anaMetricsPath string
	anaMultiplier  float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run the full exploratory analysis of a claims export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		t, err := loadTable(cmd, path, &anaLoad)
		if err != nil {
			return err
		}
		out, opt, err := analyzeSettings(cmd, anaChartsDir, anaNoCharts, anaJSONPath, anaDBPath, anaMetricsPath, anaMultiplier)
		if err != nil {
			return err
		}
		rep, err := analyzeTable(cmd.Context(), t, opt, out)
		if err != nil {
			return err
		}
		md := rep.Markdown()
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), md)
		}
		if out.chartsDir != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Charts written to %s\n", out.chartsDir)
		}
		if out.dbPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Run saved to %s\n", out.dbPath)
		}
		return nil
	},
}

// analyzeSettings merges sink flags with config. --db without a value
// uses the configured db_path.
func analyzeSettings(cmd *cobra.Command, chartsDir string, noCharts bool, jsonPath, dbPath, metricsPath string, multiplier float64) (exportSettings, analysis.Options, error) {
	c := currentConfig()
	out := exportSettings{jsonPath: jsonPath, metricsPath: c.MetricsPath}
	if !noCharts {
		out.chartsDir = c.ChartsDir
		if chartsDir != "" {
			out.chartsDir = chartsDir
		}
	}
	if cmd.Flags().Changed("metrics") {
		out.metricsPath = metricsPath
	}
	if cmd.Flags().Changed("db") {
		out.dbPath = dbPath
		if dbPath == defaultDBFlag {
			out.dbPath = c.DBPath
		}
		if out.dbPath == "" {
			return out, analysis.Options{}, fmt.Errorf("--db: no database path configured")
		}
	}
	opt := analysis.DefaultOptions()
	m, err := multiplierFor(cmd, multiplier)
	if err != nil {
		return out, opt, err
	}
	opt.OutlierMultiplier = m
	return out, opt, nil
}

// defaultDBFlag is the value --db takes when given without "=path".
const defaultDBFlag = "default"

func registerSinkFlags(c *cobra.Command, chartsDir *string, noCharts *bool, jsonPath, dbPath, metricsPath *string, multiplier *float64) {
	c.Flags().StringVar(chartsDir, "charts-dir", "", "directory for chart PNGs (overrides config charts_dir)")
	c.Flags().BoolVar(noCharts, "no-charts", false, "skip chart rendering")
	c.Flags().StringVar(jsonPath, "json", "", "also write the report as JSON to this path")
	c.Flags().StringVar(dbPath, "db", "", "store the run in SQLite history (--db uses config db_path, --db=path overrides)")
	c.Flags().Lookup("db").NoOptDefVal = defaultDBFlag
	c.Flags().StringVar(metricsPath, "metrics", "", "write a Prometheus textfile to this path (overrides config metrics_path)")
	c.Flags().Float64Var(multiplier, "multiplier", analysis.DefaultOutlierMultiplier, "outlier fence: median + multiplier*IQR (overrides config)")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	registerSinkFlags(analyzeCmd, &anaChartsDir, &anaNoCharts, &anaJSONPath, &anaDBPath, &anaMetricsPath, &anaMultiplier)
	anaLoad.register(analyzeCmd)
}
