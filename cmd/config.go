package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/claimlens/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ClaimLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "charts_dir: %s\n", c.ChartsDir)
		fmt.Fprintf(w, "chart_dpi: %g\n", c.ChartDPI)
		if c.FontPath != "" {
			fmt.Fprintf(w, "font_path: %s\n", c.FontPath)
		}
		fmt.Fprintf(w, "render_workers: %d\n", c.RenderWorkers)
		fmt.Fprintf(w, "outlier_multiplier: %g\n", c.OutlierMultiplier)
		fmt.Fprintf(w, "drop_incomplete: %t\n", c.DropIncomplete)
		fmt.Fprintf(w, "db_path: %s\n", c.DBPath)
		if c.MetricsPath != "" {
			fmt.Fprintf(w, "metrics_path: %s\n", c.MetricsPath)
		}
		fmt.Fprintf(w, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		next := *cfg
		switch key {
		case "charts_dir":
			next.ChartsDir = val
		case "chart_dpi":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid float for chart_dpi: %v", val)
			}
			next.ChartDPI = f
		case "font_path":
			next.FontPath = val
		case "render_workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for render_workers: %v", val)
			}
			next.RenderWorkers = i
		case "outlier_multiplier":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for outlier_multiplier: %v", val)
			}
			next.OutlierMultiplier = f
		case "drop_incomplete":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for drop_incomplete: %w", err)
			}
			next.DropIncomplete = b
		case "db_path":
			next.DBPath = val
		case "metrics_path":
			next.MetricsPath = val
		case "log_format":
			switch strings.ToLower(val) {
			case "console", "json":
				next.LogFormat = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid log_format: %s (use console or json)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
