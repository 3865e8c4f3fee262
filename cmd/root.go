package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/claimlens/internal/config"
	"github.com/KaramelBytes/claimlens/internal/logger"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	// Process logger; stderr only so reports on stdout stay pipeable
	log = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "claimlens",
	Short: "ClaimLens: exploratory analytics for short-video claim classification data",
	Long: `ClaimLens loads a video claims export (CSV/TSV/XLSX), describes its engagement
metrics, compares claims against opinions and author ban status, counts outliers,
correlates engagement with claim status and renders the standard EDA charts.
Commands reading a single export accept "-" to read CSV from standard input.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.claimlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console | json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c

	format := cfg.LogFormat
	if rootCmd.PersistentFlags().Changed("log-format") {
		format = logFormat
	}
	l, err := logger.New(format, debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to init logger: %v\n", err)
		return
	}
	log = l
	log.Debug("config loaded", "config", cfgFile, "charts_dir", cfg.ChartsDir, "db_path", cfg.DBPath)
}

// defaultConfig mirrors config.Load defaults without touching disk.
func defaultConfig() *cfgpkg.Global {
	return &cfgpkg.Global{
		ChartsDir:         "charts",
		ChartDPI:          100,
		RenderWorkers:     4,
		OutlierMultiplier: 1.5,
		LogFormat:         "console",
	}
}
