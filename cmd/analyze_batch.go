package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/claimlens/internal/utils"
	"github.com/spf13/cobra"
)

var (
	abLoad        loadFlags
	abOutDir      string
	abChartsDir   string
	abNoCharts    bool
	abDBPath      string
	abMetricsPath string
	abJSONPath    string
	abMultiplier  float64
	abQuiet       bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX exports with progress and optional history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		out, opt, err := analyzeSettings(cmd, abChartsDir, abNoCharts, abJSONPath, abDBPath, abMetricsPath, abMultiplier)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("json") || cmd.Flags().Changed("metrics") {
			return fmt.Errorf("--json and --metrics are single-file outputs; use analyze per file")
		}
		out.metricsPath = ""
		w := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(w, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := loadTable(cmd, path, &abLoad)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			runOut := out
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if runOut.chartsDir != "" && total > 1 {
				runOut.chartsDir = filepath.Join(runOut.chartsDir, base)
			}
			rep, err := analyzeTable(cmd.Context(), t, opt, runOut)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			md := rep.Markdown()

			if abOutDir == "" {
				if !abQuiet {
					fmt.Fprintln(w, md)
				}
				continue
			}
			outFile := filepath.Join(abOutDir, base+".summary.md")
			if _, statErr := os.Stat(outFile); statErr == nil {
				idx := 2
				for {
					cand := filepath.Join(abOutDir, fmt.Sprintf("%s__%d.summary.md", base, idx))
					if _, err := os.Stat(cand); os.IsNotExist(err) {
						if !abQuiet {
							fmt.Fprintf(w, "⚠ Detected existing summary, writing to %s to avoid overwrite.\n", filepath.Base(cand))
						}
						outFile = cand
						break
					}
					idx++
				}
			}
			if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(w, "✓ Wrote analysis to %s\n", outFile)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "write one <name>.summary.md per input into this directory")
	analyzeBatchCmd.Flags().BoolVarP(&abQuiet, "quiet", "q", false, "suppress progress output")
	registerSinkFlags(analyzeBatchCmd, &abChartsDir, &abNoCharts, &abJSONPath, &abDBPath, &abMetricsPath, &abMultiplier)
	abLoad.register(analyzeBatchCmd)
}
