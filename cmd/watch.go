package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/claimlens/internal/dataset"
	"github.com/KaramelBytes/claimlens/internal/utils"
	"github.com/spf13/cobra"
)

var (
	wLoad        loadFlags
	wOutputPath  string
	wChartsDir   string
	wNoCharts    bool
	wJSONPath    string
	wDBPath      string
	wMetricsPath string
	wMultiplier  float64
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-run the analysis every time the export is rewritten (Ctrl-C to stop)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if path == stdinPath {
			return fmt.Errorf("watch needs a file path, not stdin")
		}
		opt, err := wLoad.options(cmd)
		if err != nil {
			return err
		}
		out, aopt, err := analyzeSettings(cmd, wChartsDir, wNoCharts, wJSONPath, wDBPath, wMetricsPath, wMultiplier)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := cmd.OutOrStdout()
		runs := 0
		onLoad := func(t *dataset.Table) {
			rep, err := analyzeTable(ctx, t, aopt, out)
			if err != nil {
				log.Error("analysis failed, keeping previous report", "path", path, "error", err)
				return
			}
			runs++
			md := rep.Markdown()
			if wOutputPath != "" {
				if err := utils.SafeWriteFile(wOutputPath, []byte(md)); err != nil {
					log.Error("write output failed", "path", wOutputPath, "error", err)
					return
				}
				fmt.Fprintf(w, "✓ [%s] run %d: %d rows → %s\n", time.Now().Format("15:04:05"), runs, rep.Rows, wOutputPath)
				return
			}
			fmt.Fprintln(w, md)
		}
		onError := func(err error) {
			log.Warn("reload failed, keeping previous report", "path", path, "error", err)
		}
		log.Info("watching for changes", "path", path)
		return dataset.Watch(ctx, path, opt, onLoad, onError)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&wOutputPath, "output", "o", "", "rewrite this Markdown file on every run instead of printing")
	registerSinkFlags(watchCmd, &wChartsDir, &wNoCharts, &wJSONPath, &wDBPath, &wMetricsPath, &wMultiplier)
	wLoad.register(watchCmd)
}
