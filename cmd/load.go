package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/claimlens/internal/analysis"
	"github.com/KaramelBytes/claimlens/internal/chart"
	cfgpkg "github.com/KaramelBytes/claimlens/internal/config"
	"github.com/KaramelBytes/claimlens/internal/dataset"
	"github.com/KaramelBytes/claimlens/internal/metrics"
	"github.com/KaramelBytes/claimlens/internal/store"
	"github.com/KaramelBytes/claimlens/internal/utils"
	"github.com/spf13/cobra"
)

// loadFlags are the input options shared by every command reading a file.
type loadFlags struct {
	delimiter      string
	dropIncomplete bool
	sheetName      string
	sheetIndex     int
}

func (l *loadFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&l.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default by extension)")
	c.Flags().BoolVar(&l.dropIncomplete, "drop-incomplete", false, "drop rows with empty values instead of failing (overrides config)")
	c.Flags().StringVar(&l.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	c.Flags().IntVar(&l.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (l *loadFlags) options(c *cobra.Command) (dataset.LoadOptions, error) {
	opt := dataset.LoadOptions{SheetName: l.sheetName, SheetIndex: l.sheetIndex}
	switch l.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", l.delimiter)
	}
	opt.DropIncomplete = currentConfig().DropIncomplete
	if c.Flags().Changed("drop-incomplete") {
		opt.DropIncomplete = l.dropIncomplete
	}
	return opt, nil
}

func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		cfg = defaultConfig()
	}
	return cfg
}

// stdinPath reads CSV from standard input.
const stdinPath = "-"

// loadTable opens path ("-" for CSV on stdin) and logs what was read.
func loadTable(c *cobra.Command, path string, l *loadFlags) (*dataset.Table, error) {
	opt, err := l.options(c)
	if err != nil {
		return nil, err
	}
	var t *dataset.Table
	if path == stdinPath {
		t, err = dataset.LoadCSV(c.InOrStdin(), "stdin", opt)
	} else {
		t, err = dataset.Open(path, opt)
	}
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded", "path", path, "rows", t.Len(), "read", t.Read, "dropped", t.Dropped)
	if t.Dropped > 0 {
		log.Warn("incomplete rows dropped", "path", path, "dropped", t.Dropped)
	}
	return t, nil
}

// parseFieldFlag resolves --field values, falling back to def.
func parseFieldFlag(names []string, def []dataset.Field) ([]dataset.Field, error) {
	if len(names) == 0 {
		return def, nil
	}
	return dataset.ParseFields(names)
}

// multiplierFor prefers an explicit flag over config.
func multiplierFor(c *cobra.Command, flagValue float64) (float64, error) {
	m := currentConfig().OutlierMultiplier
	if c.Flags().Changed("multiplier") {
		m = flagValue
	}
	if m < 0 {
		return 0, fmt.Errorf("--multiplier must be >= 0, got %v", m)
	}
	return m, nil
}

func chartOptions() (chart.Options, error) {
	c := currentConfig()
	opt := chart.Options{DPI: c.ChartDPI, Workers: c.RenderWorkers, Log: log}
	if strings.TrimSpace(c.FontPath) != "" {
		path, err := utils.ExpandHome(c.FontPath)
		if err != nil {
			return opt, err
		}
		f, err := chart.LoadFont(path)
		if err != nil {
			return opt, fmt.Errorf("could not load chart font: %w", err)
		}
		opt.Font = f
	}
	return opt, nil
}

// renderCharts draws the full catalog into dir and returns written paths.
func renderCharts(ctx context.Context, t *dataset.Table, dir string) ([]string, error) {
	opt, err := chartOptions()
	if err != nil {
		return nil, err
	}
	dir, err = utils.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	results, err := chart.RenderAll(ctx, t, dir, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}
	var paths []string
	for _, r := range results {
		if r.Err == nil {
			paths = append(paths, r.Path)
		}
	}
	return paths, nil
}

// exportSettings are the optional sinks of an analyze run.
type exportSettings struct {
	chartsDir   string // empty disables charts
	jsonPath    string
	dbPath      string // empty disables history
	metricsPath string
}

// analyzeTable builds the report and writes it to every configured sink.
func analyzeTable(ctx context.Context, t *dataset.Table, opt analysis.Options, out exportSettings) (*analysis.Report, error) {
	rep, err := analysis.Build(t, opt)
	if err != nil {
		return nil, err
	}
	for _, w := range rep.Warnings {
		log.Warn(w, "source", rep.Name)
	}
	if out.chartsDir != "" {
		paths, err := renderCharts(ctx, t, out.chartsDir)
		if err != nil {
			return nil, err
		}
		log.Info("charts written", "dir", out.chartsDir, "count", len(paths))
	}
	if out.jsonPath != "" {
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return nil, err
		}
		if err := utils.SafeWriteFile(out.jsonPath, b); err != nil {
			return nil, fmt.Errorf("write json: %w", err)
		}
	}
	if out.metricsPath != "" {
		if err := metrics.WriteFile(out.metricsPath, rep); err != nil {
			return nil, fmt.Errorf("write metrics: %w", err)
		}
	}
	if out.dbPath != "" {
		if _, err := saveRun(out.dbPath, rep); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

func saveRun(dbPath string, rep *analysis.Report) (*store.Run, error) {
	path, err := utils.ExpandHome(dbPath)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(path, log)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.SaveReport(rep)
}

func writeJSON(c *cobra.Command, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.OutOrStdout(), string(b))
	return err
}
