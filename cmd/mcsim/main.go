// Command mcsim builds a term structure from flags, calibrates it against a
// grid of normal draws and prints the simulated tail statistics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"

	"github.com/rzzdr/quant-analytics/internal/engine"
	"github.com/rzzdr/quant-analytics/internal/montecarlo"
	"github.com/rzzdr/quant-analytics/pkg/models"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

var (
	gridFile   = flag.String("grid", "./data/grid.csv", "Path to the grid CSV")
	forwards   = flag.String("forwards", "100,100", "Comma separated forward levels")
	vols       = flag.String("vols", "0.20,0.25", "Comma separated annualised volatilities")
	tenors     = flag.String("tenors", "30,90", "Comma separated tenors in days")
	calibrate  = flag.Bool("calibrate", true, "Match moments before summarising")
	confidence = flag.Float64("confidence", 0.95, "Confidence of the lower tail")
	showPaths  = flag.Int("paths", 0, "Print the first n simulated paths")
	asJSON     = flag.Bool("json", false, "Print the summary as JSON")
	quiet      = flag.Bool("quiet", false, "Hide the progress bar")
	logLevel   = flag.String("log-level", "warn", "Log level")
)

func main() {
	flag.Parse()
	logger.Init(*logLevel, "development")

	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "mcsim: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer) error {
	f, err := parseList("forwards", *forwards)
	if err != nil {
		return err
	}
	v, err := parseList("vols", *vols)
	if err != nil {
		return err
	}
	t, err := parseList("tenors", *tenors)
	if err != nil {
		return err
	}

	eng := engine.New(1)
	defer eng.Close()

	if err := eng.LoadGridFile(*gridFile); err != nil {
		return err
	}
	h, err := eng.CreateTermStructure(f, v, t)
	if err != nil {
		return err
	}

	if *calibrate {
		var progress func(done, total int)
		if !*quiet {
			bar := progressBar(montecarlo.TotalPaths, "calibrating")
			progress = func(done, _ int) { _ = bar.Set(done) }
			defer bar.Close()
		}
		event, err := eng.Calibrate(context.Background(), h, progress)
		if err != nil {
			return err
		}
		if !*asJSON {
			printCalibration(out, event)
		}
	}

	for i := 0; i < *showPaths && i < montecarlo.TotalPaths; i++ {
		path, err := eng.Simulate(h, i, "cli")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "path %4d: %s\n", i, formatLevels(path.Active()))
	}

	summary, err := eng.Summarize(h, *confidence)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return printSummary(out, summary)
}

func parseList(name, raw string) ([]float64, error) {
	fields := strings.Split(raw, ",")
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		x, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("-%s: %q is not a number", name, field)
		}
		out = append(out, x)
	}
	return out, nil
}

func progressBar(length int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		length,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(0),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func formatLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = strconv.FormatFloat(l, 'f', 4, 64)
	}
	return strings.Join(parts, " ")
}

func printCalibration(out io.Writer, event *models.CalibrationEvent) {
	fmt.Fprintf(out, "calibrated %d tenors over %d paths in %.1fms\n", event.Assets, event.Paths, event.DurationMs)
	fmt.Fprintf(out, "  moment1: %s\n", formatLevels(event.Moment1))
	fmt.Fprintf(out, "  moment2: %s\n", formatLevels(event.Moment2))
}

func printSummary(out io.Writer, summary *models.SimulationSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "tenor\tforward\tpaths\tmean\tstd dev\tq(%.0f%%)\tES\t\n", 100*(1-summary.Confidence))
	for _, a := range summary.Assets {
		fmt.Fprintf(w, "%g\t%.4f\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			a.Tenor, a.Forward, a.Paths, a.Mean, a.StdDev, a.Quantile, a.ExpectedShortfall)
	}
	return w.Flush()
}
