// Command gridgen writes a grid of independent standard normal draws in the
// CSV layout the simulation engine loads.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rzzdr/quant-analytics/internal/montecarlo"
)

var (
	outFile = flag.String("out", "", "Output file, stdout when empty")
	seed    = flag.Uint64("seed", 1, "Seed of the generator")
	paths   = flag.Int("paths", montecarlo.MaxSimulationPaths, "Number of rows")
	assets  = flag.Int("assets", montecarlo.MaxAssets, "Number of columns")
)

func main() {
	flag.Parse()

	out := io.Writer(os.Stdout)
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gridgen: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := generate(out, *seed, *paths, *assets); err != nil {
		fmt.Fprintf(os.Stderr, "gridgen: %v\n", err)
		os.Exit(1)
	}
}

func generate(out io.Writer, seed uint64, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("grid dimensions %dx%d must be positive", rows, cols)
	}
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}

	w := bufio.NewWriter(out)
	for j := 0; j < cols; j++ {
		if j > 0 {
			w.WriteByte(',')
		}
		w.WriteString("z" + strconv.Itoa(j))
	}
	w.WriteByte('\n')

	buf := make([]byte, 0, 32)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if j > 0 {
				w.WriteByte(',')
			}
			buf = strconv.AppendFloat(buf[:0], dist.Rand(), 'g', -1, 64)
			w.Write(buf)
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}
