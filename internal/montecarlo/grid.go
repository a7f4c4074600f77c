package montecarlo

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// gridCapacity is the number of draws a grid holds.
const gridCapacity = MaxAssets * MaxSimulationPaths

// Grid is a flat, read-only cache of pre-generated random draws shared by
// every term structure. Row i holds the MaxAssets draws of simulation i.
type Grid struct {
	draws []float64
	count int
	log   *logger.Logger
}

// NewGrid creates an empty grid
func NewGrid() *Grid {
	return &Grid{
		log: logger.GetLogger("montecarlo.grid"),
	}
}

// LoadFile loads the grid from a delimited file. See Load.
func (g *Grid) LoadFile(path string) error {
	if g.Loaded() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.WithType(errors.Wrapf(err, "open grid source %s", path), errors.ErrorTypeResourceUnavailable)
	}
	defer f.Close()

	return g.Load(f)
}

// Load parses a header-prefixed, comma-delimited numeric source into the
// grid. The header record is discarded, every later record is flattened in
// reading order, and values past capacity are dropped. A grid that is
// already loaded is left untouched.
func (g *Grid) Load(r io.Reader) error {
	if g.Loaded() {
		g.log.Debug("Grid already loaded, skipping")
		return nil
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return errors.InvalidArgument("grid source is empty")
		}
		return errors.WithType(errors.Wrap(err, "read grid header"), errors.ErrorTypeResourceUnavailable)
	}

	draws := make([]float64, gridCapacity)
	count := 0
	truncated := false

	for !truncated {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.WithType(errors.Wrap(err, "read grid record"), errors.ErrorTypeResourceUnavailable)
		}

		for i, field := range record {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			if count == gridCapacity {
				truncated = true
				break
			}

			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				line, _ := reader.FieldPos(i)
				return errors.WithType(errors.Wrapf(err, "parse grid value on line %d", line), errors.ErrorTypeInvalidArgument)
			}
			draws[count] = value
			count++
		}
	}

	if truncated {
		g.log.Debugf("Grid source exceeds capacity of %d values, remainder dropped", gridCapacity)
	}

	g.draws = draws
	g.count = count
	g.log.Infof("Loaded %d grid values (%d complete paths)", count, count/MaxAssets)

	return nil
}

// Loaded reports whether the grid buffer has been populated
func (g *Grid) Loaded() bool {
	return g.draws != nil
}

// Count returns the number of values read from the source
func (g *Grid) Count() int {
	return g.count
}

// Draw returns the draw for a simulation index and asset position
func (g *Grid) Draw(index, asset int) (float64, error) {
	if !g.Loaded() {
		return 0, errors.ResourceUnavailable("grid is not loaded")
	}
	if index < 0 || index >= MaxSimulationPaths {
		return 0, errors.Newf(errors.ErrorTypeOutOfRange, "grid index %d outside [0, %d)", index, MaxSimulationPaths)
	}
	if asset < 0 || asset >= MaxAssets {
		return 0, errors.Newf(errors.ErrorTypeOutOfRange, "asset position %d outside [0, %d)", asset, MaxAssets)
	}
	return g.draws[index*MaxAssets+asset], nil
}

// row returns the first n draws of a grid row. The caller checks bounds.
func (g *Grid) row(index, n int) []float64 {
	offset := index * MaxAssets
	return g.draws[offset : offset+n]
}

// Destroy releases the grid buffer
func (g *Grid) Destroy() {
	if !g.Loaded() {
		return
	}
	g.draws = nil
	g.count = 0
	g.log.Info("Grid released")
}
