package models

import (
	"math"
	"strconv"
	"time"
)

// Float is a scalar that encodes a non-finite value as JSON null
type Float float64

// MarshalJSON implements json.Marshaler
func (f Float) MarshalJSON() ([]byte, error) {
	return appendFloat(nil, float64(f)), nil
}

func appendFloat(buf []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, f, 'g', -1, 64)
}

// Values is a float series that encodes non-finite entries as JSON null
type Values []float64

// MarshalJSON implements json.Marshaler
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, 2+len(v)*8)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendFloat(buf, f)
	}
	return append(buf, ']'), nil
}

// GridStatus describes the loaded random number grid
type GridStatus struct {
	Loaded bool   `json:"loaded"`
	Values int    `json:"values"`
	Paths  int    `json:"paths"`
	Source string `json:"source,omitempty"`
}

// LoadGridRequest points the engine at a grid file
type LoadGridRequest struct {
	Path string `json:"path" binding:"required"`
}

// TermStructureRequest carries the tenor data of a forward curve. Tenors
// end at the first non-positive entry.
type TermStructureRequest struct {
	Forwards     []float64 `json:"forwards" binding:"required"`
	Volatilities []float64 `json:"volatilities" binding:"required"`
	Tenors       []float64 `json:"tenors" binding:"required"`
}

// TermStructure is the public view of a registry slot
type TermStructure struct {
	Handle       int      `json:"handle"`
	Populated    bool     `json:"populated"`
	Assets       int      `json:"assets"`
	Days         Values   `json:"days"`
	Forwards     Values   `json:"forwards"`
	Volatilities Values   `json:"volatilities"`
	Moment1      Values   `json:"moment1"`
	Moment2      Values   `json:"moment2"`
	Factor       []Values `json:"factor,omitempty"`
}

// CalibrationEvent is emitted after every successful calibration
type CalibrationEvent struct {
	ID            string    `json:"id"`
	Handle        int       `json:"handle"`
	Assets        int       `json:"assets"`
	Paths         int       `json:"paths"`
	Moment1       Values    `json:"moment1"`
	Moment2       Values    `json:"moment2"`
	EmpiricalVols Values    `json:"empirical_vols"`
	DurationMs    float64   `json:"duration_ms"`
	Timestamp     time.Time `json:"timestamp"`
}

// Path is one simulated term-structure path
type Path struct {
	Handle int    `json:"handle"`
	Index  int    `json:"index"`
	Levels Values `json:"levels"`
}

// AssetSummary holds the tail statistics of one tenor across all paths
type AssetSummary struct {
	Tenor             float64 `json:"tenor"`
	Forward           float64 `json:"forward"`
	Paths             int     `json:"paths"`
	Mean              float64 `json:"mean"`
	StdDev            float64 `json:"std_dev"`
	Quantile          float64 `json:"quantile"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
}

// SimulationSummary aggregates a full path population
type SimulationSummary struct {
	Handle     int            `json:"handle"`
	Confidence float64        `json:"confidence"`
	Assets     []AssetSummary `json:"assets"`
}

// MatrixRequest carries a square matrix
type MatrixRequest struct {
	Matrix [][]float64 `json:"matrix" binding:"required"`
}

// MatrixResponse carries a factor matrix
type MatrixResponse struct {
	Factor []Values `json:"factor"`
}

// LookupRequest asks for a bilinear table lookup
type LookupRequest struct {
	Table [][]float64 `json:"table" binding:"required"`
	Row   float64     `json:"row"`
	Col   float64     `json:"col"`
}

// ValueResponse wraps a scalar result
type ValueResponse struct {
	Value Float `json:"value"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
