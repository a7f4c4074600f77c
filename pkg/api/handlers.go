package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rzzdr/quant-analytics/internal/engine"
	"github.com/rzzdr/quant-analytics/internal/interpolation"
	"github.com/rzzdr/quant-analytics/internal/montecarlo"
	"github.com/rzzdr/quant-analytics/pkg/metrics"
	"github.com/rzzdr/quant-analytics/pkg/models"
	"github.com/rzzdr/quant-analytics/pkg/utils/errors"
	"github.com/rzzdr/quant-analytics/pkg/utils/logger"
)

// DefaultSummaryConfidence is used when a summary request names none
const DefaultSummaryConfidence = 0.95

// Handlers contains the HTTP handlers of the Monte Carlo engine
type Handlers struct {
	engine   *engine.Engine
	recorder *metrics.Recorder
	log      *logger.Logger
}

// NewHandlers creates new API handlers
func NewHandlers(eng *engine.Engine, recorder *metrics.Recorder) *Handlers {
	return &Handlers{
		engine:   eng,
		recorder: recorder,
		log:      logger.GetLogger("api.handlers"),
	}
}

// HealthCheckHandler handles health check requests
func (h *Handlers) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"timestamp":       time.Now().Format(time.RFC3339),
		"grid_loaded":     h.engine.GridStatus().Loaded,
		"term_structures": h.engine.TermStructureCount(),
	})
}

// GetGridHandler reports the state of the random number grid
func (h *Handlers) GetGridHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.GridStatus())
}

// LoadGridHandler loads the grid from a file on the server
func (h *Handlers) LoadGridHandler(c *gin.Context) {
	var req models.LoadGridRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.engine.LoadGridFile(req.Path); err != nil {
		h.log.Errorf("Failed to load grid from %s: %v", req.Path, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.engine.GridStatus())
}

// UploadGridHandler loads the grid from a CSV request body
func (h *Handlers) UploadGridHandler(c *gin.Context) {
	if err := h.engine.LoadGrid(c.Request.Body, "upload"); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.engine.GridStatus())
}

// ReleaseGridHandler drops the loaded grid
func (h *Handlers) ReleaseGridHandler(c *gin.Context) {
	h.engine.ReleaseGrid()
	c.Status(http.StatusNoContent)
}

// CreateTermStructureHandler allocates and populates a term structure
func (h *Handlers) CreateTermStructureHandler(c *gin.Context) {
	var req models.TermStructureRequest
	if !bindJSON(c, &req) {
		return
	}

	handle, err := h.engine.CreateTermStructure(req.Forwards, req.Volatilities, req.Tenors)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondTermStructure(c, http.StatusCreated, handle)
}

// GetTermStructureHandler returns a term structure
func (h *Handlers) GetTermStructureHandler(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	h.respondTermStructure(c, http.StatusOK, handle)
}

// UpdateTermStructureHandler replaces the data of a term structure
func (h *Handlers) UpdateTermStructureHandler(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	var req models.TermStructureRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.engine.PopulateTermStructure(handle, req.Forwards, req.Volatilities, req.Tenors); err != nil {
		respondError(c, err)
		return
	}

	h.respondTermStructure(c, http.StatusOK, handle)
}

// DeleteTermStructureHandler frees a term structure
func (h *Handlers) DeleteTermStructureHandler(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	if err := h.engine.ReleaseTermStructure(handle); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CalibrateHandler runs moment matching on a term structure
func (h *Handlers) CalibrateHandler(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	event, err := h.engine.Calibrate(c.Request.Context(), handle, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// SimulatePathHandler returns one simulated path
func (h *Handlers) SimulatePathHandler(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, errors.Newf(errors.ErrorTypeInvalidArgument, "invalid path index %q", c.Param("index")))
		return
	}

	path, err := h.engine.Simulate(handle, index, "api")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.Path{
		Handle: int(handle),
		Index:  index,
		Levels: models.Values(path.Active()),
	})
}

// SummaryHandler simulates every path and reports per-tenor tail statistics
func (h *Handlers) SummaryHandler(c *gin.Context) {
	handle, ok := handleParam(c)
	if !ok {
		return
	}

	confidence := DefaultSummaryConfidence
	if raw := c.Query("confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, errors.Newf(errors.ErrorTypeInvalidArgument, "invalid confidence %q", raw))
			return
		}
		confidence = v
	}

	summary, err := h.engine.Summarize(handle, confidence)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// DecomposeHandler returns the Cholesky factor of a matrix
func (h *Handlers) DecomposeHandler(c *gin.Context) {
	var req models.MatrixRequest
	if !bindJSON(c, &req) {
		return
	}

	factor, err := montecarlo.Decompose(req.Matrix)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.MatrixResponse{Factor: make([]models.Values, len(factor))}
	for i, row := range factor {
		resp.Factor[i] = row
	}
	c.JSON(http.StatusOK, resp)
}

// LookupHandler interpolates a two-way table
func (h *Handlers) LookupHandler(c *gin.Context) {
	var req models.LookupRequest
	if !bindJSON(c, &req) {
		return
	}

	v, err := interpolation.Lookup(req.Table, req.Row, req.Col)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ValueResponse{Value: models.Float(v)})
}

func (h *Handlers) respondTermStructure(c *gin.Context, status int, handle montecarlo.Handle) {
	ts, err := h.engine.TermStructure(handle)
	if err != nil {
		respondError(c, err)
		return
	}

	view := models.TermStructure{
		Handle:       int(handle),
		Populated:    ts.Populated(),
		Assets:       ts.Assets(),
		Days:         ts.Days,
		Forwards:     ts.Forwards,
		Volatilities: ts.Volatilities,
		Moment1:      ts.Moment1,
		Moment2:      ts.Moment2,
	}
	if c.Query("factor") == "true" {
		view.Factor = make([]models.Values, len(ts.Factor))
		for i, row := range ts.Factor {
			view.Factor[i] = row
		}
	}
	c.JSON(status, view)
}

func handleParam(c *gin.Context) (montecarlo.Handle, bool) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, errors.Newf(errors.ErrorTypeInvalidArgument, "invalid term structure handle %q", raw))
		return 0, false
	}
	return montecarlo.Handle(id), true
}
