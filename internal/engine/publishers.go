package engine

import (
	"context"
	stderrors "errors"

	"github.com/rzzdr/quant-analytics/pkg/models"
)

// Publishers fans a calibration out to several publishers. Every publisher
// is tried; the failures are joined.
type Publishers []CalibrationPublisher

// PublishCalibration implements CalibrationPublisher
func (ps Publishers) PublishCalibration(ctx context.Context, event *models.CalibrationEvent) error {
	var errs []error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.PublishCalibration(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
