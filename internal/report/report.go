// Package report loads the property summary shown once a parcel has been
// handed off: valuation, ROI, flood zone and disaster risk, fetched side
// by side.
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/logging"
	"github.com/abelbrown/parcelscout/internal/otel"
	"github.com/abelbrown/parcelscout/internal/validate"
)

// Fetcher is the subset of *api.Client a Loader needs.
type Fetcher interface {
	Valuation(ctx context.Context, parcelID string) (api.PropertyValuation, error)
	ROIPotential(ctx context.Context, parcelID string) (api.PropertyROI, error)
	FloodRisk(ctx context.Context, parcelID string) ([]api.FloodZone, error)
	DisasterRisks(ctx context.Context, parcelID string) ([]api.DisasterRisk, error)
}

// Report is the summary for one parcel. Each section loads on its own;
// a failed section leaves its pointer nil and records the error.
type Report struct {
	ParcelID  string                 `json:"parcel_id"`
	Valuation *api.PropertyValuation `json:"valuation,omitempty"`
	ROI       *api.PropertyROI       `json:"roi,omitempty"`
	Flood     []api.FloodZone        `json:"flood_risk,omitempty"`
	Disasters []api.DisasterRisk     `json:"disaster_risks,omitempty"`
	LoadedAt  time.Time              `json:"loaded_at"`

	ValuationErr error `json:"-"`
	ROIErr       error `json:"-"`
	FloodErr     error `json:"-"`
	DisasterErr  error `json:"-"`
}

// Complete reports whether every section loaded.
func (r Report) Complete() bool {
	return r.Valuation != nil && r.ROI != nil && r.Flood != nil && r.Disasters != nil
}

// Err returns the first section error, or nil.
func (r Report) Err() error {
	for _, err := range []error{r.ValuationErr, r.ROIErr, r.FloodErr, r.DisasterErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// FloodZone returns the record to headline: the first special hazard
// area, else the first record.
func (r Report) FloodZone() (api.FloodZone, bool) {
	for _, z := range r.Flood {
		if z.SpecialHazard() {
			return z, true
		}
	}
	if len(r.Flood) > 0 {
		return r.Flood[0], true
	}
	return api.FloodZone{}, false
}

// Hazards returns the scored perils of the first disaster record.
func (r Report) Hazards() []api.Hazard {
	if len(r.Disasters) == 0 {
		return nil
	}
	return r.Disasters[0].Hazards()
}

// ROIPercent is the ROI potential, or 0 when unknown.
func (r Report) ROIPercent() float64 {
	if r.ROI == nil || r.ROI.ROIPotentialPercent == nil {
		return 0
	}
	return float64(*r.ROI.ROIPotentialPercent)
}

// MarketValue prefers the valuation's figure and falls back to the ROI's.
func (r Report) MarketValue() float64 {
	if r.Valuation != nil && r.Valuation.MarketValue > 0 {
		return float64(r.Valuation.MarketValue)
	}
	if r.ROI != nil {
		return float64(r.ROI.MarketValue)
	}
	return 0
}

// MonthlyIncome estimates monthly cash flow from ROI and market value.
func (r Report) MonthlyIncome() float64 {
	return math.Round(r.ROIPercent() / 100 * r.MarketValue() / 12)
}

// Rating buckets an ROI percentage.
func Rating(roi float64) string {
	switch {
	case roi >= 8:
		return "Excellent"
	case roi >= 5:
		return "Good"
	}
	return "Fair"
}

// Loader fetches reports.
type Loader struct {
	fetcher Fetcher
	events  otel.Emitter
	timeout time.Duration
}

// DefaultTimeout bounds one Load.
const DefaultTimeout = 15 * time.Second

// NewLoader creates a Loader. timeout <= 0 uses DefaultTimeout.
func NewLoader(f Fetcher, events otel.Emitter, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{fetcher: f, events: events, timeout: timeout}
}

// Load fetches all sections concurrently. Section failures are
// recorded on the Report; the returned error is non-nil only when the
// id is invalid, ctx ends, or every section failed.
func (l *Loader) Load(ctx context.Context, parcelID string) (Report, error) {
	if !validate.ParcelID(parcelID) {
		return Report{}, apperr.Validation(api.MsgNoValidParcelID).WithOp("report.load")
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	rep := Report{ParcelID: parcelID}

	// Section errors are kept per section, so no goroutine fails the group.
	var g errgroup.Group
	g.Go(func() error {
		v, err := l.fetcher.Valuation(ctx, parcelID)
		if err != nil {
			rep.ValuationErr = err
			return nil
		}
		rep.Valuation = &v
		return nil
	})
	g.Go(func() error {
		roi, err := l.fetcher.ROIPotential(ctx, parcelID)
		if err != nil {
			rep.ROIErr = err
			return nil
		}
		rep.ROI = &roi
		return nil
	})
	g.Go(func() error {
		zones, err := l.fetcher.FloodRisk(ctx, parcelID)
		if err != nil {
			rep.FloodErr = err
			return nil
		}
		rep.Flood = zones
		return nil
	})
	g.Go(func() error {
		risks, err := l.fetcher.DisasterRisks(ctx, parcelID)
		if err != nil {
			rep.DisasterErr = err
			return nil
		}
		rep.Disasters = risks
		return nil
	})
	_ = g.Wait()
	rep.LoadedAt = time.Now()

	if err := ctx.Err(); err != nil && !rep.Complete() {
		return rep, apperr.Canceled(err)
	}
	if rep.Valuation == nil && rep.ROI == nil && rep.Flood == nil && rep.Disasters == nil {
		err := rep.Err()
		logging.Warn("report load failed", "parcel", parcelID, "err", err)
		l.events.Since(start, otel.Event{Kind: otel.KindReportError, Level: otel.LevelWarn, ParcelID: parcelID, Err: err.Error()})
		return rep, fmt.Errorf("load report %s: %w", parcelID, err)
	}

	ev := otel.Event{Kind: otel.KindReportLoad, ParcelID: parcelID}
	if !rep.Complete() {
		ev.Level = otel.LevelWarn
		ev.Err = rep.Err().Error()
	}
	l.events.Since(start, ev)
	return rep, nil
}
