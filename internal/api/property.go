package api

import (
	"context"
	"net/url"
	"strings"

	"github.com/abelbrown/parcelscout/internal/apperr"
)

// Valuation fetches the comparable-sales valuation for parcelID.
func (c *Client) Valuation(ctx context.Context, parcelID string) (PropertyValuation, error) {
	id := strings.TrimSpace(parcelID)
	if id == "" {
		return PropertyValuation{}, apperr.Validation(MsgParcelIDRequired).WithOp("api.valuation")
	}
	var v PropertyValuation
	if err := c.getJSON(ctx, "api.valuation", PathValuation+url.PathEscape(id), nil, &v); err != nil {
		return PropertyValuation{}, err
	}
	return v, nil
}

// ROIPotential fetches the ROI estimate for parcelID.
func (c *Client) ROIPotential(ctx context.Context, parcelID string) (PropertyROI, error) {
	id := strings.TrimSpace(parcelID)
	if id == "" {
		return PropertyROI{}, apperr.Validation(MsgParcelIDRequired).WithOp("api.roi")
	}
	var w roiWire
	if err := c.getJSON(ctx, "api.roi", PathROIPotential+url.PathEscape(id), nil, &w); err != nil {
		return PropertyROI{}, err
	}
	return w.toROI(), nil
}

// FloodRisk fetches the flood-map records for parcelID. A parcel outside
// every mapped zone yields an empty slice.
func (c *Client) FloodRisk(ctx context.Context, parcelID string) ([]FloodZone, error) {
	id := strings.TrimSpace(parcelID)
	if id == "" {
		return nil, apperr.Validation(MsgParcelIDRequired).WithOp("api.flood")
	}
	var zones []FloodZone
	if err := c.getJSON(ctx, "api.flood", PathFloodRisk+url.PathEscape(id), nil, &zones); err != nil {
		return nil, err
	}
	if zones == nil {
		zones = []FloodZone{}
	}
	return zones, nil
}

// DisasterRisks fetches the fire, tornado and hurricane indices for
// parcelID.
func (c *Client) DisasterRisks(ctx context.Context, parcelID string) ([]DisasterRisk, error) {
	id := strings.TrimSpace(parcelID)
	if id == "" {
		return nil, apperr.Validation(MsgParcelIDRequired).WithOp("api.disasters")
	}
	var risks []DisasterRisk
	if err := c.getJSON(ctx, "api.disasters", PathDisasterRisk+url.PathEscape(id), nil, &risks); err != nil {
		return nil, err
	}
	if risks == nil {
		risks = []DisasterRisk{}
	}
	return risks, nil
}
