package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString decodes from a JSON string or number. Backend ids arrive as
// either.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*s = FlexString(n.String())
	return nil
}

// Number decodes from a JSON number, a numeric string, or null. Report
// endpoints send money and percentages in both shapes.
type Number float64

// UnmarshalJSON implements json.Unmarshaler. Unparseable strings decode to
// zero rather than failing the whole payload.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// AddressSuggestion is one candidate returned by address search, in the
// backend's relevance order.
type AddressSuggestion struct {
	ID               FlexString      `json:"id"`
	Address          string          `json:"address"`
	AddressDisplay   string          `json:"address_display,omitempty"`
	FormattedAddress string          `json:"formattedAddress,omitempty"`
	City             string          `json:"city,omitempty"`
	State            string          `json:"state,omitempty"`
	ZipCode          string          `json:"zipCode,omitempty"`
	Country          string          `json:"country,omitempty"`
	DataInternal     json.RawMessage `json:"data_internal,omitempty"`
}

// Display returns the string sent for parcel resolution: the first
// non-empty of address_display, formattedAddress, address.
func (s AddressSuggestion) Display() string {
	for _, v := range []string{s.AddressDisplay, s.FormattedAddress, s.Address} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Locality joins city, state and zip for secondary display.
func (s AddressSuggestion) Locality() string {
	var parts []string
	if s.City != "" {
		parts = append(parts, s.City)
	}
	if s.State != "" {
		parts = append(parts, s.State)
	}
	loc := strings.Join(parts, ", ")
	if s.ZipCode != "" {
		if loc != "" {
			loc += " "
		}
		loc += s.ZipCode
	}
	return loc
}

type addressSearchResponse struct {
	Suggestions []AddressSuggestion `json:"suggestions"`
}

type parcelIDResponse struct {
	ParcelID FlexString `json:"parcel_id" validate:"required,parcelid"`
	Message  string     `json:"message,omitempty"`
}

// Status is the backend processing state for a parcel.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusNotFound  Status = "not_found"
)

// Terminal reports whether s ends polling.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusNotFound
}

// DefaultTotalSteps is assumed when the backend omits total_scripts.
const DefaultTotalSteps = 11

// ProcessingStatus is one status endpoint response.
type ProcessingStatus struct {
	ParcelID      string  `json:"parcel_id"`
	Status        Status  `json:"status"`
	Message       string  `json:"message,omitempty"`
	Progress      *Number `json:"progress,omitempty"`
	CurrentScript string  `json:"current_script,omitempty"`
	TotalScripts  int     `json:"total_scripts,omitempty"`
	CompletedAt   string  `json:"completed_at,omitempty"`
}

// ProgressPercent returns progress clamped to [0, 100], or 0 when absent.
func (p ProcessingStatus) ProgressPercent() float64 {
	if p.Progress == nil {
		return 0
	}
	v := float64(*p.Progress)
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// PropertyValuation is the comparable-sales valuation for a parcel.
type PropertyValuation struct {
	ParcelID           string `json:"parcel_id"`
	AvgSalePrice       Number `json:"avg_sale_price"`
	RangeLow           Number `json:"range_low"`
	RangeHigh          Number `json:"range_high"`
	NumComps           Number `json:"num_comps"`
	MedianPricePerSqft Number `json:"media_price_per_sqft"`
	MarketValue        Number `json:"market_value"`
	CalculatedAt       string `json:"calculated_at"`
}

// PropertyROI is the return-on-investment estimate for a parcel.
type PropertyROI struct {
	ParcelID                string  `json:"parcel_id"`
	PotentialRentIncome     Number  `json:"potential_rent_income"`
	EstimatedRenovationCost Number  `json:"estimated_renovation_cost"`
	EstimatedEvictionCost   Number  `json:"estimated_eviction_cost"`
	MarketValue             Number  `json:"market_value"`
	NetAnnualIncome         Number  `json:"net_annual_income"`
	ROIPotentialPercent     *Number `json:"roi_potential_percent,omitempty"`
	RangeLow                Number  `json:"range_low"`
	RangeHigh               Number  `json:"range_high"`
	CalculatedAt            string  `json:"calculated_at"`
	NumComps                Number  `json:"num_comps"`
	MarketPositionScore     *Number `json:"market_position_score,omitempty"`
	MarketPosition          string  `json:"market_position,omitempty"`
	VsNeighborhoodPercent   *Number `json:"market_position_vs_neighborhood_percent,omitempty"`
	VsNeighborhoodLabel     string  `json:"market_position_vs_neighborhood_label,omitempty"`
	RiskCategory            string  `json:"risk_category,omitempty"`
}

// roiWire is the raw ROI payload. Older backends send roi_percent and
// market_position_percent/category instead of the current names.
type roiWire struct {
	ParcelID                string  `json:"parcel_id"`
	PotentialRentIncome     Number  `json:"potential_rent_income"`
	EstimatedRenovationCost Number  `json:"estimated_renovation_cost"`
	EstimatedEvictionCost   Number  `json:"estimated_eviction_cost"`
	MarketValue             Number  `json:"market_value"`
	NetAnnualIncome         Number  `json:"net_annual_income"`
	ROIPotentialPercent     *Number `json:"roi_potential_percent"`
	ROIPercent              *Number `json:"roi_percent"`
	RangeLow                Number  `json:"range_low"`
	RangeHigh               Number  `json:"range_high"`
	CalculatedAt            string  `json:"calculated_at"`
	NumComps                Number  `json:"num_comps"`
	MarketPositionPercent   *Number `json:"market_position_percent"`
	MarketPositionCategory  string  `json:"market_position_category"`
	VsNeighborhoodPercent   *Number `json:"market_position_vs_neighborhood_percent"`
	VsNeighborhoodLabel     string  `json:"market_position_vs_neighborhood_label"`
	RiskCategory            string  `json:"risk_category"`
}

func (w roiWire) toROI() PropertyROI {
	roi := PropertyROI{
		ParcelID:                w.ParcelID,
		PotentialRentIncome:     w.PotentialRentIncome,
		EstimatedRenovationCost: w.EstimatedRenovationCost,
		EstimatedEvictionCost:   w.EstimatedEvictionCost,
		MarketValue:             w.MarketValue,
		NetAnnualIncome:         w.NetAnnualIncome,
		ROIPotentialPercent:     w.ROIPotentialPercent,
		RangeLow:                w.RangeLow,
		RangeHigh:               w.RangeHigh,
		CalculatedAt:            w.CalculatedAt,
		NumComps:                w.NumComps,
		MarketPositionScore:     w.MarketPositionPercent,
		MarketPosition:          w.MarketPositionCategory,
		VsNeighborhoodPercent:   w.VsNeighborhoodPercent,
		VsNeighborhoodLabel:     w.VsNeighborhoodLabel,
		RiskCategory:            w.RiskCategory,
	}
	if roi.ROIPotentialPercent == nil {
		roi.ROIPotentialPercent = w.ROIPercent
	}
	return roi
}

// FloodZone is one flood-map record covering a parcel.
type FloodZone struct {
	ParcelID      string `json:"parcel_id"`
	Zone          string `json:"fld_zone,omitempty"`
	SFHA          string `json:"sfha_tf,omitempty"`
	ZoneSubtype   string `json:"zone_subty,omitempty"`
	FIRMPanel     string `json:"firm_pan"`
	EffectiveDate string `json:"eff_date,omitempty"`
	Community     string `json:"comm_name,omitempty"`
}

// SpecialHazard reports whether the record lies in a special flood
// hazard area.
func (z FloodZone) SpecialHazard() bool {
	return strings.EqualFold(strings.TrimSpace(z.SFHA), "T")
}

// DisasterRisk holds the fire, tornado and hurricane indices for a parcel.
type DisasterRisk struct {
	ParcelID        string `json:"parcel_id"`
	FireValue       Number `json:"fire_value"`
	FireScore       Number `json:"fire_score"`
	FireRating      string `json:"fire_rating,omitempty"`
	TornadoValue    Number `json:"tornado_value"`
	TornadoScore    Number `json:"tornado_score"`
	TornadoRating   string `json:"tornado_rating,omitempty"`
	HurricaneValue  Number `json:"hurricane_value"`
	HurricaneScore  Number `json:"hurricane_score"`
	HurricaneRating string `json:"hurricane_rating,omitempty"`
}

// Hazard is one scored peril.
type Hazard struct {
	Name   string
	Score  float64
	Rating string
}

// Hazards lists fire, tornado and hurricane, skipping perils the backend
// left blank.
func (d DisasterRisk) Hazards() []Hazard {
	all := []Hazard{
		{"Fire", float64(d.FireScore), d.FireRating},
		{"Tornado", float64(d.TornadoScore), d.TornadoRating},
		{"Hurricane", float64(d.HurricaneScore), d.HurricaneRating},
	}
	out := all[:0]
	for _, h := range all {
		if h.Score != 0 || h.Rating != "" {
			out = append(out, h)
		}
	}
	return out
}
