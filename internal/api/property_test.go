package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/parcelscout/internal/apperr"
)

func TestValuationCoercesStrings(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/property_valuation/SPR-0042", r.URL.Path)
		w.Write([]byte(`{"parcel_id":"SPR-0042","avg_sale_price":"310000","range_low":290000,
			"range_high":"335000.5","num_comps":"7","media_price_per_sqft":"182.4",
			"market_value":305000,"calculated_at":"2026-01-02T03:04:05Z"}`))
	})

	v, err := c.Valuation(context.Background(), "SPR-0042")
	require.NoError(t, err)
	assert.Equal(t, Number(310000), v.AvgSalePrice)
	assert.Equal(t, Number(335000.5), v.RangeHigh)
	assert.Equal(t, Number(7), v.NumComps)
	assert.Equal(t, Number(182.4), v.MedianPricePerSqft)
}

func TestROIPercentFallback(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *float64
	}{
		{"current field", `{"roi_potential_percent":"12.5","roi_percent":3}`, ptr(12.5)},
		{"legacy field", `{"roi_percent":"8"}`, ptr(8)},
		{"neither", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			roi, err := c.ROIPotential(context.Background(), "SPR-0042")
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, roi.ROIPotentialPercent)
				return
			}
			require.NotNil(t, roi.ROIPotentialPercent)
			assert.Equal(t, *tt.want, float64(*roi.ROIPotentialPercent))
		})
	}
}

func TestROIMarketPositionMapping(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"market_position_percent":"7.5","market_position_category":"above"}`))
	})
	roi, err := c.ROIPotential(context.Background(), "SPR-0042")
	require.NoError(t, err)
	require.NotNil(t, roi.MarketPositionScore)
	assert.Equal(t, Number(7.5), *roi.MarketPositionScore)
	assert.Equal(t, "above", roi.MarketPosition)
}

func TestPropertyGettersEscapeID(t *testing.T) {
	var gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{}`))
	})
	_, err := c.Valuation(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/api/property_valuation/a%2Fb", gotPath)
}

func TestFloodRisk(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/property_flood_risk/SPR-0042", r.URL.Path)
		w.Write([]byte(`[{"parcel_id":"SPR-0042","fld_zone":"AE","sfha_tf":"T","firm_pan":"41039C1143F","comm_name":"Springfield"},
			{"parcel_id":"SPR-0042","fld_zone":"X","sfha_tf":"F","firm_pan":"41039C1143F"}]`))
	})

	zones, err := c.FloodRisk(context.Background(), "SPR-0042")
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "AE", zones[0].Zone)
	assert.True(t, zones[0].SpecialHazard())
	assert.False(t, zones[1].SpecialHazard())
}

func TestFloodRiskNullIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	})
	zones, err := c.FloodRisk(context.Background(), "SPR-0042")
	require.NoError(t, err)
	assert.NotNil(t, zones)
	assert.Empty(t, zones)
}

func TestDisasterRisksCoerceAndSkipBlank(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/property_disasters_risks/SPR-0042", r.URL.Path)
		w.Write([]byte(`[{"parcel_id":"SPR-0042","fire_score":"18","fire_rating":"Low","tornado_score":4,"tornado_rating":"Very Low"}]`))
	})

	risks, err := c.DisasterRisks(context.Background(), "SPR-0042")
	require.NoError(t, err)
	require.Len(t, risks, 1)
	assert.Equal(t, []Hazard{
		{Name: "Fire", Score: 18, Rating: "Low"},
		{Name: "Tornado", Score: 4, Rating: "Very Low"},
	}, risks[0].Hazards())
}

func TestRiskGettersRequireID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.FloodRisk(context.Background(), " ")
	assert.True(t, apperr.IsValidation(err))
	_, err = c.DisasterRisks(context.Background(), "")
	assert.True(t, apperr.IsValidation(err))
}

func ptr(f float64) *float64 { return &f }
