package mockapi

import "github.com/abelbrown/parcelscout/internal/api"

func pct(v float64) *api.Number {
	n := api.Number(v)
	return &n
}

func running(p float64, script, msg string) api.ProcessingStatus {
	return api.ProcessingStatus{Status: api.StatusRunning, Progress: pct(p), CurrentScript: script, TotalScripts: api.DefaultTotalSteps, Message: msg}
}

// Fixtures returns the demo data set. The Springfield entry is the
// canonical happy path: two running polls then completion.
func Fixtures() []Property {
	return []Property{
		{
			Suggestion: api.AddressSuggestion{
				ID:             "1",
				Address:        "742 Evergreen Terrace",
				AddressDisplay: "742 Evergreen Terrace, Springfield",
				City:           "Springfield",
				State:          "OR",
				ZipCode:        "97477",
				Country:        "US",
			},
			ParcelID: "SPR-0042",
			Statuses: []api.ProcessingStatus{
				running(10, "property_location", "executando: property_location"),
				running(55, "flood_risk", "Checking county flood maps"),
				{Status: api.StatusCompleted, Progress: pct(100), TotalScripts: api.DefaultTotalSteps, CompletedAt: "2025-06-01T12:00:00Z"},
			},
			Valuation: api.PropertyValuation{
				AvgSalePrice: 341000, RangeLow: 318000, RangeHigh: 372000,
				NumComps: 7, MedianPricePerSqft: 212, MarketValue: 356000,
				CalculatedAt: "2025-06-01T12:00:00Z",
			},
			ROI: api.PropertyROI{
				PotentialRentIncome: 2100, EstimatedRenovationCost: 18000,
				EstimatedEvictionCost: 0, MarketValue: 356000, NetAnnualIncome: 21400,
				ROIPotentialPercent: pct(6.01), RangeLow: 318000, RangeHigh: 372000,
				NumComps: 7, MarketPositionScore: pct(48), MarketPosition: "Fair",
				RiskCategory: "Low", CalculatedAt: "2025-06-01T12:00:00Z",
			},
			Flood: []api.FloodZone{
				{Zone: "X", SFHA: "F", ZoneSubtype: "0.2 PCT ANNUAL CHANCE FLOOD HAZARD", FIRMPanel: "41039C1143F", EffectiveDate: "2019-06-14", Community: "Springfield"},
				{Zone: "AE", SFHA: "T", FIRMPanel: "41039C1143F", EffectiveDate: "2019-06-14", Community: "Springfield"},
			},
			Disasters: []api.DisasterRisk{{
				FireValue: 0.12, FireScore: 18, FireRating: "Low",
				TornadoValue: 0.03, TornadoScore: 4, TornadoRating: "Very Low",
			}},
		},
		{
			Suggestion: api.AddressSuggestion{
				ID:               "2",
				Address:          "744 Evergreen Terrace",
				FormattedAddress: "744 Evergreen Terrace, Springfield",
				City:             "Springfield",
				State:            "OR",
			},
			ParcelID: "SPR-0044",
			Statuses: []api.ProcessingStatus{
				running(30, "tax_records", ""),
				running(80, "schools", ""),
				{Status: api.StatusCompleted, Progress: pct(100)},
			},
			Valuation: api.PropertyValuation{MarketValue: 298000, NumComps: 4},
			ROI:       api.PropertyROI{MarketValue: 298000, ROIPotentialPercent: pct(8.4)},
			Flood:     []api.FloodZone{{Zone: "X", SFHA: "F", FIRMPanel: "41039C1143F"}},
		},
		{
			Suggestion: api.AddressSuggestion{ID: "3", Address: "404 Nowhere Lane", City: "Shelbyville"},
			ParcelID:   "SHB-0404",
			Statuses:   []api.ProcessingStatus{{Status: api.StatusNotFound}},
		},
		{
			Suggestion: api.AddressSuggestion{ID: "4", Address: "13 Broken Pipe Road", City: "Capital City"},
			ParcelID:   "CAP-0013",
			Statuses: []api.ProcessingStatus{
				running(20, "property_record", ""),
				{Status: api.StatusFailed, Message: "script property_risk exited 1"},
			},
		},
		{
			// The backend echoes the address instead of an id.
			Suggestion: api.AddressSuggestion{ID: "5", Address: "1 Echo Court", City: "Ogdenville"},
			ParcelID:   "1 Echo Court",
		},
	}
}
