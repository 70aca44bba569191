package poller

import (
	"fmt"
	"math"
	"strings"

	"github.com/abelbrown/parcelscout/internal/api"
)

// Fallback step labels.
const (
	StepInitializing = "Initializing..."
	StepUnknown      = "Processing property data..."
)

// hiddenPrefix marks backend messages meant for operators, not users.
const hiddenPrefix = "executando:"

var stepLabels = map[string]string{
	"property_location":     "Locating the property on the map",
	"property_investment":   "Estimating investment potential",
	"property_risk":         "Assessing property risks",
	"property_comparatives": "Comparing with similar properties",
	"property_report":       "Summarizing your property insights",
	"property_record":       "Gathering property details",
	"sell_history":          "Reviewing sales history",
	"building_features":     "Analyzing building characteristics",
	"building_subareas":     "Reviewing building layout",
	"buildings":             "Exploring property structures",
	"community":             "Exploring the neighborhood",
	"demographics":          "Understanding the local community",
	"disasters_risks":       "Checking for natural disaster risks",
	"documents":             "Collecting legal documents",
	"extra_features":        "Identifying special features",
	"flood_risk":            "Checking flood risk",
	"images":                "Loading property images",
	"land_areas":            "Measuring land size",
	"land_features":         "Reviewing land attributes",
	"legal_descriptions":    "Reviewing legal description",
	"location":              "Pinpointing property location",
	"neighbor_sales":        "Analyzing nearby sales",
	"non_ad_valorem_tax":    "Reviewing special assessments",
	"officials":             "Identifying local officials",
	"sales_records":         "Reviewing transaction history",
	"schools":               "Finding nearby schools",
	"services":              "Listing available services",
	"tax_records":           "Reviewing property taxes",
}

// normalizedLabels is stepLabels keyed by normalizeStep.
var normalizedLabels = func() map[string]string {
	m := make(map[string]string, len(stepLabels))
	for k, v := range stepLabels {
		m[normalizeStep(k)] = v
	}
	return m
}()

func normalizeStep(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

// StepMessage maps a backend script name to a friendly label. Matching
// ignores case, spaces and underscores.
func StepMessage(script string) string {
	if strings.TrimSpace(script) == "" {
		return StepInitializing
	}
	if label, ok := normalizedLabels[normalizeStep(script)]; ok {
		return label
	}
	return StepUnknown
}

// StepCounter renders how many of total steps the percentage covers,
// rounded up. total <= 0 uses api.DefaultTotalSteps.
func StepCounter(percent float64, total int) string {
	if total <= 0 {
		total = api.DefaultTotalSteps
	}
	done := int(math.Ceil(percent / 100 * float64(total)))
	done = max(0, min(done, total))
	return fmt.Sprintf("%d / %d", done, total)
}

// VisibleMessage returns msg unless it is an internal trace line.
func VisibleMessage(msg string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(msg)), hiddenPrefix) {
		return ""
	}
	return msg
}
