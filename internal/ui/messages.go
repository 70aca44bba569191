// Package ui provides the Bubble Tea TUI for parcelscout.
package ui

import (
	"github.com/abelbrown/parcelscout/internal/autocomplete"
	"github.com/abelbrown/parcelscout/internal/report"
	"github.com/abelbrown/parcelscout/internal/session"
	"github.com/abelbrown/parcelscout/internal/store"
)

// SuggestionsChanged carries a new autocomplete snapshot. Snapshots with
// a Gen lower than the last one applied are stale and dropped.
type SuggestionsChanged struct {
	State autocomplete.State
}

// SessionChanged carries a new orchestrator snapshot.
type SessionChanged struct {
	State session.State
}

// HandedOff is sent when a parcel is ready for its report. Gen is the
// session generation that produced it.
type HandedOff struct {
	ParcelID string
	Gen      uint64
}

// ReportLoaded is sent when a report load finishes.
type ReportLoaded struct {
	ParcelID string
	Report   report.Report
	Err      error
}

// RecentLoaded is sent when the recent-parcel list is read from the store.
type RecentLoaded struct {
	Parcels []store.Parcel
	Err     error
}

// ParcelRecorded is sent after a handed-off parcel is saved.
type ParcelRecorded struct {
	ParcelID string
	Err      error
}

// blurExpired fires when the blur grace period ends. It only closes the
// list if no focus or click arrived since (gen unchanged).
type blurExpired struct {
	gen int
}
