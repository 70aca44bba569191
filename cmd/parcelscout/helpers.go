package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/config"
	"github.com/abelbrown/parcelscout/internal/otel"
	"github.com/abelbrown/parcelscout/internal/store"
)

// newClient creates the backend client from c.
func newClient(c *config.Config) *api.Client {
	return api.New(api.Options{
		BaseURL:     c.API.BaseURL,
		Timeout:     c.API.Timeout(),
		BearerToken: c.API.BearerToken,
		APIKey:      c.API.APIKey,
		RateLimit:   c.API.RateLimit,
	})
}

// openStore opens the parcel history, creating the data directory.
func openStore(c *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.Open(c.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// openEventLog appends to the JSONL event log. The returned func flushes
// and closes it.
func openEventLog(c *config.Config) (*otel.Logger, func(), error) {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}
	f, err := os.OpenFile(c.EventLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	l := otel.NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}, nil
}

// writeJSON prints v indented.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
