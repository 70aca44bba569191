package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/parcelscout/internal/autocomplete"
	"github.com/abelbrown/parcelscout/internal/logging"
	"github.com/abelbrown/parcelscout/internal/otel"
	"github.com/abelbrown/parcelscout/internal/poller"
	"github.com/abelbrown/parcelscout/internal/report"
	"github.com/abelbrown/parcelscout/internal/session"
	"github.com/abelbrown/parcelscout/internal/ui"
)

func runTUI(cmd *cobra.Command, _ []string) error {
	if err := logging.Init(logging.Options{Dir: cfg.LogDir(), Debug: cfg.Debug, Version: cfg.App.Version}); err != nil {
		return err
	}
	defer logging.Close()
	for _, w := range cfg.Warnings() {
		logging.Warn(w)
	}

	events, closeEvents, err := openEventLog(cfg)
	if err != nil {
		return err
	}
	defer closeEvents()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", cfg.App.Version)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	client := newClient(cfg)
	loader := report.NewLoader(client, events.Component("report"), 0)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// A zero delay in the config means no debounce at all.
	delay := cfg.Autocomplete.DebounceDelay()
	if delay == 0 {
		delay = -1
	}

	bridge := ui.NewBridge()
	orch := session.New(client, session.Options{
		Autocomplete: autocomplete.Options{
			MinLength:  cfg.Autocomplete.MinSearchLength,
			MaxResults: cfg.Autocomplete.MaxResults,
			Debounce:   delay,
			OnChange:   func(s autocomplete.State) { bridge.Post(ui.SuggestionsChanged{State: s}) },
			Events:     events.Component("autocomplete"),
		},
		Poller:    poller.Options{Events: events.Component("poller")},
		OnChange:  func(s session.State) { bridge.Post(ui.SessionChanged{State: s}) },
		OnHandoff: func(id string, gen uint64) { bridge.Post(ui.HandedOff{ParcelID: id, Gen: gen}) },
		Events:    events.Component("session"),
	})

	app := ui.NewAppWithConfig(ui.AppConfig{
		Title:       cfg.App.Name,
		RecentLimit: cfg.UI.RecentLimit,
		SetText:     orch.SetText,
		Select:      orch.Select,
		Submit:      orch.Submit,
		OpenRecent:  orch.OpenRecent,
		LoadReport: func(id string) tea.Cmd {
			return func() tea.Msg {
				r, err := loader.Load(ctx, id)
				return ui.ReportLoaded{ParcelID: id, Report: r, Err: err}
			}
		},
		LoadRecent: func() tea.Cmd {
			return func() tea.Msg {
				ps, err := st.Recent(cfg.UI.RecentLimit)
				return ui.RecentLoaded{Parcels: ps, Err: err}
			}
		},
		RecordParcel: func(id, display, query string) tea.Cmd {
			return func() tea.Msg {
				err := st.RecordResolution(id, display, query)
				if err != nil {
					events.Error(otel.KindStoreError, "store", err)
				}
				return ui.ParcelRecorded{ParcelID: id, Err: err}
			}
		},
		Obs: ui.ObsConfig{Ring: ring, Events: events.Component("ui")},
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithReportFocus()}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(app, opts...)

	go bridge.Run(ctx, program.Send)

	// Run UI (blocks until quit)
	_, err = program.Run()

	// Graceful shutdown: no session callback may reach the bridge after this.
	cancel()
	orch.Close()
	events.Info(otel.KindShutdown, "main", "")

	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
