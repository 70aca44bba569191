package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelbrown/parcelscout/internal/api"
	"github.com/abelbrown/parcelscout/internal/apperr"
	"github.com/abelbrown/parcelscout/internal/otel"
	"github.com/abelbrown/parcelscout/internal/poller"
	"github.com/abelbrown/parcelscout/internal/report"
)

func newTestServer(t *testing.T, opts Options) (*Server, *api.Client) {
	t.Helper()
	s := New(opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, api.New(api.Options{
		BaseURL:     ts.URL,
		BearerToken: opts.BearerToken,
		APIKey:      opts.APIKey,
	})
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestSearchEvergreen(t *testing.T) {
	_, c := newTestServer(t, Options{})

	got, err := c.SearchAddresses(context.Background(), "742 Evergreen Terrace")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "742 Evergreen Terrace, Springfield", got[0].Display())
	assert.Equal(t, "Springfield, OR 97477", got[0].Locality())
}

func TestSearchMatchesSeveral(t *testing.T) {
	_, c := newTestServer(t, Options{})

	got, err := c.SearchAddresses(context.Background(), "evergreen")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := c.SearchAddresses(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestResolve(t *testing.T) {
	_, c := newTestServer(t, Options{})
	ctx := context.Background()

	id, err := c.ResolveParcel(ctx, "742 Evergreen Terrace, Springfield")
	require.NoError(t, err)
	assert.Equal(t, "SPR-0042", id)

	_, err = c.ResolveParcel(ctx, "1 Echo Court")
	assert.True(t, apperr.IsValidation(err), "echoed address is not a parcel id")
	assert.Equal(t, api.MsgNoValidParcelID, apperr.UserMessage(err))

	_, err = c.ResolveParcel(ctx, "99 Unknown Blvd")
	assert.True(t, apperr.IsTransient(err))
}

func TestStatusScriptRepeatsLast(t *testing.T) {
	s, c := newTestServer(t, Options{})
	ctx := context.Background()

	var got []api.Status
	var pcts []float64
	for i := 0; i < 4; i++ {
		st, err := c.ParcelStatus(ctx, "SPR-0042")
		require.NoError(t, err)
		got = append(got, st.Status)
		pcts = append(pcts, st.ProgressPercent())
	}
	assert.Equal(t, []api.Status{api.StatusRunning, api.StatusRunning, api.StatusCompleted, api.StatusCompleted}, got)
	assert.Equal(t, []float64{10, 55, 100, 100}, pcts)
	assert.Equal(t, 4, s.Polls("SPR-0042"))

	s.Reset()
	st, err := c.ParcelStatus(ctx, "SPR-0042")
	require.NoError(t, err)
	assert.Equal(t, api.StatusRunning, st.Status)
}

func TestPollAgainstFixtures(t *testing.T) {
	tests := []struct {
		id      string
		wantErr string
		polls   int
	}{
		{"SPR-0042", "", 3},
		{"SHB-0404", poller.MsgNotFound, 1},
		{"CAP-0013", poller.MsgFailed, 2},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			s, c := newTestServer(t, Options{})
			p := poller.New(c, poller.Options{Sleep: noSleep})

			id, err := p.Poll(context.Background(), tt.id, nil)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.id, id)
			} else {
				assert.Equal(t, tt.wantErr, apperr.UserMessage(err))
			}
			assert.Equal(t, tt.polls, s.Polls(tt.id))
		})
	}
}

func TestAuth(t *testing.T) {
	s := New(Options{BearerToken: "tok", APIKey: "key"})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	anon := api.New(api.Options{BaseURL: ts.URL})
	_, err := anon.SearchAddresses(context.Background(), "742")
	assert.True(t, apperr.IsTransient(err))

	wrongKey := api.New(api.Options{BaseURL: ts.URL, BearerToken: "tok", APIKey: "nope"})
	_, err = wrongKey.SearchAddresses(context.Background(), "742")
	assert.True(t, apperr.IsTransient(err))

	ok := api.New(api.Options{BaseURL: ts.URL, BearerToken: "tok", APIKey: "key"})
	got, err := ok.SearchAddresses(context.Background(), "742")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, s.Requests(api.PathAddressSearch))
}

func TestReportResources(t *testing.T) {
	_, c := newTestServer(t, Options{})
	l := report.NewLoader(c, otel.Emitter{}, 0)

	rep, err := l.Load(context.Background(), "SPR-0042")
	require.NoError(t, err)
	require.True(t, rep.Complete())
	assert.Equal(t, 356000.0, rep.MarketValue())
	assert.Equal(t, 6.01, rep.ROIPercent())
	require.NotNil(t, rep.ROI.MarketPositionScore)
	assert.Equal(t, 48.0, float64(*rep.ROI.MarketPositionScore))
	assert.Equal(t, "Fair", rep.ROI.MarketPosition)

	z, ok := rep.FloodZone()
	require.True(t, ok)
	assert.Equal(t, "AE", z.Zone)
	assert.Equal(t, "SPR-0042", z.ParcelID)
	assert.Equal(t, []api.Hazard{
		{Name: "Fire", Score: 18, Rating: "Low"},
		{Name: "Tornado", Score: 4, Rating: "Very Low"},
	}, rep.Hazards())

	_, err = l.Load(context.Background(), "NOPE-1")
	assert.Error(t, err)
}

func TestMissingQueryParams(t *testing.T) {
	s := New(Options{})
	for _, path := range []string{"/api/address", "/api/parcel-id-by-address", "/api/parcel-id-status"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.GreaterOrEqual(t, rec.Code, 400, path)
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
