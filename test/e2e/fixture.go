package e2e

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/abelbrown/parcelscout/internal/mockapi"
	"github.com/abelbrown/parcelscout/internal/store"
)

// startBackend serves the fixture backend for the duration of the test.
func startBackend(t *testing.T) (*mockapi.Server, string) {
	t.Helper()
	srv := mockapi.New(mockapi.Options{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

// seedRecent records parcels in the history database under home.
func seedRecent(home string, parcels ...store.Parcel) error {
	if err := os.MkdirAll(home, 0755); err != nil {
		return err
	}
	st, err := store.Open(dbPath(home))
	if err != nil {
		return err
	}
	defer st.Close()

	for _, p := range parcels {
		if err := st.RecordResolution(p.ParcelID, p.Display, p.Query); err != nil {
			return err
		}
	}
	return nil
}

func dbPath(home string) string {
	return filepath.Join(home, "parcelscout.db")
}
