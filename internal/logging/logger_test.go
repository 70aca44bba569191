package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNoopBeforeInit(t *testing.T) {
	Close()
	Info("ignored", "k", "v")
	if WithPrefix("x") != nil {
		t.Error("WithPrefix should be nil before Init")
	}
}

func TestInitWriterLevels(t *testing.T) {
	defer Close()

	var buf bytes.Buffer
	InitWriter(&buf, false)
	Debug("hidden")
	Info("shown", "parcel_id", "SPR-0042")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "SPR-0042") {
		t.Errorf("info record missing: %s", out)
	}

	buf.Reset()
	InitWriter(&buf, true)
	Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug record missing in debug mode: %s", buf.String())
	}
}

func TestInitCreatesDatedFile(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Options{Dir: filepath.Join(dir, "logs"), Version: "test"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Warn("disk nearly full")
	Close()

	matches, err := filepath.Glob(filepath.Join(dir, "logs", "parcelscout-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one log file, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"parcelscout started", "disk nearly full", "shutting down"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log missing %q:\n%s", want, data)
		}
	}
}
