package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"

	"github.com/abelbrown/parcelscout/internal/store"
)

const (
	keyDown  = "\x1b[B"
	keyEnter = "\r"
	keyCtrlC = "\x03"
	keyCtrlR = "\x12"
)

// buildParcelscout builds the binary for testing.
func buildParcelscout(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "parcelscout")

	rootDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// Assume we are in test/e2e, go up 2 levels
	rootDir = filepath.Join(rootDir, "..", "..")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/parcelscout")
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

// session is a running TUI attached to a pty.
type session struct {
	t       *testing.T
	cmd     *exec.Cmd
	ptmx    *os.File
	console *expect.Console
	output  *bytes.Buffer
	home    string
}

func startTUI(t *testing.T, binPath, baseURL, home string) *session {
	t.Helper()

	cmd := exec.Command(binPath)
	cmd.Env = append(os.Environ(),
		"PARCELSCOUT_HOME="+home,
		"PARCELSCOUT_API_BASE_URL="+baseURL,
		"PARCELSCOUT_DEBOUNCE_DELAY=50ms",
		"PARCELSCOUT_API_BEARER_TOKEN=e2e",
		"PARCELSCOUT_API_KEY=e2e",
	)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		t.Fatalf("failed to start pty: %v", err)
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	var out bytes.Buffer
	console, err := expect.NewConsole(
		expect.WithStdin(ptmx),
		expect.WithStdout(&out),
		expect.WithDefaultTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}

	s := &session{t: t, cmd: cmd, ptmx: ptmx, console: console, output: &out, home: home}
	t.Cleanup(func() {
		_ = console.Close()
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
	})
	return s
}

// send writes keys straight to the program's terminal.
func (s *session) send(keys string) {
	s.t.Helper()
	if _, err := s.ptmx.WriteString(keys); err != nil {
		s.t.Fatalf("failed to send %q: %v", keys, err)
	}
}

func (s *session) expect(text string, timeout time.Duration) {
	s.t.Helper()
	if _, err := s.console.Expect(expect.String(text), expect.WithTimeout(timeout)); err != nil {
		s.dumpLogs()
		s.t.Fatalf("%q not found: %v\nScreen:\n%s", text, err, s.output.String())
	}
}

func (s *session) dumpLogs() {
	files, _ := filepath.Glob(filepath.Join(s.home, "logs", "*.log"))
	for _, f := range files {
		if logs, err := os.ReadFile(f); err == nil {
			s.t.Logf("%s:\n%s", filepath.Base(f), logs)
		}
	}
}

// quit presses ctrl+c and waits for the process to exit.
func (s *session) quit() {
	s.t.Helper()
	s.send(keyCtrlC)

	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		s.t.Error("process did not exit after ctrl+c")
	}
}

func TestE2E_LookupEvergreenTerrace(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and drives the binary")
	}
	binPath := buildParcelscout(t)
	srv, baseURL := startBackend(t)
	home := t.TempDir()

	s := startTUI(t, binPath, baseURL, home)

	t.Log("Waiting for startup...")
	s.expect("PropertyForge AI", 5*time.Second)

	time.Sleep(300 * time.Millisecond) // Allow UI to stabilize
	t.Log("Typing '742 Evergreen'")
	s.send("742 Evergreen")
	s.expect("742 Evergreen Terrace, Springfield", 5*time.Second)

	t.Log("Selecting first suggestion")
	s.send(keyDown)
	s.send(keyEnter)

	// Two running polls 2s apart, then completion and the 1s grace.
	s.expect("Processing Property Data", 5*time.Second)
	s.expect("Parcel SPR-0042", 15*time.Second)
	s.expect("ROI potential", 5*time.Second)

	s.quit()

	if got := srv.Polls("SPR-0042"); got != 3 {
		t.Errorf("status polls = %d, want 3", got)
	}

	st, err := store.Open(dbPath(home))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer st.Close()
	p, err := st.Get("SPR-0042")
	if err != nil {
		t.Fatalf("parcel not recorded: %v", err)
	}
	if p.Query != "742 Evergreen" {
		t.Errorf("recorded query = %q", p.Query)
	}
}

func TestE2E_OpenRecentParcel(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and drives the binary")
	}
	binPath := buildParcelscout(t)
	srv, baseURL := startBackend(t)
	home := t.TempDir()

	err := seedRecent(home, store.Parcel{
		ParcelID: "SPR-0044",
		Display:  "744 Evergreen Terrace, Springfield",
		Query:    "744",
	})
	if err != nil {
		t.Fatalf("failed to seed history: %v", err)
	}

	s := startTUI(t, binPath, baseURL, home)
	s.expect("Recent", 5*time.Second)
	s.expect("744 Evergreen Terrace, Springfield", 5*time.Second)

	time.Sleep(300 * time.Millisecond)
	s.send(keyCtrlR)
	s.send(keyEnter)

	s.expect("Parcel SPR-0044", 5*time.Second)
	s.quit()

	if got := srv.Polls("SPR-0044"); got != 0 {
		t.Errorf("recent parcels must not be polled again, got %d polls", got)
	}
}
