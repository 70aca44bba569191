package otel

import (
	"sync"
	"testing"
)

func TestSnapshotInOrder(t *testing.T) {
	r := NewRingBuffer(8)
	for i := 0; i < 5; i++ {
		r.Push(Event{Kind: KindPollAttempt, Attempt: i})
	}

	snap := r.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("expected 5 events, got %d", len(snap))
	}
	for i, e := range snap {
		if e.Attempt != i {
			t.Errorf("snap[%d].Attempt=%d, want %d", i, e.Attempt, i)
		}
	}
}

func TestWrapEvictsOldest(t *testing.T) {
	r := NewRingBuffer(4)
	for i := 0; i < 10; i++ {
		r.Push(Event{Kind: KindPollAttempt, Attempt: i})
	}

	snap := r.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("expected 4 events, got %d", len(snap))
	}
	for i, e := range snap {
		if want := i + 6; e.Attempt != want {
			t.Errorf("snap[%d].Attempt=%d, want %d", i, e.Attempt, want)
		}
	}
}

func TestLast(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		pushes int
		n      int
		want   []int
	}{
		{"partial", 8, 8, 3, []int{5, 6, 7}},
		{"more than count", 8, 2, 100, []int{0, 1}},
		{"wrapped", 4, 6, 2, []int{4, 5}},
		{"zero", 8, 3, 0, nil},
		{"negative", 8, 3, -1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRingBuffer(tt.size)
			for i := 0; i < tt.pushes; i++ {
				r.Push(Event{Kind: KindPollAttempt, Attempt: i})
			}
			got := r.Last(tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("len=%d, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.Attempt != tt.want[i] {
					t.Errorf("got[%d]=%d, want %d", i, e.Attempt, tt.want[i])
				}
			}
		})
	}
}

func TestFilterByPrefix(t *testing.T) {
	r := NewRingBuffer(4)
	r.Push(Event{Kind: KindSearchStart})
	r.Push(Event{Kind: KindPollAttempt, Attempt: 1})
	r.Push(Event{Kind: KindSearchComplete})
	r.Push(Event{Kind: KindPollAttempt, Attempt: 2})
	r.Push(Event{Kind: KindPollComplete, Attempt: 3})

	polls := r.Filter("poll.")
	if len(polls) != 3 {
		t.Fatalf("expected 3 poll events, got %d", len(polls))
	}
	for i, e := range polls {
		if e.Attempt != i+1 {
			t.Errorf("polls[%d].Attempt=%d", i, e.Attempt)
		}
	}
	if got := r.Filter("resolve."); got != nil {
		t.Errorf("expected nil for no match, got %v", got)
	}
}

func TestStats(t *testing.T) {
	r := NewRingBuffer(16)
	r.Push(Event{Kind: KindSearchStart})
	r.Push(Event{Kind: KindSearchStart})
	r.Push(Event{Kind: KindSearchComplete})
	r.Push(Event{Kind: KindPollTransient})
	r.Push(Event{Kind: KindPollTransient})
	r.Push(Event{Kind: KindPollTransient})

	stats := r.Stats()
	if stats[KindSearchStart] != 2 || stats[KindSearchComplete] != 1 || stats[KindPollTransient] != 3 {
		t.Errorf("stats=%v", stats)
	}
}

func TestConcurrentPushAndRead(t *testing.T) {
	r := NewRingBuffer(256)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Push(Event{Kind: KindSearchStart})
			}
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.Snapshot()
				_ = r.Last(10)
				_ = r.Stats()
				_ = r.Filter("search.")
			}
		}()
	}
	wg.Wait()

	if r.Len() != 256 {
		t.Errorf("Len()=%d, want 256", r.Len())
	}
}

func TestEmptyBuffer(t *testing.T) {
	r := NewRingBuffer(8)
	if snap := r.Snapshot(); snap != nil {
		t.Errorf("expected nil snapshot, got %v", snap)
	}
	if r.Len() != 0 {
		t.Errorf("Len()=%d", r.Len())
	}
}

func TestExtraIsCopied(t *testing.T) {
	r := NewRingBuffer(4)
	extra := map[string]any{"script": "flood_risk"}
	r.Push(Event{Kind: KindPollProgress, Extra: extra})

	extra["script"] = "mutated"

	if got := r.Snapshot()[0].Extra["script"]; got != "flood_risk" {
		t.Errorf("extra aliased: got %v", got)
	}
}

func TestDefaultCapacity(t *testing.T) {
	if got := NewRingBuffer(0).Cap(); got != DefaultRingSize {
		t.Errorf("Cap()=%d, want %d", got, DefaultRingSize)
	}
	if got := NewRingBuffer(64).Cap(); got != 64 {
		t.Errorf("Cap()=%d, want 64", got)
	}
}

func TestRingFedByLogger(t *testing.T) {
	r := NewRingBuffer(16)
	l := NewNullLogger()
	l.SetRingBuffer(r)

	l.Emit(Event{Kind: KindStartup})
	l.Emit(Event{Kind: KindShutdown})
	l.Close()

	last := r.Last(2)
	if len(last) != 2 || last[0].Kind != KindStartup || last[1].Kind != KindShutdown {
		t.Errorf("ring contents %v", last)
	}
}
