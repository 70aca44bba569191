package ui

import "testing"

func TestListNavCircular(t *testing.T) {
	l := newListNav()
	l.Reset(3)

	if _, ok := l.Selected(); ok {
		t.Fatal("fresh nav should have nothing selected")
	}

	var got []int
	for i := 0; i < 4; i++ {
		l.Down()
		c, _ := l.Selected()
		got = append(got, c)
	}
	want := []int{0, 1, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Down sequence = %v, want %v", got, want)
		}
	}

	l.Up()
	if c, _ := l.Selected(); c != 2 {
		t.Errorf("Up from 0 = %d, want 2", c)
	}
}

func TestListNavEmpty(t *testing.T) {
	l := newListNav()
	l.Down()
	l.Up()
	if _, ok := l.Selected(); ok {
		t.Error("empty nav must never select")
	}
}

func TestListNavResetClears(t *testing.T) {
	l := newListNav()
	l.Reset(2)
	l.Down()
	l.Reset(5)
	if _, ok := l.Selected(); ok {
		t.Error("Reset should clear the highlight")
	}
}

func TestListNavSet(t *testing.T) {
	l := newListNav()
	l.Reset(3)
	l.Set(1)
	if c, ok := l.Selected(); !ok || c != 1 {
		t.Errorf("Set(1) -> %d, %v", c, ok)
	}
	l.Set(7)
	if c, _ := l.Selected(); c != 1 {
		t.Errorf("out-of-range Set moved cursor to %d", c)
	}
	l.Clear()
	if _, ok := l.Selected(); ok {
		t.Error("Clear should drop the highlight")
	}
}
