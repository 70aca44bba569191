package ui

// listNav is a circular cursor over n rows. -1 means nothing highlighted.
type listNav struct {
	cursor int
	n      int
}

func newListNav() listNav { return listNav{cursor: -1} }

// Reset sets the row count and clears the highlight.
func (l *listNav) Reset(n int) {
	l.n = n
	l.cursor = -1
}

// Down moves to the next row, wrapping to the first.
func (l *listNav) Down() {
	if l.n == 0 {
		return
	}
	l.cursor = (l.cursor + 1) % l.n
}

// Up moves to the previous row, wrapping to the last. From no highlight
// it lands on the last row.
func (l *listNav) Up() {
	if l.n == 0 {
		return
	}
	if l.cursor <= 0 {
		l.cursor = l.n - 1
		return
	}
	l.cursor--
}

// Clear drops the highlight.
func (l *listNav) Clear() { l.cursor = -1 }

// Set highlights row i when it exists.
func (l *listNav) Set(i int) {
	if i >= 0 && i < l.n {
		l.cursor = i
	}
}

// Selected returns the highlighted row.
func (l listNav) Selected() (int, bool) {
	return l.cursor, l.cursor >= 0 && l.cursor < l.n
}
