package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Bridge forwards messages from worker goroutines into a running program.
// Post never blocks, so it is safe to call from session callbacks even
// while the program is inside Update; delivery order matches Post order.
type Bridge struct {
	mu    sync.Mutex
	queue []tea.Msg
	wake  chan struct{}
}

// NewBridge creates an empty Bridge.
func NewBridge() *Bridge {
	return &Bridge{wake: make(chan struct{}, 1)}
}

// Post queues msg for delivery.
func (b *Bridge) Post(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued messages to send until ctx is done. Pass
// (*tea.Program).Send.
func (b *Bridge) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
		}
		for {
			b.mu.Lock()
			msgs := b.queue
			b.queue = nil
			b.mu.Unlock()
			if len(msgs) == 0 {
				break
			}
			for _, m := range msgs {
				if ctx.Err() != nil {
					return
				}
				send(m)
			}
		}
	}
}

// Pending returns how many messages wait for delivery.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
