package handler

import (
	"sync"

	"github.com/h15s/gmtea/sender"
)

// StatusBoard remembers the last send status and forwards every update.
type StatusBoard struct {
	mu       sync.RWMutex
	last     sender.Status
	has      bool
	onUpdate func(sender.Status)
}

// NewStatusBoard creates a board; onUpdate may be nil
func NewStatusBoard(onUpdate func(sender.Status)) *StatusBoard {
	if onUpdate == nil {
		onUpdate = func(sender.Status) {}
	}
	return &StatusBoard{onUpdate: onUpdate}
}

// Set records s and forwards it
func (b *StatusBoard) Set(s sender.Status) {
	b.mu.Lock()
	b.last, b.has = s, true
	b.mu.Unlock()

	b.onUpdate(s)
}

// Last returns the most recent status, false before the first send
func (b *StatusBoard) Last() (sender.Status, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.has
}
