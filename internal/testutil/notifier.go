package testutil

import (
	"sync"

	"taleloom/internal/tale"
)

// RecorderNotifier records every notification for later assertions.
type RecorderNotifier struct {
	mu    sync.Mutex
	notes []tale.Notification
}

func NewRecorderNotifier() *RecorderNotifier {
	return &RecorderNotifier{}
}

var _ tale.Notifier = (*RecorderNotifier)(nil)

func (r *RecorderNotifier) Notify(n tale.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

// All returns a copy of the recorded notifications in order.
func (r *RecorderNotifier) All() []tale.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]tale.Notification, len(r.notes))
	copy(out, r.notes)
	return out
}

// Last returns the most recent notification, or nil if none.
func (r *RecorderNotifier) Last() *tale.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return nil
	}
	n := r.notes[len(r.notes)-1]
	return &n
}

// Reset clears recorded notifications.
func (r *RecorderNotifier) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}
