package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid filesystem events per path to detect "write
// settled" state: each key gets its own timer, and a new event for the same
// key cancels and re-arms that timer rather than sharing one global flush.
// Coalescing follows the same rules regardless of key: CREATE+MODIFY=CREATE,
// CREATE+DELETE=nothing, MODIFY+DELETE=DELETE, DELETE+CREATE=MODIFY.
type Debouncer struct {
	window time.Duration
	output chan FileEvent

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
}

type pendingEvent struct {
	event   FileEvent
	firstOp Operation
	timer   *time.Timer
}

// NewDebouncer creates a debouncer using window as the per-key settle delay.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		output:  make(chan FileEvent, 256),
		pending: make(map[string]*pendingEvent),
	}
}

// Add records an event for event.Path, canceling and re-arming that path's
// timer so a burst of writes settles into a single flush.
func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	key := event.Path
	if existing, ok := d.pending[key]; ok {
		existing.timer.Stop()
		coalesced := d.coalesce(existing.firstOp, event)
		if coalesced == nil {
			delete(d.pending, key)
			return
		}
		existing.event = *coalesced
		existing.timer = time.AfterFunc(d.window, func() { d.flush(key) })
		return
	}

	pe := &pendingEvent{event: event, firstOp: event.Operation}
	pe.timer = time.AfterFunc(d.window, func() { d.flush(key) })
	d.pending[key] = pe
}

func (d *Debouncer) coalesce(firstOp Operation, next FileEvent) *FileEvent {
	switch firstOp {
	case OpCreate:
		switch next.Operation {
		case OpModify:
			result := next
			result.Operation = OpCreate
			return &result
		case OpDelete:
			return nil
		default:
			return &next
		}
	case OpModify:
		return &next
	case OpDelete:
		if next.Operation == OpCreate {
			result := next
			result.Operation = OpModify
			return &result
		}
		return &next
	default:
		return &next
	}
}

// flush emits the settled event for key, if it is still pending.
func (d *Debouncer) flush(key string) {
	d.mu.Lock()
	pe, ok := d.pending[key]
	if ok {
		delete(d.pending, key)
	}
	stopped := d.stopped
	d.mu.Unlock()

	if !ok || stopped {
		return
	}

	select {
	case d.output <- pe.event:
	default:
	}
}

// Output returns the channel of settled, debounced events.
func (d *Debouncer) Output() <-chan FileEvent {
	return d.output
}

// Stop cancels every pending timer and closes the output channel. Safe to
// call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true

	for _, pe := range d.pending {
		pe.timer.Stop()
	}
	d.pending = make(map[string]*pendingEvent)
	close(d.output)
}
