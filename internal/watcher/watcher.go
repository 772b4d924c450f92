package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kestrelmd/memoir/internal/embed"
	"github.com/kestrelmd/memoir/internal/index"
	"github.com/kestrelmd/memoir/internal/store"
)

// State is a watcher's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateWatching
	StateScanning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateScanning:
		return "scanning"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DefaultDebounceWindow is the per-event settle delay before a coalesced
// file event is acted on.
const DefaultDebounceWindow = 2 * time.Second

// DefaultScanInterval is the delay between the end of one embedding scan
// pass and the start of the next.
const DefaultScanInterval = 60 * time.Second

// Options configures a Watcher.
type Options struct {
	DebounceWindow time.Duration
	ScanInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = DefaultDebounceWindow
	}
	if o.ScanInterval <= 0 {
		o.ScanInterval = DefaultScanInterval
	}
	return o
}

// Watcher runs exactly one file-system subscription plus one self-rearming
// embedding scan loop for a store. Starting a second watcher on the same
// store is the caller's responsibility to avoid; Watcher itself only
// guards against being started twice on the same instance.
type Watcher struct {
	st  *store.Store
	ix  *index.Indexer
	emb embed.Embedder
	opt Options

	mu    sync.Mutex
	state State

	debouncer *Debouncer
	subs      []*fsSubscription

	scanStop chan struct{}
	scanDone chan struct{}

	consumeDone chan struct{}
}

// New creates a Watcher in the idle state.
func New(st *store.Store, ix *index.Indexer, emb embed.Embedder, opt Options) *Watcher {
	return &Watcher{
		st:    st,
		ix:    ix,
		emb:   emb,
		opt:   opt.withDefaults(),
		state: StateIdle,
	}
}

// State reports the watcher's current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start subscribes to every collection root and begins the scan loop.
// Calling Start while already watching is a no-op that logs a warning.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.state == StateWatching || w.state == StateScanning {
		w.mu.Unlock()
		slog.Warn("watcher already running, ignoring start")
		return nil
	}
	if w.state == StateStopped {
		w.mu.Unlock()
		slog.Warn("watcher already stopped, ignoring start")
		return nil
	}
	w.mu.Unlock()

	cols, err := w.st.ListCollections(ctx)
	if err != nil {
		return err
	}

	debouncer := NewDebouncer(w.opt.DebounceWindow)

	subs := make([]*fsSubscription, 0, len(cols))
	for _, col := range cols {
		sub, err := newFSSubscription(col.ID, col.Root, debouncer)
		if err != nil {
			slog.Warn("failed to watch collection root", slog.String("collection", col.Name), slog.String("error", err.Error()))
			continue
		}
		subs = append(subs, sub)
	}

	w.mu.Lock()
	w.debouncer = debouncer
	w.subs = subs
	w.state = StateWatching
	w.scanStop = make(chan struct{})
	w.scanDone = make(chan struct{})
	w.consumeDone = make(chan struct{})
	w.mu.Unlock()

	go w.consumeEvents(ctx)
	go w.scanLoop(ctx)

	return nil
}

// Stop cancels every pending debounce timer, the scheduled scan, and closes
// every file-system subscription. Stop is idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.state == StateStopped || w.state == StateIdle {
		w.state = StateStopped
		w.mu.Unlock()
		return
	}
	subs := w.subs
	debouncer := w.debouncer
	scanStop := w.scanStop
	scanDone := w.scanDone
	consumeDone := w.consumeDone
	w.state = StateStopped
	w.mu.Unlock()

	if scanStop != nil {
		close(scanStop)
	}
	if debouncer != nil {
		debouncer.Stop()
	}
	for _, sub := range subs {
		_ = sub.close()
	}
	if scanDone != nil {
		<-scanDone
	}
	if consumeDone != nil {
		<-consumeDone
	}
}

// consumeEvents drains the debouncer's settled events and reindexes the
// affected collection.
func (w *Watcher) consumeEvents(ctx context.Context) {
	w.mu.Lock()
	debouncer := w.debouncer
	w.mu.Unlock()

	defer close(w.consumeDone)

	for ev := range debouncer.Output() {
		w.handleEvent(ctx, ev)
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev FileEvent) {
	cols, err := w.st.ListCollections(ctx)
	if err != nil {
		slog.Warn("failed to list collections for reindex", slog.String("error", err.Error()))
		return
	}

	for _, col := range cols {
		if col.ID != ev.CollectionID {
			continue
		}
		if _, err := w.ix.IndexCollection(ctx, col); err != nil {
			slog.Warn("reindex after file event failed",
				slog.String("collection", col.Name),
				slog.String("path", ev.Path),
				slog.String("op", ev.Operation.String()),
				slog.String("error", err.Error()),
			)
		}
		return
	}
}

// scanLoop runs the embedding backlog pass, re-arming itself only after the
// previous pass finishes so a long embed pass never overlaps the next one.
func (w *Watcher) scanLoop(ctx context.Context) {
	w.mu.Lock()
	stop := w.scanStop
	done := w.scanDone
	w.mu.Unlock()

	defer close(done)

	timer := time.NewTimer(w.opt.ScanInterval)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
			w.runScanPass(ctx)
			timer.Reset(w.opt.ScanInterval)
		}
	}
}

func (w *Watcher) runScanPass(ctx context.Context) {
	w.mu.Lock()
	if w.state != StateWatching {
		w.mu.Unlock()
		return
	}
	w.state = StateScanning
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.state == StateScanning {
			w.state = StateWatching
		}
		w.mu.Unlock()
	}()

	if w.emb == nil || !w.emb.Available(ctx) {
		return
	}

	hashes, err := w.st.HashesForEmbedding(ctx, w.emb.ModelName())
	if err != nil {
		slog.Warn("failed to read embedding backlog", slog.String("error", err.Error()))
		return
	}

	for _, hash := range hashes {
		if ctx.Err() != nil {
			return
		}

		body, err := w.st.GetContentByHash(ctx, hash)
		if err != nil {
			slog.Warn("failed to read content for embedding", slog.String("hash", hash), slog.String("error", err.Error()))
			continue
		}

		vec, err := w.emb.Embed(ctx, embed.FormatDocument(body))
		if err != nil {
			slog.Warn("embed failed during scan pass", slog.String("hash", hash), slog.String("error", err.Error()))
			continue
		}

		if err := w.st.InsertEmbedding(ctx, hash, 0, 0, w.emb.ModelName(), vec); err != nil {
			slog.Warn("insert embedding failed during scan pass", slog.String("hash", hash), slog.String("error", err.Error()))
		}
	}
}
