package library

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/lectern/speech"
)

const (
	// saveEvery throttles opportunistic bookmark writes.
	saveEvery = 3 * time.Second

	// retryTick re-checks a throttled pending write.
	retryTick = 500 * time.Millisecond

	// writeTimeout bounds one store write.
	writeTimeout = 10 * time.Second
)

// Reconciler keeps the persisted bookmark in step with playback
// without ever blocking it. Position updates are coalesced and
// throttled; pause, stop, and finish flush immediately. Store failures
// are logged and swallowed, so reading aloud never halts over a failed
// save.
type Reconciler struct {
	store Store
	doc   Document

	limiter *rate.Limiter

	mu      sync.Mutex
	lastPos speech.Position
	pending *Bookmark
	urgent  bool

	kick     chan struct{}
	flushReq chan chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewReconciler starts the background writer for one document.
func NewReconciler(store Store, doc Document) *Reconciler {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconciler{
		store:    store,
		doc:      doc,
		limiter:  rate.NewLimiter(rate.Every(saveEvery), 1),
		lastPos:  speech.Position{Total: doc.Units},
		kick:     make(chan struct{}, 1),
		flushReq: make(chan chan struct{}),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go r.loop(ctx)
	return r
}

// Track records a position change. Wire it to Tracker.Watch; it never
// blocks.
func (r *Reconciler) Track(pos speech.Position) {
	r.mu.Lock()
	r.lastPos = pos
	b := r.bookmark(pos)
	r.pending = &b
	r.mu.Unlock()
	r.wake()
}

// PhaseEdge flushes on the phase changes that suspend or end playback.
// Wire it to the controller's phase callback.
func (r *Reconciler) PhaseEdge(p speech.Phase) {
	switch p {
	case speech.Paused, speech.Stopped, speech.Finished:
	default:
		return
	}
	r.mu.Lock()
	if r.pending == nil {
		b := r.bookmark(r.lastPos)
		r.pending = &b
	}
	r.urgent = true
	r.mu.Unlock()
	r.wake()
}

// Flush writes any pending position and returns once it is durable or
// ctx expires.
func (r *Reconciler) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case r.flushReq <- ack:
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the pending write and stops the background writer.
func (r *Reconciler) Close() {
	r.cancel()
	<-r.done
}

func (r *Reconciler) wake() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

func (r *Reconciler) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(retryTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case ack := <-r.flushReq:
			r.drain()
			close(ack)
		case <-r.kick:
			r.writeEligible()
		case <-ticker.C:
			r.writeEligible()
		}
	}
}

// writeEligible writes the pending bookmark if it is urgent or the
// limiter grants a token; otherwise it stays pending for a later tick.
func (r *Reconciler) writeEligible() {
	r.mu.Lock()
	b := r.pending
	if b == nil {
		r.mu.Unlock()
		return
	}
	if !r.urgent && !r.limiter.Allow() {
		r.mu.Unlock()
		return
	}
	r.pending, r.urgent = nil, false
	r.mu.Unlock()
	r.write(*b)
}

// drain writes the pending bookmark regardless of the limiter.
func (r *Reconciler) drain() {
	r.mu.Lock()
	b := r.pending
	r.pending, r.urgent = nil, false
	r.mu.Unlock()
	if b != nil {
		r.write(*b)
	}
}

func (r *Reconciler) write(b Bookmark) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.store.SaveBookmark(ctx, b); err != nil {
		log.Debug("bookmark save failed", "contentKey", b.ContentKey, "err", err)
	}
}

func (r *Reconciler) bookmark(pos speech.Position) Bookmark {
	return Bookmark{
		ContentKey: r.doc.ContentKey,
		Title:      r.doc.Title,
		SourceType: r.doc.SourceType,
		SourceURL:  r.doc.SourceURL,
		Index:      pos.Index,
		Total:      pos.Total,
		Ratio:      pos.Ratio(),
		UpdatedAt:  time.Now(),
	}
}
