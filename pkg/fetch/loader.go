package fetch

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/landscape/pkg/projection"
	"github.com/matzehuels/landscape/pkg/scatter/grouping"
)

// Result is a delivered snapshot and the request that produced it.
type Result struct {
	Ticket   uint64
	Request  grouping.Request
	Snapshot *projection.Snapshot
}

// Loader runs snapshot requests in the background. Requests are numbered;
// a result is delivered only if no newer request was issued meanwhile.
// Failed requests are logged and dropped, so the frontend keeps showing
// the last good snapshot.
type Loader struct {
	src     Source
	logger  *log.Logger
	timeout time.Duration

	mu      sync.Mutex
	ticket  uint64
	lastErr error
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup

	out chan Result
}

// LoaderOption configures a [Loader].
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger.
func WithLoaderLogger(l *log.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// WithRequestTimeout bounds each request. Zero means no bound beyond the
// caller's context.
func WithRequestTimeout(d time.Duration) LoaderOption {
	return func(ld *Loader) { ld.timeout = d }
}

// NewLoader returns a loader reading from src.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		src:    src,
		logger: log.New(io.Discard),
		out:    make(chan Result, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Results delivers the newest successful snapshot. The channel holds at
// most one pending result; an undelivered older result is replaced.
func (l *Loader) Results() <-chan Result { return l.out }

// Request starts loading req and returns its ticket. The previous request,
// if still running, is cancelled.
func (l *Loader) Request(ctx context.Context, req grouping.Request) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return l.ticket
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.ticket++
	ticket := l.ticket
	l.lastErr = nil

	ctx, cancel := context.WithCancel(ctx)
	if l.timeout > 0 {
		ctx, cancel = withTimeout(ctx, cancel, l.timeout)
	}
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		snap, err := l.src.Load(ctx, req)
		l.finish(ticket, req, snap, err)
	}()
	return ticket
}

func withTimeout(ctx context.Context, parent context.CancelFunc, d time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, d)
	return ctx, func() { cancel(); parent() }
}

func (l *Loader) finish(ticket uint64, req grouping.Request, snap *projection.Snapshot, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ticket != l.ticket || l.closed {
		l.logger.Debug("dropping stale snapshot", "ticket", ticket, "latest", l.ticket)
		return
	}
	if err != nil {
		l.lastErr = err
		l.logger.Error("snapshot request failed", "groups", req, "err", err)
		return
	}
	l.lastErr = nil
	res := Result{Ticket: ticket, Request: req, Snapshot: snap}
	select {
	case <-l.out:
	default:
	}
	l.out <- res
	l.logger.Debug("snapshot ready", "ticket", ticket, "groups", req, "points", len(snap.Points))
}

// Latest returns the newest ticket issued.
func (l *Loader) Latest() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticket
}

// Err returns the failure of the latest request, if it failed. It is nil
// while that request is in flight.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

// Close cancels the in-flight request and waits for it to return. No
// results are delivered after Close.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()
	l.wg.Wait()
}
