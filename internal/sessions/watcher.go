package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ppds/orchdash/internal/config"
	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/models"
	"github.com/ppds/orchdash/internal/recovery"
)

// WatcherState is the lifecycle state of a Watcher.
type WatcherState int

const (
	StateUninitialized WatcherState = iota
	StateWatching
	StateError
	StateTerminated
)

func (s WatcherState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateWatching:
		return "watching"
	case StateError:
		return "error"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("WatcherState(%d)", int(s))
	}
}

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("session watcher already started")

// ErrSourceClosed is recorded when the change source shuts down on its own,
// for example when a replaced directory cannot be watched again.
var ErrSourceClosed = errors.New("session change source closed")

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Dir string
	// PollInterval is used by the polling fallback.
	PollInterval time.Duration
	// BatchWindow groups native notifications arriving close together.
	BatchWindow time.Duration
	// ForcePoll skips native notifications entirely.
	ForcePoll bool
	// DistinguishAdds reports first appearances as "add".
	DistinguishAdds bool
}

// WatcherOptionsFromConfig maps the application config onto watcher options.
func WatcherOptionsFromConfig(cfg *config.Config) WatcherOptions {
	return WatcherOptions{
		Dir:             cfg.SessionsDir,
		PollInterval:    cfg.PollInterval,
		BatchWindow:     cfg.BatchWindow,
		ForcePoll:       cfg.ForcePoll,
		DistinguishAdds: cfg.DistinguishAdds,
	}
}

// Watcher observes one sessions directory (non-recursive) on a dedicated
// goroutine and publishes an event for every record file change.
//
// Lifecycle: Uninitialized -> Watching -> (Error | Terminated). Setup
// failures move straight to Error without retry; errors reported while
// watching are logged and the loop keeps going. A change source that shuts
// down by itself also ends in Error.
type Watcher struct {
	opts  WatcherOptions
	synth *Synthesizer
	sink  Sink

	mu      sync.Mutex
	state   WatcherState
	err     error
	source  changeSource
	open    func() (changeSource, error)
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// NewWatcher creates a watcher that publishes to sink.
func NewWatcher(opts WatcherOptions, sink Sink) *Watcher {
	w := &Watcher{
		opts:  opts,
		synth: NewSynthesizer(opts.DistinguishAdds),
		sink:  sink,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	w.open = w.openSource
	return w
}

// State returns the current lifecycle state.
func (w *Watcher) State() WatcherState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err returns the error that moved the watcher to StateError.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Done is closed once the watcher has stopped for any reason.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Start creates the directory if needed, subscribes to changes and launches
// the background loop. The loop ends when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateUninitialized {
		return ErrAlreadyStarted
	}

	if err := config.EnsureDir(w.opts.Dir); err != nil {
		return w.failLocked(fmt.Errorf("failed to create sessions directory %s: %w", w.opts.Dir, err))
	}

	source, err := w.open()
	if err != nil {
		return w.failLocked(err)
	}
	w.source = source

	if w.opts.DistinguishAdds {
		w.synth.Seed(loadedIDs(w.opts.Dir)...)
	}

	w.state = StateWatching
	logger.Infof("👀 Watching sessions directory: %s", w.opts.Dir)

	recovery.SafeGoWithCleanup("session-watcher", func() {
		if err := w.loop(ctx, source); err != nil {
			w.mu.Lock()
			w.err = err
			w.mu.Unlock()
		}
	}, w.finish)

	return nil
}

// Run starts the watcher and blocks until it stops.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-w.done
	return nil
}

// Stop requests termination and waits for the loop to exit. Calling Stop on
// a watcher that never started marks it Terminated.
func (w *Watcher) Stop() {
	w.mu.Lock()
	switch w.state {
	case StateUninitialized:
		w.state = StateTerminated
		w.closeDoneLocked()
		w.mu.Unlock()
		return
	case StateWatching:
		w.stopped.Do(func() { close(w.stop) })
	}
	w.mu.Unlock()

	<-w.done
}

func (w *Watcher) openSource() (changeSource, error) {
	if !w.opts.ForcePoll {
		source, err := newFsnotifySource(w.opts.Dir, w.opts.BatchWindow)
		if err == nil {
			return source, nil
		}
		logger.Warnf("⚠️ Native file notifications unavailable, polling every %s: %v", w.pollInterval(), err)
	}

	source, err := newPollSource(w.opts.Dir, w.pollInterval())
	if err != nil {
		return nil, fmt.Errorf("failed to start sessions poller: %w", err)
	}
	return source, nil
}

func (w *Watcher) pollInterval() time.Duration {
	if w.opts.PollInterval <= 0 {
		return config.DefaultPollInterval
	}
	return w.opts.PollInterval
}

func (w *Watcher) failLocked(err error) error {
	w.state = StateError
	w.err = err
	w.closeDoneLocked()
	logger.Errorf("❌ Session watcher failed to start: %v", err)
	return err
}

func (w *Watcher) closeDoneLocked() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

// loop returns nil when asked to stop and an error when the source ended on
// its own.
func (w *Watcher) loop(ctx context.Context, source changeSource) error {
	batches := source.Batches()
	errs := source.Errors()
	var lastErr error

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stop:
			return nil
		case batch, ok := <-batches:
			if !ok {
				// Both channels close together; pick up the reason if it is still queued.
				if errs != nil {
					for err := range errs {
						lastErr = err
					}
				}
				if lastErr != nil {
					return fmt.Errorf("%w: %v", ErrSourceClosed, lastErr)
				}
				return ErrSourceClosed
			}
			w.handleBatch(batch)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			lastErr = err
			logger.Warnf("⚠️ Session watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleBatch(batch []Change) {
	for _, change := range batch {
		if !IsRecordPath(change.Path) {
			continue
		}
		logger.Debugf("📁 Session file %s: %s", change.Kind, change.Path)

		event, ok := w.synth.Synthesize(change)
		if !ok {
			continue
		}
		w.publish(event)
	}
}

func (w *Watcher) publish(event *models.SessionEvent) {
	if w.sink == nil {
		return
	}
	if err := w.sink.Publish(event); err != nil {
		if errors.Is(err, ErrNoSubscribers) {
			logger.Debugf("📭 Dropped %s event for %s: %v", event.EventType, event.Key(), err)
			return
		}
		logger.Warnf("⚠️ Failed to publish %s event for %s: %v", event.EventType, event.Key(), err)
	}
}

func (w *Watcher) finish() {
	if w.source != nil {
		if err := w.source.Close(); err != nil {
			logger.Debugf("Closing session change source: %v", err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateWatching {
		if w.err != nil {
			w.state = StateError
			logger.Errorf("❌ Session watcher stopped: %v", w.err)
		} else {
			w.state = StateTerminated
		}
	}
	w.closeDoneLocked()
	logger.Infof("🛑 Stopped watching sessions directory: %s", w.opts.Dir)
}
