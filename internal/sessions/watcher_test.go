package sessions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppds/orchdash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventTimeout = 5 * time.Second

func startWatcher(t *testing.T, opts WatcherOptions) (*Watcher, *eventRecorder) {
	t.Helper()
	recorder := newEventRecorder()
	w := NewWatcher(opts, recorder)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	assert.Equal(t, StateWatching, w.State())
	return w, recorder
}

func watcherModes(dir string) map[string]WatcherOptions {
	return map[string]WatcherOptions{
		"native": {Dir: dir, BatchWindow: 20 * time.Millisecond},
		"poll":   {Dir: dir, ForcePoll: true, PollInterval: 50 * time.Millisecond},
	}
}

func TestWatcher_NewFileProducesOneUpdate(t *testing.T) {
	for mode, opts := range watcherModes("") {
		t.Run(mode, func(t *testing.T) {
			opts.Dir = t.TempDir()
			_, recorder := startWatcher(t, opts)

			writeRecord(t, opts.Dir, "abc123.json", sampleRecord("abc123"))

			event := recorder.next(t, eventTimeout)
			assert.Equal(t, models.SessionEventUpdate, event.EventType)
			require.NotNil(t, event.Session)
			assert.Equal(t, "abc123", event.Session.ID)
			recorder.none(t, 300*time.Millisecond)
		})
	}
}

func TestWatcher_DeleteProducesOneRemove(t *testing.T) {
	for mode, opts := range watcherModes("") {
		t.Run(mode, func(t *testing.T) {
			opts.Dir = t.TempDir()
			path := writeRecord(t, opts.Dir, "abc123.json", sampleRecord("abc123"))
			_, recorder := startWatcher(t, opts)

			require.NoError(t, os.Remove(path))

			event := recorder.next(t, eventTimeout)
			assert.Equal(t, models.SessionEventRemove, event.EventType)
			assert.Nil(t, event.Session)
			require.NotNil(t, event.SessionID)
			assert.Equal(t, "abc123", *event.SessionID)
			recorder.none(t, 300*time.Millisecond)
		})
	}
}

func TestWatcher_IgnoresInvalidAndForeignFiles(t *testing.T) {
	for mode, opts := range watcherModes("") {
		t.Run(mode, func(t *testing.T) {
			opts.Dir = t.TempDir()
			w, recorder := startWatcher(t, opts)

			writeRaw(t, opts.Dir, "broken.json", []byte("{{{"))
			require.NoError(t, os.WriteFile(filepath.Join(opts.Dir, "README.md"), []byte("hi"), 0644))
			recorder.none(t, 300*time.Millisecond)

			// the loop is still alive afterwards
			writeRecord(t, opts.Dir, "ok.json", sampleRecord("ok"))
			event := recorder.next(t, eventTimeout)
			assert.Equal(t, "ok", event.Session.ID)
			assert.Equal(t, StateWatching, w.State())
		})
	}
}

func TestWatcher_DistinguishAddsSeedsFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	existing := writeRecord(t, dir, "existing.json", sampleRecord("existing"))
	_, recorder := startWatcher(t, WatcherOptions{Dir: dir, BatchWindow: 20 * time.Millisecond, DistinguishAdds: true})

	writeRecord(t, dir, "brand-new.json", sampleRecord("brand-new"))
	event := recorder.next(t, eventTimeout)
	assert.Equal(t, models.SessionEventAdd, event.EventType)

	updated := sampleRecord("existing")
	updated.Status = models.SessionStatusComplete
	writeRecord(t, dir, filepath.Base(existing), updated)
	event = recorder.next(t, eventTimeout)
	assert.Equal(t, models.SessionEventUpdate, event.EventType)
	assert.Equal(t, models.SessionStatusComplete, event.Session.Status)
}

func TestWatcher_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "sessions")
	startWatcher(t, WatcherOptions{Dir: dir})

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWatcher_SetupFailureIsTerminal(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	w := NewWatcher(WatcherOptions{Dir: filepath.Join(blocker, "sessions")}, newEventRecorder())
	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, w.State())
	assert.Equal(t, err, w.Err())

	select {
	case <-w.Done():
	default:
		t.Fatal("done should be closed after a setup failure")
	}

	assert.ErrorIs(t, w.Start(context.Background()), ErrAlreadyStarted)
	w.Stop()
	assert.Equal(t, StateError, w.State())
}

func TestWatcher_ContextCancelTerminates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(WatcherOptions{Dir: t.TempDir()}, newEventRecorder())
	require.NoError(t, w.Start(ctx))

	cancel()
	select {
	case <-w.Done():
	case <-time.After(eventTimeout):
		t.Fatal("watcher did not stop on context cancel")
	}
	assert.Equal(t, StateTerminated, w.State())
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	w := NewWatcher(WatcherOptions{Dir: t.TempDir()}, nil)
	w.Stop()
	assert.Equal(t, StateTerminated, w.State())
	assert.ErrorIs(t, w.Start(context.Background()), ErrAlreadyStarted)
}

func TestWatcher_PublishErrorsDoNotStopLoop(t *testing.T) {
	dir := t.TempDir()
	calls := make(chan string, 8)
	failing := SinkFunc(func(e *models.SessionEvent) error {
		calls <- e.Key()
		return assert.AnError
	})

	w := NewWatcher(WatcherOptions{Dir: dir, BatchWindow: 10 * time.Millisecond}, failing)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeRecord(t, dir, "one.json", sampleRecord("one"))
	writeRecord(t, dir, "two.json", sampleRecord("two"))

	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case id := <-calls:
			seen[id] = true
		case <-time.After(eventTimeout):
			t.Fatalf("only saw %v", seen)
		}
	}
	assert.Equal(t, StateWatching, w.State())
}

func TestWatcherState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "watching", StateWatching.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "WatcherState(9)", WatcherState(9).String())
}

// fakeSource is a changeSource driven by the test.
type fakeSource struct {
	batches chan []Change
	errors  chan error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		batches: make(chan []Change),
		errors:  make(chan error, 8),
	}
}

func (f *fakeSource) Batches() <-chan []Change { return f.batches }
func (f *fakeSource) Errors() <-chan error     { return f.errors }
func (f *fakeSource) Close() error             { return nil }

// shutdown closes both channels the way a real source does when it gives up.
func (f *fakeSource) shutdown(reason error) {
	if reason != nil {
		f.errors <- reason
	}
	close(f.batches)
	close(f.errors)
}

func startWithSource(t *testing.T, dir string, src changeSource) (*Watcher, *eventRecorder) {
	t.Helper()
	recorder := newEventRecorder()
	w := NewWatcher(WatcherOptions{Dir: dir}, recorder)
	w.open = func() (changeSource, error) { return src, nil }
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w, recorder
}

func TestWatcher_SourceErrorsAreLoggedAndLoopContinues(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	w, recorder := startWithSource(t, dir, src)

	src.errors <- errors.New("event queue overflow")
	path := writeRecord(t, dir, "abc123.json", sampleRecord("abc123"))
	src.batches <- []Change{{Path: path, Kind: ChangeCreated}}

	event := recorder.next(t, eventTimeout)
	assert.Equal(t, models.SessionEventUpdate, event.EventType)
	assert.Equal(t, "abc123", event.Key())
	assert.Equal(t, StateWatching, w.State())
	assert.NoError(t, w.Err())
}

func TestWatcher_SourceShutdownMovesToError(t *testing.T) {
	src := newFakeSource()
	w, _ := startWithSource(t, t.TempDir(), src)

	src.shutdown(errors.New("directory gone"))

	select {
	case <-w.Done():
	case <-time.After(eventTimeout):
		t.Fatal("watcher did not stop when its source closed")
	}
	assert.Equal(t, StateError, w.State())
	require.Error(t, w.Err())
	assert.ErrorIs(t, w.Err(), ErrSourceClosed)
	assert.Contains(t, w.Err().Error(), "directory gone")
}

func TestWatcher_StopIsNotAnError(t *testing.T) {
	src := newFakeSource()
	w, _ := startWithSource(t, t.TempDir(), src)

	w.Stop()
	assert.Equal(t, StateTerminated, w.State())
	assert.NoError(t, w.Err())
}

func TestWatcher_SurvivesDirectoryRecreate(t *testing.T) {
	for mode, opts := range watcherModes("") {
		t.Run(mode, func(t *testing.T) {
			opts.Dir = filepath.Join(t.TempDir(), "sessions")
			w, recorder := startWatcher(t, opts)

			require.NoError(t, os.RemoveAll(opts.Dir))
			require.NoError(t, os.MkdirAll(opts.Dir, 0755))
			writeRecord(t, opts.Dir, "abc123.json", sampleRecord("abc123"))

			event := recorder.next(t, eventTimeout)
			assert.Equal(t, models.SessionEventUpdate, event.EventType)
			assert.Equal(t, "abc123", event.Key())
			assert.Equal(t, StateWatching, w.State())

			// later changes still arrive through the new watch
			require.NoError(t, os.Remove(filepath.Join(opts.Dir, "abc123.json")))
			assert.Eventually(t, func() bool {
				select {
				case e := <-recorder.ch:
					return e.EventType == models.SessionEventRemove && e.Key() == "abc123"
				default:
					return false
				}
			}, eventTimeout, 10*time.Millisecond)
		})
	}
}
