package sessions

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ppds/orchdash/internal/config"
	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/recovery"
)

// fsnotifySource turns native notifications into change batches. Events
// arriving within window of the first pending event share a batch.
//
// Removing or moving the watched directory itself kills the native watch.
// The source then recreates the directory, watches it again and reports the
// files it finds as created. If that fails the source shuts down.
type fsnotifySource struct {
	dir       string
	watcher   *fsnotify.Watcher
	window    time.Duration
	batches   chan []Change
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
}

func newFsnotifySource(dir string, window time.Duration) (*fsnotifySource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	s := &fsnotifySource{
		dir:     filepath.Clean(dir),
		watcher: watcher,
		window:  window,
		batches: make(chan []Change),
		errors:  make(chan error, 8),
		done:    make(chan struct{}),
	}
	recovery.SafeGoWithCleanup("sessions-fsnotify", s.run, func() {
		close(s.batches)
		close(s.errors)
	})
	return s, nil
}

func (s *fsnotifySource) Batches() <-chan []Change { return s.batches }
func (s *fsnotifySource) Errors() <-chan error     { return s.errors }

func (s *fsnotifySource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}

func (s *fsnotifySource) run() {
	var pending batchBuilder
	var flushC <-chan time.Time

	events := s.watcher.Events
	errs := s.watcher.Errors

	for {
		select {
		case event, ok := <-events:
			if !ok {
				s.emit(pending.flush())
				return
			}
			if s.isDirectoryGone(event) {
				changes, err := s.reattach()
				if err != nil {
					s.report(fmt.Errorf("lost watch on %s: %w", s.dir, err))
					s.emit(pending.flush())
					return
				}
				if len(changes) == 0 {
					continue
				}
				for _, change := range changes {
					pending.add(change)
				}
			} else {
				change, relevant := translateEvent(event)
				if !relevant {
					continue
				}
				pending.add(change)
			}
			if s.window <= 0 {
				if !s.emit(pending.flush()) {
					return
				}
				continue
			}
			if flushC == nil {
				flushC = time.After(s.window)
			}

		case <-flushC:
			flushC = nil
			if !s.emit(pending.flush()) {
				return
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.report(err)

		case <-s.done:
			return
		}
	}
}

// report forwards an error without blocking; excess errors are dropped.
func (s *fsnotifySource) report(err error) {
	select {
	case s.errors <- err:
	default:
	}
}

func (s *fsnotifySource) isDirectoryGone(event fsnotify.Event) bool {
	return filepath.Clean(event.Name) == s.dir &&
		(event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename))
}

// reattach watches a fresh directory at the original path and lists what is
// already in it, since files written before the new watch produce no events.
func (s *fsnotifySource) reattach() ([]Change, error) {
	// A moved directory keeps its old watch; drop it first.
	_ = s.watcher.Remove(s.dir)

	if err := config.EnsureDir(s.dir); err != nil {
		return nil, err
	}
	if err := s.watcher.Add(s.dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	logger.Infof("🔁 Sessions directory %s was replaced, watching it again", s.dir)

	var changes []Change
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		changes = append(changes, Change{Path: filepath.Join(s.dir, entry.Name()), Kind: ChangeCreated})
	}
	return changes, nil
}

// emit hands a batch to the consumer unless the source is shutting down.
func (s *fsnotifySource) emit(batch []Change) bool {
	if len(batch) == 0 {
		return true
	}
	select {
	case s.batches <- batch:
		return true
	case <-s.done:
		return false
	}
}

// translateEvent maps an fsnotify event onto the canonical feed. Pure
// permission changes carry no content change and are dropped.
func translateEvent(event fsnotify.Event) (Change, bool) {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return Change{Path: event.Name, Kind: ChangeRemoved}, true
	case event.Has(fsnotify.Create):
		return Change{Path: event.Name, Kind: ChangeCreated}, true
	case event.Has(fsnotify.Write):
		return Change{Path: event.Name, Kind: ChangeModified}, true
	default:
		return Change{}, false
	}
}
