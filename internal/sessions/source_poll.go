package sessions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/recovery"
)

type fileStamp struct {
	size    int64
	modTime time.Time
}

func (f fileStamp) changed(other fileStamp) bool {
	return f.size != other.size || !f.modTime.Equal(other.modTime)
}

// pollSource rescans the directory every interval and diffs size and
// modification time against the previous scan. Two writes inside one interval
// that leave both unchanged are not observed.
type pollSource struct {
	dir       string
	interval  time.Duration
	known     map[string]fileStamp
	batches   chan []Change
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
}

func newPollSource(dir string, interval time.Duration) (*pollSource, error) {
	if interval <= 0 {
		interval = time.Second
	}
	initial, err := scanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	s := &pollSource{
		dir:      dir,
		interval: interval,
		known:    initial,
		batches:  make(chan []Change),
		errors:   make(chan error, 8),
		done:     make(chan struct{}),
	}
	recovery.SafeGoWithCleanup("sessions-poller", s.run, func() {
		close(s.batches)
		close(s.errors)
	})
	return s, nil
}

func (s *pollSource) Batches() <-chan []Change { return s.batches }
func (s *pollSource) Errors() <-chan error     { return s.errors }

func (s *pollSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

func (s *pollSource) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Only the first failed scan of a run is reported.
	failing := false

	for {
		select {
		case <-ticker.C:
			batch, err := s.poll()
			if err != nil {
				if failing {
					logger.Debugf("📂 Sessions directory still unreadable: %v", err)
					continue
				}
				failing = true
				select {
				case s.errors <- err:
				default:
				}
				continue
			}
			if failing {
				failing = false
				logger.Infof("📂 Sessions directory readable again: %s", s.dir)
			}
			if len(batch) == 0 {
				continue
			}
			select {
			case s.batches <- batch:
			case <-s.done:
				return
			}
		case <-s.done:
			return
		}
	}
}

// poll scans once and returns the differences since the last scan.
func (s *pollSource) poll() ([]Change, error) {
	current, err := scanDir(s.dir)
	if err != nil {
		return nil, err
	}

	var batch []Change
	for _, name := range sortedKeys(current) {
		stamp := current[name]
		prev, seen := s.known[name]
		switch {
		case !seen:
			batch = append(batch, Change{Path: filepath.Join(s.dir, name), Kind: ChangeCreated})
		case prev.changed(stamp):
			batch = append(batch, Change{Path: filepath.Join(s.dir, name), Kind: ChangeModified})
		}
	}
	for _, name := range sortedKeys(s.known) {
		if _, still := current[name]; !still {
			batch = append(batch, Change{Path: filepath.Join(s.dir, name), Kind: ChangeRemoved})
		}
	}

	s.known = current
	return batch, nil
}

func scanDir(dir string) (map[string]fileStamp, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	stamps := make(map[string]fileStamp, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		stamps[entry.Name()] = fileStamp{size: info.Size(), modTime: info.ModTime()}
	}
	return stamps, nil
}

func sortedKeys(m map[string]fileStamp) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
