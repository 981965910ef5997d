package sessions

import (
	"errors"
	"io/fs"
	"os"

	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/models"
)

// Synthesizer turns a change into a SessionEvent.
//
// The change kind only decides whether a read is attempted; the outcome is
// settled by whether the file exists when it is processed. A file deleted and
// recreated between the notification and the read is therefore reported as
// it is found, which can collapse a remove+add pair into a single update.
//
// A Synthesizer is not safe for concurrent use. The watcher goroutine is its
// only caller.
type Synthesizer struct {
	distinguishAdds bool
	known           map[string]struct{}
}

// NewSynthesizer creates a synthesizer. With distinguishAdds set, the first
// upsert seen for a session id is reported as "add" instead of "update".
func NewSynthesizer(distinguishAdds bool) *Synthesizer {
	return &Synthesizer{
		distinguishAdds: distinguishAdds,
		known:           make(map[string]struct{}),
	}
}

// Seed marks session ids as already known to the UI, typically from the
// snapshot taken at startup.
func (s *Synthesizer) Seed(ids ...string) {
	for _, id := range ids {
		s.known[id] = struct{}{}
	}
}

// Synthesize produces the event for one change, or false when the change
// yields nothing (unreadable or invalid record).
func (s *Synthesizer) Synthesize(change Change) (*models.SessionEvent, bool) {
	id := SessionIDFromPath(change.Path)

	if change.Kind != ChangeRemoved || pathExists(change.Path) {
		record, err := LoadFile(change.Path)
		switch {
		case err == nil:
			return s.upsert(id, record), true
		case !errors.Is(err, fs.ErrNotExist):
			logger.Debugf("⏭️ Ignoring change to %s: %v", change.Path, err)
			return nil, false
		}
	}

	delete(s.known, id)
	return models.NewRemoveEvent(id), true
}

func (s *Synthesizer) upsert(id string, record *models.SessionRecord) *models.SessionEvent {
	if record.ID != id {
		logger.Warnf("⚠️ Session file %s%s declares id %q; addressing it by filename", id, RecordExt, record.ID)
	}

	eventType := models.SessionEventUpdate
	if s.distinguishAdds {
		if _, seen := s.known[id]; !seen {
			eventType = models.SessionEventAdd
		}
	}
	s.known[id] = struct{}{}

	event := models.NewUpsertEvent(eventType, record)
	event.Stem = id
	return event
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
