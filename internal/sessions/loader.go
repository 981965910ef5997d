package sessions

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppds/orchdash/internal/logger"
	"github.com/ppds/orchdash/internal/models"
)

type loadedRecord struct {
	id     string
	record *models.SessionRecord
}

// LoadAll reads every record file directly inside dir. Files that vanish,
// cannot be read or fail to decode are skipped. A missing or unreadable
// directory yields an empty slice.
func LoadAll(dir string) []*models.SessionRecord {
	loaded := loadDir(dir)
	records := make([]*models.SessionRecord, 0, len(loaded))
	for _, l := range loaded {
		records = append(records, l.record)
	}
	return records
}

// LoadByStem is LoadAll keyed by filename stem, the key removal events
// carry.
func LoadByStem(dir string) map[string]*models.SessionRecord {
	loaded := loadDir(dir)
	records := make(map[string]*models.SessionRecord, len(loaded))
	for _, l := range loaded {
		records[l.id] = l.record
	}
	return records
}

// LoadFile reads and decodes a single record file.
func LoadFile(path string) (*models.SessionRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return Decode(data)
}

// loadedIDs returns the filename stems of every valid record in dir.
func loadedIDs(dir string) []string {
	loaded := loadDir(dir)
	ids := make([]string, 0, len(loaded))
	for _, l := range loaded {
		ids = append(ids, l.id)
	}
	return ids
}

func loadDir(dir string) []loadedRecord {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debugf("📂 Sessions directory %s not readable: %v", dir, err)
		return nil
	}

	// os.ReadDir sorts by filename, so the result order is stable.
	var loaded []loadedRecord
	for _, entry := range entries {
		if entry.IsDir() || !IsRecordPath(entry.Name()) {
			continue
		}
		record, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Debugf("⏭️ Skipping session file %s: %v", entry.Name(), err)
			continue
		}
		loaded = append(loaded, loadedRecord{id: SessionIDFromPath(entry.Name()), record: record})
	}
	return loaded
}
