// Package sessions watches the orchestrator's session directory and turns
// record file changes into SessionEvents for the UI.
package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppds/orchdash/internal/models"
)

// RecordExt is the extension of session record files.
const RecordExt = ".json"

// ErrDecode is wrapped by every Decode failure.
var ErrDecode = errors.New("invalid session record")

// wireRecord mirrors models.SessionRecord with pointer fields so that absent
// and null members can be told apart from zero values.
type wireRecord struct {
	ID               *string       `json:"id"`
	IssueNumber      *int          `json:"issueNumber"`
	IssueTitle       *string       `json:"issueTitle"`
	Status           *string       `json:"status"`
	Branch           *string       `json:"branch"`
	WorktreePath     *string       `json:"worktreePath"`
	StartedAt        *string       `json:"startedAt"`
	LastHeartbeat    *string       `json:"lastHeartbeat"`
	StuckReason      *string       `json:"stuckReason"`
	ForwardedMessage *string       `json:"forwardedMessage"`
	PullRequestURL   *string       `json:"pullRequestUrl"`
	WorktreeStatus   *wireWorktree `json:"worktreeStatus"`
}

type wireWorktree struct {
	FilesChanged      *int    `json:"filesChanged"`
	Insertions        *int    `json:"insertions"`
	Deletions         *int    `json:"deletions"`
	LastCommitMessage *string `json:"lastCommitMessage"`
	TestsPassing      *bool   `json:"testsPassing"`
}

// Decode parses one record file. Unknown members are ignored; missing or null
// required members, wrong member types and trailing data are errors.
func Decode(data []byte) (*models.SessionRecord, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var missing []string
	need := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	need("id", w.ID != nil)
	need("issueNumber", w.IssueNumber != nil)
	need("issueTitle", w.IssueTitle != nil)
	need("status", w.Status != nil)
	need("branch", w.Branch != nil)
	need("worktreePath", w.WorktreePath != nil)
	need("startedAt", w.StartedAt != nil)
	need("lastHeartbeat", w.LastHeartbeat != nil)
	if ws := w.WorktreeStatus; ws != nil {
		need("worktreeStatus.filesChanged", ws.FilesChanged != nil)
		need("worktreeStatus.insertions", ws.Insertions != nil)
		need("worktreeStatus.deletions", ws.Deletions != nil)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required field(s) %s", ErrDecode, strings.Join(missing, ", "))
	}

	record := &models.SessionRecord{
		ID:               *w.ID,
		IssueNumber:      *w.IssueNumber,
		IssueTitle:       *w.IssueTitle,
		Status:           *w.Status,
		Branch:           *w.Branch,
		WorktreePath:     *w.WorktreePath,
		StartedAt:        *w.StartedAt,
		LastHeartbeat:    *w.LastHeartbeat,
		StuckReason:      w.StuckReason,
		ForwardedMessage: w.ForwardedMessage,
		PullRequestURL:   w.PullRequestURL,
	}
	if ws := w.WorktreeStatus; ws != nil {
		record.WorktreeStatus = &models.WorktreeStatus{
			FilesChanged:      *ws.FilesChanged,
			Insertions:        *ws.Insertions,
			Deletions:         *ws.Deletions,
			LastCommitMessage: ws.LastCommitMessage,
			TestsPassing:      ws.TestsPassing,
		}
	}
	return record, nil
}

// Encode is the inverse of Decode, producing the on-disk representation.
func Encode(record *models.SessionRecord) ([]byte, error) {
	return json.MarshalIndent(record, "", "  ")
}

// IsRecordPath reports whether a path names a session record file.
func IsRecordPath(path string) bool {
	return strings.HasSuffix(path, RecordExt) && len(filepath.Base(path)) > len(RecordExt)
}

// SessionIDFromPath strips the directory and record extension from a path.
func SessionIDFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), RecordExt)
}
