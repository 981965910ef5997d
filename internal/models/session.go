package models

// SessionStatus values written by the orchestrator. The field stays free-form
// text; these are the labels the dashboard knows how to style.
const (
	SessionStatusRegistered = "registered"
	SessionStatusPlanning   = "planning"
	SessionStatusWorking    = "working"
	SessionStatusStuck      = "stuck"
	SessionStatusPaused     = "paused"
	SessionStatusComplete   = "complete"
	SessionStatusCancelled  = "cancelled"
)

// SessionRecord is one orchestrated work session as stored in
// <sessionsDir>/<id>.json
type SessionRecord struct {
	ID               string          `json:"id"`
	IssueNumber      int             `json:"issueNumber"`
	IssueTitle       string          `json:"issueTitle"`
	Status           string          `json:"status"`
	Branch           string          `json:"branch"`
	WorktreePath     string          `json:"worktreePath"`
	StartedAt        string          `json:"startedAt"`
	LastHeartbeat    string          `json:"lastHeartbeat"`
	StuckReason      *string         `json:"stuckReason,omitempty"`
	ForwardedMessage *string         `json:"forwardedMessage,omitempty"`
	PullRequestURL   *string         `json:"pullRequestUrl,omitempty"`
	WorktreeStatus   *WorktreeStatus `json:"worktreeStatus,omitempty"`
}

// WorktreeStatus summarises uncommitted work in the session's worktree.
// TestsPassing is nil when the orchestrator has not run tests yet.
type WorktreeStatus struct {
	FilesChanged      int     `json:"filesChanged"`
	Insertions        int     `json:"insertions"`
	Deletions         int     `json:"deletions"`
	LastCommitMessage *string `json:"lastCommitMessage,omitempty"`
	TestsPassing      *bool   `json:"testsPassing,omitempty"`
}

// SessionEventType tags a SessionEvent
type SessionEventType string

const (
	SessionEventAdd    SessionEventType = "add"
	SessionEventUpdate SessionEventType = "update"
	SessionEventRemove SessionEventType = "remove"
)

// SessionEventName is the channel name events are published under.
const SessionEventName = "session-event"

// SessionEvent is pushed to the UI whenever a record file changes. Session is
// set for add/update, SessionID for remove.
//
// Stem is the record's filename without extension. It is what removals are
// addressed by and is not part of the wire format.
type SessionEvent struct {
	EventType SessionEventType `json:"eventType"`
	Session   *SessionRecord   `json:"session"`
	SessionID *string          `json:"sessionId"`
	Stem      string           `json:"-"`
}

// NewUpsertEvent builds an add or update event carrying the full record.
func NewUpsertEvent(eventType SessionEventType, record *SessionRecord) *SessionEvent {
	return &SessionEvent{EventType: eventType, Session: record}
}

// NewRemoveEvent builds a remove event for the given session id.
func NewRemoveEvent(sessionID string) *SessionEvent {
	return &SessionEvent{EventType: SessionEventRemove, SessionID: &sessionID, Stem: sessionID}
}

// Key returns the file stem the event refers to, falling back to the payload
// id for events built without one.
func (e *SessionEvent) Key() string {
	if e.SessionID != nil {
		return *e.SessionID
	}
	if e.Stem != "" {
		return e.Stem
	}
	if e.Session != nil {
		return e.Session.ID
	}
	return ""
}
