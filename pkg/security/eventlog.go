package security

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
)

// EventKind names the category of a logged security event.
type EventKind string

const (
	EventPathRejected     EventKind = "path-rejected"
	EventProposalBlocked  EventKind = "proposal-blocked"
	EventSubprocessKilled EventKind = "subprocess-killed"
	EventRateLimited      EventKind = "rate-limited"
)

// Event is one append-only, JSON-lines security log entry.
type Event struct {
	Time    time.Time `json:"time"`
	Kind    EventKind `json:"kind"`
	Path    string    `json:"path,omitempty"`
	Rule    string    `json:"rule,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	HookID  string    `json:"hook_id,omitempty"`
	AgentID string    `json:"agent_id,omitempty"`
}

// EventLog appends security events to a JSON-lines file, one gate failure
// per line, so an operator can audit every rejected write or killed
// subprocess after the fact (spec §4.11).
type EventLog struct {
	mu   sync.Mutex
	path string
}

// NewEventLog returns an append-only event log at path; the file is created
// on the first Append.
func NewEventLog(path string) *EventLog {
	return &EventLog{path: path}
}

// Append writes ev as a single JSON line. ev.Time is written as the caller
// set it; Append does not stamp it.
func (l *EventLog) Append(ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "open security event log: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(ev); err != nil {
		return crkerr.Wrapf(crkerr.ClassFilesystem, "write security event: %w", err)
	}
	return nil
}

// ReadAll loads every recorded event, in append order. Used by tests and by
// any audit/report tooling that summarizes security-gate activity.
func (l *EventLog) ReadAll() ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, crkerr.Wrapf(crkerr.ClassFilesystem, "open security event log: %w", err)
	}
	defer f.Close()

	var events []Event
	dec := json.NewDecoder(f)
	for dec.More() {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			return nil, crkerr.Wrapf(crkerr.ClassParse, "decode security event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func (k EventKind) String() string {
	return string(k)
}
