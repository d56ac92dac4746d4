// Package checkout tracks the close-out of a transaction: one submit at a
// time, with the outcome kept until the operator edits again.
package checkout

import (
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// State is the submission state.
type State string

const (
	Editing    State = "EDITING"
	Submitting State = "SUBMITTING"
	Succeeded  State = "SUCCEEDED"
	Failed     State = "FAILED"
)

// Snapshot is the externally visible submission status.
type Snapshot struct {
	State       State      `json:"state"`
	Document    string     `json:"document,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// Submission is the EDITING → SUBMITTING → SUCCEEDED|FAILED state machine.
// It is not safe for concurrent use; the owning workspace serialises access.
type Submission struct {
	state       State
	document    string
	reason      string
	submittedAt time.Time
	now         func() time.Time
}

// New returns a submission in EDITING.
func New() *Submission {
	return &Submission{state: Editing, now: time.Now}
}

// State returns the current state.
func (s *Submission) State() State { return s.state }

// InFlight reports whether a submit is outstanding.
func (s *Submission) InFlight() bool { return s.state == Submitting }

// Begin moves to SUBMITTING. It fails with ErrBusy while a submit is outstanding.
func (s *Submission) Begin() error {
	if s.state == Submitting {
		return shared.ErrBusy
	}
	s.state = Submitting
	s.document = ""
	s.reason = ""
	s.submittedAt = s.now()
	return nil
}

// Succeed records the document number acknowledged by the backend.
func (s *Submission) Succeed(document string) {
	if s.state != Submitting {
		return
	}
	s.state = Succeeded
	s.document = document
}

// Fail records the reason the submit was rejected.
func (s *Submission) Fail(reason string) {
	if s.state != Submitting {
		return
	}
	s.state = Failed
	s.reason = reason
}

// Touch marks an edit. A finished outcome returns to EDITING; an edit while
// submitting is refused with ErrBusy.
func (s *Submission) Touch() error {
	switch s.state {
	case Submitting:
		return shared.ErrBusy
	case Succeeded, Failed:
		s.state = Editing
		s.document = ""
		s.reason = ""
	}
	return nil
}

// Snapshot returns the current status.
func (s *Submission) Snapshot() Snapshot {
	snap := Snapshot{State: s.state, Document: s.document, Reason: s.reason}
	if s.state != Editing && !s.submittedAt.IsZero() {
		at := s.submittedAt
		snap.SubmittedAt = &at
	}
	return snap
}
