package models

import (
	"fmt"
	"time"
)

// RecordingStatus is the lifecycle state of a submitted recording.
type RecordingStatus string

const (
	StatusCreated    RecordingStatus = "created"
	StatusProcessing RecordingStatus = "processing"
	StatusCompleted  RecordingStatus = "completed"
	StatusFailed     RecordingStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s RecordingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the four known states.
func (s RecordingStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition enforces the recording state machine edges.
func (s RecordingStatus) CanTransition(to RecordingStatus) bool {
	switch s {
	case StatusCreated:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Recording is one submitted audio item and its processing record.
type Recording struct {
	ID        string          `json:"id" yaml:"id"`
	Status    RecordingStatus `json:"status" yaml:"status"`
	AudioPath string          `json:"audio_path,omitempty" yaml:"audio_path,omitempty"`
	// Transcript is set once acquisition succeeds and kept if generation fails.
	Transcript []Utterance `json:"transcript,omitempty" yaml:"transcript,omitempty"`
	SOAPNote   *SOAPNote   `json:"soap_note,omitempty" yaml:"soap_note,omitempty"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" yaml:"updated_at"`
}

// NewRecording returns a record in the given initial state.
func NewRecording(id string, status RecordingStatus, now time.Time) *Recording {
	return &Recording{
		ID:        id,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the record to status, rejecting edges the state machine
// does not allow. Re-entering the current state is a no-op.
func (r *Recording) Transition(status RecordingStatus) error {
	if status == r.Status {
		return nil
	}
	if !r.Status.CanTransition(status) {
		return fmt.Errorf("invalid transition: %s -> %s", r.Status, status)
	}
	r.Status = status
	return nil
}

// Complete stores the note and marks the record completed.
func (r *Recording) Complete(note *SOAPNote) error {
	if err := r.Transition(StatusCompleted); err != nil {
		return err
	}
	r.SOAPNote = note
	r.Error = ""
	return nil
}

// Fail records msg and marks the record failed.
func (r *Recording) Fail(msg string) error {
	if err := r.Transition(StatusFailed); err != nil {
		return err
	}
	r.SOAPNote = nil
	r.Error = msg
	return nil
}

// Clone returns a deep copy so callers never share slices with the store.
func (r *Recording) Clone() *Recording {
	if r == nil {
		return nil
	}
	out := *r
	if r.Transcript != nil {
		out.Transcript = append([]Utterance(nil), r.Transcript...)
	}
	out.SOAPNote = r.SOAPNote.Clone()
	return &out
}
