package jobs

import (
	"errors"
	"fmt"
)

// TimeoutMessage is the error stored on a job whose step ran past its deadline.
const TimeoutMessage = "Processing timed out"

var (
	// ErrUnsupportedFormat is returned by Submit for a filename whose
	// extension is not an accepted audio type. No job is created.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrNotFound is returned when an id does not match any stored recording.
	ErrNotFound = errors.New("recording not found")

	// ErrNotReady is returned by Result while the job is still running.
	ErrNotReady = errors.New("processing not complete")

	// ErrTimeout is returned by a step that ran past its deadline.
	ErrTimeout = errors.New("processing timed out")

	// ErrSaveFailed wraps any failure to spool uploaded audio to disk.
	ErrSaveFailed = errors.New("error saving audio file")

	// ErrQueueFull is returned by Schedule when no queue slot is free.
	ErrQueueFull = errors.New("job queue is full")

	// ErrSchedulerClosed is returned by Schedule after Close.
	ErrSchedulerClosed = errors.New("scheduler is closed")

	// ErrDuplicateID is returned by Put for an id that is already stored.
	ErrDuplicateID = errors.New("recording id already exists")
)

// JobFailedError is returned by Result for a failed job. Message is the
// error text captured when the job failed.
type JobFailedError struct {
	ID      string
	Message string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("recording %s failed: %s", e.ID, e.Message)
}
