package transcription

import "fmt"

// Phases of a single acquisition attempt, used in AcquisitionError.
const (
	PhaseUpload = "upload"
	PhaseSubmit = "submit"
	PhasePoll   = "poll"
	PhaseDecode = "decode"
)

// AcquisitionError reports which phase of an acquisition attempt failed.
type AcquisitionError struct {
	Phase string
	Err   error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("transcription %s failed: %v", e.Phase, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// ProviderError is a failure reported by the provider itself, either a
// non-2xx response or a job that finished with status "error".
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "provider reported error: " + e.Message
}
