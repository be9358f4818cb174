package models

// Utterance is one speaker-attributed, time-bounded transcript segment.
// Its index in the transcript is what note entries reference.
type Utterance struct {
	Start   float64 `json:"start" yaml:"start"`
	End     float64 `json:"end" yaml:"end"`
	Text    string  `json:"text" yaml:"text"`
	Speaker string  `json:"speaker" yaml:"speaker"`
}
