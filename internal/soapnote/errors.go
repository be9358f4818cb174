package soapnote

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("empty response from language model")

// Generation stages reported by GenerationError.
const (
	StageComplete = "completion"
	StageValidate = "validation"
)

// GenerationError reports which stage of note generation failed.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("note generation %s failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// SchemaError lists every schema violation found in a parsed note.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "note does not match schema: " + strings.Join(e.Problems, "; ")
}
