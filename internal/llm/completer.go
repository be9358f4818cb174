// Package llm hides the generative-language provider behind a single
// prompt-in, text-out interface.
package llm

import "context"

// Sampling holds the decoding parameters sent with a prompt.
type Sampling struct {
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
}

// NoteSampling is the fixed sampling used for clinical note generation.
var NoteSampling = Sampling{
	Temperature:     0.2,
	TopP:            0.8,
	MaxOutputTokens: 2000,
}

// Request is a single prompt to complete.
type Request struct {
	Prompt   string
	Sampling Sampling
}

// Completer produces the model's text for a prompt. An empty string with a
// nil error means the model answered with no text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
