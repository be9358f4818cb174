// Package soapnote turns a transcript into a structured SOAP note: it
// builds the prompt, calls a language model, and parses and validates the
// answer.
package soapnote

import (
	"context"
	"log/slog"
	"strings"

	"github.com/soapscribe/soapscribe/internal/llm"
	"github.com/soapscribe/soapscribe/internal/models"
	"github.com/soapscribe/soapscribe/internal/retry"
)

// NoteGenerator produces a note from an ordered utterance sequence.
type NoteGenerator interface {
	Generate(ctx context.Context, utterances []models.Utterance) (*models.SOAPNote, error)
}

// GeneratorOptions configures NewGenerator.
type GeneratorOptions struct {
	Completer llm.Completer
	Retry     retry.Strategy
	Logger    *slog.Logger
}

// Generator is the NoteGenerator backed by an llm.Completer.
type Generator struct {
	completer llm.Completer
	retry     retry.Strategy
	logger    *slog.Logger
}

var _ NoteGenerator = (*Generator)(nil)

func NewGenerator(opts GeneratorOptions) *Generator {
	g := &Generator{
		completer: opts.Completer,
		retry:     opts.Retry,
		logger:    opts.Logger,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.retry == nil {
		g.retry = retry.NewWholeCall(retry.DefaultPolicy(), g.logger)
	}
	return g
}

// Generate prompts the model and parses its answer. Each retry re-invokes
// the model; an answer that fails validation is never re-parsed.
func (g *Generator) Generate(ctx context.Context, utterances []models.Utterance) (*models.SOAPNote, error) {
	prompt := BuildPrompt(utterances)

	var note *models.SOAPNote
	err := g.retry.Do(ctx, "soap_generation", func(ctx context.Context) error {
		text, err := g.completer.Complete(ctx, llm.Request{
			Prompt:   prompt,
			Sampling: llm.NoteSampling,
		})
		if err != nil {
			return &GenerationError{Stage: StageComplete, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			return ErrEmptyResponse
		}

		parsed := Parse(text)
		if err := Validate(parsed); err != nil {
			return &GenerationError{Stage: StageValidate, Err: err}
		}
		note = parsed
		return nil
	})
	if err != nil {
		g.logger.ErrorContext(ctx, "SOAP generation failed", "error", err)
		return nil, err
	}

	g.logger.DebugContext(ctx, "SOAP note generated", "sections", len(note.Sections))
	return note, nil
}
