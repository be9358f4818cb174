package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/soapscribe/soapscribe/internal/jobs"
	"github.com/soapscribe/soapscribe/internal/llm"
	"github.com/soapscribe/soapscribe/internal/projectconfig"
	"github.com/soapscribe/soapscribe/internal/retry"
	"github.com/soapscribe/soapscribe/internal/soapnote"
	"github.com/soapscribe/soapscribe/internal/transcription"
)

// newCompleter builds the configured language model backend. The returned
// close func releases backend resources. Tests replace it.
var newCompleter = func(ctx context.Context, cfg *projectconfig.ProjectConfig, logger *slog.Logger) (llm.Completer, func() error, error) {
	switch cfg.Generation.Provider {
	case projectconfig.ProviderGemini:
		g, err := llm.NewGemini(ctx, llm.GeminiOptions{
			APIKey:     cfg.Generation.APIKey,
			Model:      cfg.Generation.Model,
			HTTPClient: &http.Client{Timeout: cfg.HTTPClientTimeout()},
		})
		if err != nil {
			return nil, nil, err
		}
		return g, func() error { return nil }, nil
	case projectconfig.ProviderCopilot:
		model := cfg.Generation.Model
		if model == projectconfig.DefaultGeminiModel {
			// Let the Copilot CLI pick its own default.
			model = ""
		}
		c := llm.NewCopilot(llm.CopilotOptions{Model: model, Logger: logger})
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown generation provider %q", cfg.Generation.Provider)
	}
}

func retryPolicy(cfg *projectconfig.ProjectConfig) retry.Policy {
	return retry.Policy{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.RetryInitialDelay(),
		MaxDelay:     cfg.RetryMaxDelay(),
	}
}

// pipeline is everything a job needs besides its scheduler and store.
type pipeline struct {
	transcriber transcription.Transcriber
	generator   soapnote.NoteGenerator
	close       func() error
}

func newPipeline(ctx context.Context, cfg *projectconfig.ProjectConfig, logger *slog.Logger) (*pipeline, error) {
	strategy := retry.NewWholeCall(retryPolicy(cfg), logger)

	completer, closeCompleter, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		transcriber: transcription.NewClient(transcription.Options{
			APIKey:       cfg.Transcription.APIKey,
			BaseURL:      cfg.Transcription.BaseURL,
			HTTPClient:   &http.Client{Timeout: cfg.HTTPClientTimeout()},
			PollInterval: cfg.PollInterval(),
			Retry:        strategy,
			Logger:       logger,
		}),
		generator: soapnote.NewGenerator(soapnote.GeneratorOptions{
			Completer: completer,
			Retry:     strategy,
			Logger:    logger,
		}),
		close: closeCompleter,
	}, nil
}

func (p *pipeline) orchestrator(cfg *projectconfig.ProjectConfig, store jobs.Store, scheduler jobs.Scheduler, spool *jobs.Spool, logger *slog.Logger) *jobs.Orchestrator {
	return jobs.NewOrchestrator(jobs.Options{
		Store:                store,
		Scheduler:            scheduler,
		Spool:                spool,
		Transcriber:          p.transcriber,
		Generator:            p.generator,
		TranscriptionTimeout: cfg.TranscriptionTimeout(),
		GenerationTimeout:    cfg.GenerationTimeout(),
		Logger:               logger,
	})
}
