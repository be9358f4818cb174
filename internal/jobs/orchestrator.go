// Package jobs owns the recording lifecycle: accepting audio, running
// transcription and note generation in the background, and answering
// status and result lookups.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/soapscribe/soapscribe/internal/models"
	"github.com/soapscribe/soapscribe/internal/soapnote"
	"github.com/soapscribe/soapscribe/internal/transcription"
)

// Default step deadlines.
const (
	DefaultTranscriptionTimeout = 600 * time.Second
	DefaultGenerationTimeout    = 300 * time.Second
)

// supportedExtensions are matched case-insensitively.
var supportedExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
	".mp4": true,
	".m4a": true,
}

// Options configures NewOrchestrator. Store, Scheduler, Spool,
// Transcriber and Generator are required.
type Options struct {
	Store       Store
	Scheduler   Scheduler
	Spool       *Spool
	Transcriber transcription.Transcriber
	Generator   soapnote.NoteGenerator

	TranscriptionTimeout time.Duration
	GenerationTimeout    time.Duration

	Logger *slog.Logger
	// NewID allocates recording ids. Defaults to random UUIDs.
	NewID func() string
}

// Orchestrator drives recordings through created/processing to completed
// or failed.
type Orchestrator struct {
	store       Store
	scheduler   Scheduler
	spool       *Spool
	transcriber transcription.Transcriber
	generator   soapnote.NoteGenerator

	transcriptionTimeout time.Duration
	generationTimeout    time.Duration

	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		store:                opts.Store,
		scheduler:            opts.Scheduler,
		spool:                opts.Spool,
		transcriber:          opts.Transcriber,
		generator:            opts.Generator,
		transcriptionTimeout: opts.TranscriptionTimeout,
		generationTimeout:    opts.GenerationTimeout,
		logger:               opts.Logger,
		newID:                opts.NewID,
		now:                  time.Now,
	}
	if o.transcriptionTimeout <= 0 {
		o.transcriptionTimeout = DefaultTranscriptionTimeout
	}
	if o.generationTimeout <= 0 {
		o.generationTimeout = DefaultGenerationTimeout
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	return o
}

// SupportedFormat reports whether filename has an accepted audio extension.
func SupportedFormat(filename string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Create allocates an empty recording in the created state.
func (o *Orchestrator) Create(ctx context.Context) (*models.Recording, error) {
	rec := models.NewRecording(o.newID(), models.StatusCreated, o.now())
	if err := o.store.Put(rec); err != nil {
		return nil, err
	}
	o.logger.DebugContext(ctx, "recording created", "job_id", rec.ID)
	return rec, nil
}

// Submit validates filename, spools audio to disk and schedules the job.
// It returns as soon as the job is queued.
func (o *Orchestrator) Submit(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if !SupportedFormat(filename) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}

	id := o.newID()
	if err := o.store.Put(models.NewRecording(id, models.StatusProcessing, o.now())); err != nil {
		return "", err
	}

	path, err := o.spool.Save(id, filepath.Ext(filename), audio)
	if err != nil {
		o.logger.ErrorContext(ctx, "Error saving audio", "job_id", id, "error", err)
		o.fail(ctx, id, err)
		return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	if _, err := o.store.Update(id, func(rec *models.Recording) error {
		rec.AudioPath = path
		return nil
	}); err != nil {
		return "", err
	}

	if err := o.scheduler.Schedule(func(ctx context.Context) {
		o.RunJob(ctx, id, path)
	}); err != nil {
		o.logger.ErrorContext(ctx, "could not schedule job", "job_id", id, "error", err)
		o.fail(ctx, id, err)
		o.cleanup(ctx, id, path)
		return "", err
	}

	o.logger.InfoContext(ctx, "job accepted", "job_id", id, "filename", filename)
	return id, nil
}

// RunJob transcribes the audio at audioPath, generates the note and stores
// the outcome on the job. It never returns an error: every failure becomes
// the job's failed state. The audio file is removed whatever the outcome.
func (o *Orchestrator) RunJob(ctx context.Context, id, audioPath string) {
	defer o.cleanup(ctx, id, audioPath)

	utterances, err := runStep(ctx, o.transcriptionTimeout, func(ctx context.Context) ([]models.Utterance, error) {
		return o.transcriber.Transcribe(ctx, audioPath)
	})
	if err != nil {
		o.fail(ctx, id, err)
		return
	}
	o.logger.InfoContext(ctx, "transcription complete", "job_id", id, "utterances", len(utterances))

	if _, err := o.store.Update(id, func(rec *models.Recording) error {
		rec.Transcript = utterances
		return nil
	}); err != nil {
		o.fail(ctx, id, err)
		return
	}

	note, err := runStep(ctx, o.generationTimeout, func(ctx context.Context) (*models.SOAPNote, error) {
		return o.generator.Generate(ctx, utterances)
	})
	if err != nil {
		o.fail(ctx, id, err)
		return
	}

	if _, err := o.store.Update(id, func(rec *models.Recording) error {
		return rec.Complete(note)
	}); err != nil {
		o.fail(ctx, id, err)
		return
	}
	o.logger.InfoContext(ctx, "job completed", "job_id", id)
}

// Status returns the job's current state.
func (o *Orchestrator) Status(id string) (models.RecordingStatus, error) {
	rec, err := o.store.Get(id)
	if err != nil {
		return "", err
	}
	return rec.Status, nil
}

// Result returns the note of a completed job, ErrNotReady while it is
// still running, or a *JobFailedError carrying the stored message.
func (o *Orchestrator) Result(id string) (*models.SOAPNote, error) {
	rec, err := o.store.Get(id)
	if err != nil {
		return nil, err
	}
	switch rec.Status {
	case models.StatusCompleted:
		return rec.SOAPNote, nil
	case models.StatusFailed:
		return nil, &JobFailedError{ID: id, Message: rec.Error}
	default:
		return nil, ErrNotReady
	}
}

// Get returns a snapshot of the whole record.
func (o *Orchestrator) Get(id string) (*models.Recording, error) {
	return o.store.Get(id)
}

func (o *Orchestrator) fail(ctx context.Context, id string, cause error) {
	msg := cause.Error()
	if errors.Is(cause, ErrTimeout) {
		msg = TimeoutMessage
	}
	if msg == "" {
		msg = "unknown error"
	}
	o.logger.ErrorContext(ctx, "Processing failed", "job_id", id, "error", msg)

	if _, err := o.store.Update(id, func(rec *models.Recording) error {
		return rec.Fail(msg)
	}); err != nil {
		o.logger.ErrorContext(ctx, "could not record failure", "job_id", id, "error", err)
	}
}

func (o *Orchestrator) cleanup(ctx context.Context, id, path string) {
	if err := o.spool.Remove(path); err != nil {
		o.logger.ErrorContext(ctx, "Error removing audio file", "job_id", id, "path", path, "error", err)
		return
	}
	if _, err := o.store.Update(id, func(rec *models.Recording) error {
		rec.AudioPath = ""
		return nil
	}); err != nil && !errors.Is(err, ErrNotFound) {
		o.logger.WarnContext(ctx, "could not clear audio path", "job_id", id, "error", err)
	}
}

// runStep runs step under timeout. It returns ErrTimeout as soon as the
// deadline passes, even if step has not yet returned; step's context is
// cancelled at that point and its eventual result is discarded.
func runStep[T any](ctx context.Context, timeout time.Duration, step func(ctx context.Context) (T, error)) (T, error) {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := step(stepCtx)
		done <- result{val: val, err: err}
	}()

	var zero T
	select {
	case res := <-done:
		if res.err != nil && ctx.Err() == nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return res.val, res.err
	case <-stepCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrTimeout
	}
}
