package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/soapscribe/soapscribe/internal/jobs"
	"github.com/soapscribe/soapscribe/internal/models"
	"github.com/soapscribe/soapscribe/internal/projectconfig"
	"github.com/soapscribe/soapscribe/internal/soapnote"
	"github.com/soapscribe/soapscribe/internal/spinner"
	"github.com/soapscribe/soapscribe/internal/transcription"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Output formats understood by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// defaultTextWidth is used when stdout is not a terminal.
const defaultTextWidth = 100

type processOptions struct {
	format         string
	showTranscript bool
}

func newProcessCommand(root *rootOptions) *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Transcribe one recording and print its SOAP note",
		Long: `Run a single audio file through transcription and note generation without
starting the server, then print the resulting record.

The output format defaults to text on a terminal and json otherwise.
Exits with code 1 when the recording fails to process.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := projectconfig.Load(root.projectDir)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			format := opts.format
			if format == "" {
				format = defaultFormat(cmd.OutOrStdout())
			}
			if err := checkFormat(format); err != nil {
				return err
			}

			onPhase := func(string) {}
			var progress *spinner.Spinner
			if isTerminal(cmd.ErrOrStderr()) {
				progress = spinner.Start(cmd.ErrOrStderr(), "Uploading "+filepath.Base(args[0]))
				onPhase = progress.SetMessage
			}
			rec, err := processFile(cmd.Context(), cfg, args[0], slog.Default(), onPhase)
			if progress != nil {
				progress.Stop()
			}
			if err != nil {
				return err
			}
			if err := writeRecording(cmd.OutOrStdout(), rec, format, opts.showTranscript); err != nil {
				return err
			}
			if rec.Status == models.StatusFailed {
				return &jobs.JobFailedError{ID: rec.ID, Message: rec.Error}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&opts.showTranscript, "transcript", false, "Include the transcript in text output")

	return cmd
}

// processFile runs one job to completion on a single worker and returns its
// final record. onPhase is told when each pipeline step starts.
func processFile(ctx context.Context, cfg *projectconfig.ProjectConfig, path string, logger *slog.Logger, onPhase func(string)) (*models.Recording, error) {
	if !jobs.SupportedFormat(path) {
		return nil, fmt.Errorf("%w: %s", jobs.ErrUnsupportedFormat, filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	spoolDir, err := os.MkdirTemp("", "soapscribe-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(spoolDir)

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := p.close(); err != nil {
			logger.Warn("closing generation backend", "error", err)
		}
	}()

	p.transcriber = phaseTranscriber{Transcriber: p.transcriber, onPhase: onPhase}
	p.generator = phaseGenerator{NoteGenerator: p.generator, onPhase: onPhase}

	pool := jobs.NewPool(ctx, 1, 1, logger)
	orch := p.orchestrator(cfg, jobs.NewMemoryStore(jobs.KeepForever{}), pool, jobs.NewSpool(spoolDir), logger)

	id, err := orch.Submit(ctx, f, filepath.Base(path))
	if closeErr := pool.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	return orch.Get(id)
}

// Phase messages reported while a single recording is processed.
const (
	phaseTranscribing = "Transcribing audio"
	phaseGenerating   = "Generating SOAP note"
)

type phaseTranscriber struct {
	transcription.Transcriber
	onPhase func(string)
}

func (t phaseTranscriber) Transcribe(ctx context.Context, audioPath string) ([]models.Utterance, error) {
	t.onPhase(phaseTranscribing)
	return t.Transcriber.Transcribe(ctx, audioPath)
}

type phaseGenerator struct {
	soapnote.NoteGenerator
	onPhase func(string)
}

func (g phaseGenerator) Generate(ctx context.Context, utterances []models.Utterance) (*models.SOAPNote, error) {
	g.onPhase(phaseGenerating)
	return g.NoteGenerator.Generate(ctx, utterances)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func defaultFormat(w io.Writer) string {
	if isTerminal(w) {
		return formatText
	}
	return formatJSON
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func writeRecording(w io.Writer, rec *models.Recording, format string, showTranscript bool) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(rec)
	default:
		writeRecordingText(w, rec, showTranscript, textWidth(w))
		return nil
	}
}

func textWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTextWidth
}

func writeRecordingText(w io.Writer, rec *models.Recording, showTranscript bool, width int) {
	fmt.Fprintf(w, "Recording %s: %s\n", rec.ID, rec.Status)
	if rec.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", rec.Error)
	}

	if showTranscript && len(rec.Transcript) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Transcript")
		writeTranscriptTable(w, rec.Transcript, width)
	}

	if rec.SOAPNote == nil {
		return
	}
	fmt.Fprintln(w)
	if !showTranscript {
		writeNoteText(w, rec.SOAPNote)
		return
	}
	writeNoteWithSources(w, rec.SOAPNote, rec.Transcript, width)
}

// writeNoteWithSources prints each entry followed by the utterances it
// cites. Indices outside the transcript are skipped.
func writeNoteWithSources(w io.Writer, note *models.SOAPNote, transcript []models.Utterance, width int) {
	for i, section := range note.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, section.Name)
		for _, entry := range section.Entries {
			fmt.Fprintf(w, "  - %s%s\n", entry.Text, formatCitations(entry.SourceIndices))
			for _, u := range entry.Sources(transcript) {
				quote := fmt.Sprintf("      > %s: ", u.Speaker)
				textWidth := max(width-runewidth.StringWidth(quote), 10)
				fmt.Fprintf(w, "%s%s\n", quote, truncate(u.Text, textWidth))
			}
		}
	}
}

func writeTranscriptTable(w io.Writer, utterances []models.Utterance, width int) {
	indexWidth := len(fmt.Sprint(len(utterances) - 1))
	speakerWidth, spanWidth := 0, 0
	spans := make([]string, len(utterances))
	for i, u := range utterances {
		spans[i] = fmt.Sprintf("%.1f-%.1fs", u.Start, u.End)
		speakerWidth = max(speakerWidth, runewidth.StringWidth(u.Speaker))
		spanWidth = max(spanWidth, len(spans[i]))
	}

	for i, u := range utterances {
		prefix := fmt.Sprintf("  %*d  %s  %s  ", indexWidth, i, padRight(u.Speaker, speakerWidth), padRight(spans[i], spanWidth))
		textWidth := max(width-runewidth.StringWidth(prefix), 10)
		fmt.Fprintf(w, "%s%s\n", prefix, truncate(u.Text, textWidth))
	}
}

func formatCitations(indices []int) string {
	if len(indices) == 0 {
		return ""
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprint(idx)
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

// truncate shortens s to fit within maxWidth display columns.
func truncate(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "...")
}

// padRight pads s with spaces to the given display width.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
