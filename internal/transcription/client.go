// Package transcription acquires speaker-labeled transcripts from an
// AssemblyAI-compatible REST provider.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/soapscribe/soapscribe/internal/models"
	"github.com/soapscribe/soapscribe/internal/retry"
)

// DefaultBaseURL is the AssemblyAI v2 API root.
const DefaultBaseURL = "https://api.assemblyai.com/v2"

// DefaultPollInterval is the wait between status checks.
const DefaultPollInterval = 5 * time.Second

// Provider job states.
const (
	jobStatusCompleted = "completed"
	jobStatusError     = "error"
)

// Transcriber turns an audio file into an ordered utterance sequence.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.Utterance, error)
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	Retry        retry.Strategy
	Logger       *slog.Logger
}

// Client is a Transcriber speaking the AssemblyAI v2 protocol:
// upload, submit, then poll until the job is terminal.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	retry        retry.Strategy
	logger       *slog.Logger
}

var _ Transcriber = (*Client)(nil)

func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:       opts.APIKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		httpClient:   opts.HTTPClient,
		pollInterval: opts.PollInterval,
		retry:        opts.Retry,
		logger:       opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.retry == nil {
		c.retry = retry.NewWholeCall(retry.DefaultPolicy(), c.logger)
	}
	return c
}

// Transcribe runs a full acquisition. Each retry attempt starts again from
// the upload, so a failed attempt may leave an orphaned upload or job on the
// provider side.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]models.Utterance, error) {
	var utterances []models.Utterance
	err := c.retry.Do(ctx, "transcription", func(ctx context.Context) error {
		u, err := c.transcribeOnce(ctx, audioPath)
		if err != nil {
			return err
		}
		utterances = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return utterances, nil
}

func (c *Client) transcribeOnce(ctx context.Context, audioPath string) ([]models.Utterance, error) {
	uploadURL, err := c.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	jobID, err := c.submit(ctx, uploadURL)
	if err != nil {
		return nil, &AcquisitionError{Phase: PhaseSubmit, Err: err}
	}
	c.logger.DebugContext(ctx, "transcription submitted", "transcript_id", jobID)

	payload, err := c.poll(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return payload.toUtterances(), nil
}

func (c *Client) upload(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		// A missing or unreadable local file will not fix itself.
		return "", retry.Permanent(&AcquisitionError{Phase: PhaseUpload, Err: err})
	}
	defer f.Close()

	req, err := c.newRequest(ctx, http.MethodPost, "/upload", f)
	if err != nil {
		return "", &AcquisitionError{Phase: PhaseUpload, Err: err}
	}
	if st, err := f.Stat(); err == nil {
		req.ContentLength = st.Size()
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return "", &AcquisitionError{Phase: PhaseUpload, Err: err}
	}
	if out.UploadURL == "" {
		return "", &AcquisitionError{Phase: PhaseUpload, Err: errors.New("response missing upload_url")}
	}
	return out.UploadURL, nil
}

type submitRequest struct {
	AudioURL       string `json:"audio_url"`
	SpeakerLabels  bool   `json:"speaker_labels"`
	AutoHighlights bool   `json:"auto_highlights"`
}

func (c *Client) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(submitRequest{
		AudioURL:       audioURL,
		SpeakerLabels:  true,
		AutoHighlights: true,
	})
	if err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("response missing id")
	}
	return out.ID, nil
}

// poll checks the job until it is completed or errored. It has no bound of
// its own; the caller's context deadline stops it.
func (c *Client) poll(ctx context.Context, jobID string) (*transcriptPayload, error) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		req, err := c.newRequest(ctx, http.MethodGet, "/transcript/"+jobID, nil)
		if err != nil {
			return nil, &AcquisitionError{Phase: PhasePoll, Err: err}
		}
		var raw map[string]any
		if err := c.doJSON(req, &raw); err != nil {
			return nil, &AcquisitionError{Phase: PhasePoll, Err: err}
		}

		payload, err := decodeTranscript(raw)
		if err != nil {
			return nil, &AcquisitionError{Phase: PhaseDecode, Err: err}
		}

		switch payload.Status {
		case jobStatusCompleted:
			return payload, nil
		case jobStatusError:
			return nil, &AcquisitionError{Phase: PhasePoll, Err: &ProviderError{Message: payload.Error}}
		}

		c.logger.DebugContext(ctx, "transcription pending", "transcript_id", jobID, "status", payload.Status)
		timer.Reset(c.pollInterval)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("authorization", c.apiKey)
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &ProviderError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
