// Package webapi exposes recording submission and lookup over HTTP.
package webapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/soapscribe/soapscribe/internal/jobs"
	"github.com/soapscribe/soapscribe/internal/models"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// AudioFormField is the multipart field carrying the uploaded audio.
const AudioFormField = "audio_file"

// Response messages that clients match on.
const (
	msgUnsupportedFile = "Unsupported file type. Please upload WAV, MP3, MP4, or M4A"
	msgSaveFailed      = "Error saving audio file"
	msgNotFound        = "Recording not found"
	msgNotReady        = "Processing not complete"
	msgBusy            = "Server is busy, try again later"
	msgProcessing      = "processing_started"
)

// RecordingService is the job lifecycle the handlers drive.
type RecordingService interface {
	Create(ctx context.Context) (*models.Recording, error)
	Submit(ctx context.Context, audio io.Reader, filename string) (string, error)
	Status(id string) (models.RecordingStatus, error)
	Result(id string) (*models.SOAPNote, error)
}

var _ RecordingService = (*jobs.Orchestrator)(nil)

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	svc    RecordingService
	logger *slog.Logger
}

// NewHandlers creates a new Handlers with the given service.
func NewHandlers(svc RecordingService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
	})
}

// HandleStartRecording allocates an empty recording.
func (h *Handlers) HandleStartRecording(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Create(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StartRecordingResponse{RecordingID: rec.ID})
}

// HandleProcessFile streams the uploaded audio into a new job.
func (h *Handlers) HandleProcessFile(w http.ResponseWriter, r *http.Request) {
	part, err := audioPart(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	defer part.Close()

	id, err := h.svc.Submit(r.Context(), part, part.FileName())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ProcessFileResponse{RecordingID: id, Status: msgProcessing})
	case errors.Is(err, jobs.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, msgUnsupportedFile)
	case errors.Is(err, jobs.ErrSaveFailed):
		writeError(w, http.StatusInternalServerError, msgSaveFailed)
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrSchedulerClosed):
		writeError(w, http.StatusServiceUnavailable, msgBusy)
	default:
		h.logger.ErrorContext(r.Context(), "submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// HandleStatus returns the job's lifecycle state.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgNotFound)
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: string(status)})
}

// HandleSOAPNote returns the finished note, or why there is none.
func (h *Handlers) HandleSOAPNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.Result(r.PathValue("id"))
	if err != nil {
		var failed *jobs.JobFailedError
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			writeError(w, http.StatusNotFound, msgNotFound)
		case errors.As(err, &failed):
			writeError(w, http.StatusInternalServerError, failed.Message)
		case errors.Is(err, jobs.ErrNotReady):
			writeError(w, http.StatusTooEarly, msgNotReady)
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// audioPart finds the audio file part without buffering the whole body.
func audioPart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, errors.New("request must be multipart/form-data")
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New(AudioFormField + " is required")
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == AudioFormField && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, svc RecordingService, logger *slog.Logger) {
	h := NewHandlers(svc, logger)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /record/start", h.HandleStartRecording)
	mux.HandleFunc("POST /process-file", h.HandleProcessFile)
	mux.HandleFunc("GET /status/{id}", h.HandleStatus)
	mux.HandleFunc("GET /soap-note/{id}", h.HandleSOAPNote)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowed[origin] || allowed["*"]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Detail: msg, Code: code})
}
