package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/soapscribe/soapscribe/internal/jobs"
	"github.com/soapscribe/soapscribe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockService implements RecordingService for testing.
type mockService struct {
	createErr error

	submitID   string
	submitErr  error
	gotName    string
	gotPayload string

	statuses map[string]models.RecordingStatus
	results  map[string]resultStub
}

type resultStub struct {
	note *models.SOAPNote
	err  error
}

func newMockService() *mockService {
	return &mockService{
		statuses: map[string]models.RecordingStatus{},
		results:  map[string]resultStub{},
	}
}

func (m *mockService) Create(context.Context) (*models.Recording, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return models.NewRecording("new-id", models.StatusCreated, time.Now()), nil
}

func (m *mockService) Submit(_ context.Context, audio io.Reader, filename string) (string, error) {
	b, err := io.ReadAll(audio)
	if err != nil {
		return "", err
	}
	m.gotName = filename
	m.gotPayload = string(b)
	return m.submitID, m.submitErr
}

func (m *mockService) Status(id string) (models.RecordingStatus, error) {
	s, ok := m.statuses[id]
	if !ok {
		return "", jobs.ErrNotFound
	}
	return s, nil
}

func (m *mockService) Result(id string) (*models.SOAPNote, error) {
	r, ok := m.results[id]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	return r.note, r.err
}

func newTestMux(svc RecordingService) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterRoutes(mux, svc, nil)
	return mux
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func doRequest(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHealthEndpoint(t *testing.T) {
	rec, body := doRequest(t, newTestMux(newMockService()), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestStartRecording(t *testing.T) {
	svc := newMockService()
	rec, body := doRequest(t, newTestMux(svc), httptest.NewRequest(http.MethodPost, "/record/start", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"recording_id": "new-id"}, body)

	svc.createErr = errors.New("store unavailable")
	rec, body = doRequest(t, newTestMux(svc), httptest.NewRequest(http.MethodPost, "/record/start", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "store unavailable", body["detail"])
}

func TestProcessFile(t *testing.T) {
	tests := []struct {
		name       string
		submitErr  error
		wantCode   int
		wantDetail string
	}{
		{name: "accepted", wantCode: http.StatusOK},
		{name: "unsupported", submitErr: fmt.Errorf("%w: %q", jobs.ErrUnsupportedFormat, "x.flac"), wantCode: http.StatusBadRequest, wantDetail: "Unsupported file type. Please upload WAV, MP3, MP4, or M4A"},
		{name: "save failed", submitErr: fmt.Errorf("%w: disk full", jobs.ErrSaveFailed), wantCode: http.StatusInternalServerError, wantDetail: "Error saving audio file"},
		{name: "queue full", submitErr: jobs.ErrQueueFull, wantCode: http.StatusServiceUnavailable, wantDetail: "Server is busy, try again later"},
		{name: "other", submitErr: errors.New("weird"), wantCode: http.StatusInternalServerError, wantDetail: "weird"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newMockService()
			svc.submitID = "job-1"
			svc.submitErr = tt.submitErr

			body, contentType := multipartBody(t, AudioFormField, "visit.WAV", "RIFF")
			req := httptest.NewRequest(http.MethodPost, "/process-file", body)
			req.Header.Set("Content-Type", contentType)

			rec, resp := doRequest(t, newTestMux(svc), req)
			require.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "visit.WAV", svc.gotName)
			assert.Equal(t, "RIFF", svc.gotPayload)

			if tt.wantCode == http.StatusOK {
				assert.Equal(t, map[string]any{"recording_id": "job-1", "status": "processing_started"}, resp)
				return
			}
			assert.Equal(t, tt.wantDetail, resp["detail"])
			assert.EqualValues(t, tt.wantCode, resp["code"])
		})
	}
}

func TestProcessFile_MissingFile(t *testing.T) {
	svc := newMockService()

	body, contentType := multipartBody(t, "other_field", "visit.wav", "RIFF")
	req := httptest.NewRequest(http.MethodPost, "/process-file", body)
	req.Header.Set("Content-Type", contentType)
	rec, resp := doRequest(t, newTestMux(svc), req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "audio_file is required", resp["detail"])

	req = httptest.NewRequest(http.MethodPost, "/process-file", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec, _ = doRequest(t, newTestMux(svc), req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, svc.gotName)
}

func TestStatus(t *testing.T) {
	svc := newMockService()
	svc.statuses["r1"] = models.StatusProcessing
	mux := newTestMux(svc)

	rec, body := doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/status/r1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "processing"}, body)

	rec, body = doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/status/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Recording not found", body["detail"])
}

func TestSOAPNote(t *testing.T) {
	note := &models.SOAPNote{Sections: []models.SOAPSection{
		{Name: models.SectionPlan, Entries: []models.SOAPEntry{{Text: "Rest", SourceIndices: []int{0, 2}}}},
	}}

	svc := newMockService()
	svc.results["done"] = resultStub{note: note}
	svc.results["running"] = resultStub{err: jobs.ErrNotReady}
	svc.results["broken"] = resultStub{err: &jobs.JobFailedError{ID: "broken", Message: "Processing timed out"}}
	mux := newTestMux(svc)

	tests := []struct {
		id         string
		wantCode   int
		wantDetail string
	}{
		{id: "nope", wantCode: http.StatusNotFound, wantDetail: "Recording not found"},
		{id: "running", wantCode: http.StatusTooEarly, wantDetail: "Processing not complete"},
		{id: "broken", wantCode: http.StatusInternalServerError, wantDetail: "Processing timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rec, body := doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/soap-note/"+tt.id, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantDetail, body["detail"])
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/soap-note/done", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"sections":[{"name":"Plan","entries":[{"text":"Rest","source_indices":[0,2]}]}]}`, rec.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware(newTestMux(newMockService()), "http://localhost:5173/")

	req := httptest.NewRequest(http.MethodOptions, "/process-file", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEndToEndWithOrchestrator(t *testing.T) {
	ctx := context.Background()
	pool := jobs.NewPool(ctx, 1, 4, nil)
	orch := jobs.NewOrchestrator(jobs.Options{
		Store:     jobs.NewMemoryStore(nil),
		Scheduler: pool,
		Spool:     jobs.NewSpool(filepath.Join(t.TempDir(), "audio")),
		Transcriber: transcriberFunc(func(context.Context, string) ([]models.Utterance, error) {
			return []models.Utterance{{Start: 0, End: 1, Speaker: "A", Text: "hello"}}, nil
		}),
		Generator: generatorFunc(func(context.Context, []models.Utterance) (*models.SOAPNote, error) {
			return &models.SOAPNote{Sections: []models.SOAPSection{}}, nil
		}),
	})
	mux := newTestMux(orch)

	body, contentType := multipartBody(t, AudioFormField, "visit.mp3", "ID3")
	req := httptest.NewRequest(http.MethodPost, "/process-file", body)
	req.Header.Set("Content-Type", contentType)
	rec, resp := doRequest(t, mux, req)
	require.Equal(t, http.StatusOK, rec.Code)
	id := resp["recording_id"].(string)

	require.NoError(t, pool.Close())

	rec, resp = doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/status/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "completed", resp["status"])

	rec, resp = doRequest(t, mux, httptest.NewRequest(http.MethodGet, "/soap-note/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{}, resp["sections"])

	body, contentType = multipartBody(t, AudioFormField, "visit.ogg", "OggS")
	req = httptest.NewRequest(http.MethodPost, "/process-file", body)
	req.Header.Set("Content-Type", contentType)
	rec, _ = doRequest(t, mux, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type transcriberFunc func(ctx context.Context, audioPath string) ([]models.Utterance, error)

func (f transcriberFunc) Transcribe(ctx context.Context, audioPath string) ([]models.Utterance, error) {
	return f(ctx, audioPath)
}

type generatorFunc func(ctx context.Context, utterances []models.Utterance) (*models.SOAPNote, error)

func (f generatorFunc) Generate(ctx context.Context, utterances []models.Utterance) (*models.SOAPNote, error) {
	return f(ctx, utterances)
}
