package webapi

// StartRecordingResponse is returned by POST /record/start.
type StartRecordingResponse struct {
	RecordingID string `json:"recording_id"`
}

// ProcessFileResponse is returned by POST /process-file.
type ProcessFileResponse struct {
	RecordingID string `json:"recording_id"`
	Status      string `json:"status"`
}

// StatusResponse is returned by GET /status/{id}.
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   int    `json:"code"`
}
