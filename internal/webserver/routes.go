package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/soapscribe/soapscribe/internal/webapi"
)

// registerRoutes sets up API routes on the given mux.
func registerRoutes(mux *http.ServeMux, cfg Config) {
	webapi.RegisterRoutes(mux, cfg.Service, cfg.Logger)
	mux.HandleFunc("/", handleNotFound)
}

// wrap applies CORS and response compression around the mux.
func wrap(mux http.Handler, cfg Config) http.Handler {
	return gzhttp.GzipHandler(webapi.CORSMiddleware(mux, cfg.AllowedOrigins...))
}

// handleNotFound returns a JSON 404 for unknown paths.
func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(webapi.ErrorResponse{Detail: "Not Found", Code: http.StatusNotFound}) //nolint:errcheck
}
