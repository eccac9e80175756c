package web

import (
	"encoding/json"
	"errors"
	"net/http"

	windwatch "neurowind/agents/wind-watch"
	"neurowind/internal/neuro"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal response","code":"internal"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// errorStatus maps a cycle error to its HTTP status and code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, windwatch.ErrInvalidParams):
		return http.StatusBadRequest, "invalid_params"
	case errors.Is(err, neuro.ErrFetch):
		return http.StatusBadGateway, "fetch_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "an unexpected error occurred"
	}
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
