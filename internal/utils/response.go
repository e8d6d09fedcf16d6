// Package utils holds small HTTP response helpers shared by the server.
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/fetchkit/internal/logger"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape written by WriteError
type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes data as a 200 JSON response
func WriteJSON(w http.ResponseWriter, data any) {
	WriteJSONStatus(w, data, http.StatusOK)
}

// WriteJSONStatus writes data as a JSON response with the given status
func WriteJSONStatus(w http.ResponseWriter, data any, status int) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Warn("Failed to write JSON response", zap.Error(err))
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code, message string, status int) {
	WriteJSONStatus(w, ErrorBody{Error: code, Description: message}, status)
}
