package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// envelope is the response wrapper shared by every endpoint.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}

func respondSuccess(w http.ResponseWriter, data any, message, warning string) {
	writeJSON(w, http.StatusOK, envelope{
		Status:  "success",
		Data:    data,
		Message: message,
		Warning: warning,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Status: "error", Message: message})
}
