// internal/server/handlers/respond.go

package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, logger *zap.Logger, code int, message string, err error) {
	if err != nil && code >= 500 && logger != nil {
		logger.Error("request failed",
			zap.Int("code", code),
			zap.String("message", message),
			zap.Error(err))
	}

	response := map[string]string{"error": message}
	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}
