// internal/server/handlers/analysis.go

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chanscope/internal/adapter/storage"
	"chanscope/internal/service/tasks"
)

// AnalysisHandler handles analysis-related HTTP requests
type AnalysisHandler struct {
	runner *tasks.Runner
	logger *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(runner *tasks.Runner, logger *zap.Logger) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{
		runner: runner,
		logger: logger,
	}
}

// StartAnalysis launches a background analysis of a channel and
// returns the task reference
func (h *AnalysisHandler) StartAnalysis(w http.ResponseWriter, r *http.Request) {
	channelID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid channel ID", err)
		return
	}

	task, err := h.runner.Start(r.Context(), channelID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "Channel not found", nil)
		} else {
			respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to start analysis", err)
		}
		return
	}

	respondWithJSON(w, http.StatusAccepted, task)
}

// GetTask returns an analysis task with its report once completed
func (h *AnalysisHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	if taskID == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "Missing task ID", nil)
		return
	}

	task, err := h.runner.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "Task not found", nil)
		} else {
			respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to get task", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, task)
}
