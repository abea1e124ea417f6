// internal/server/handlers/channel.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chanscope/internal/adapter/storage"
	"chanscope/internal/domain/analysis"
	"chanscope/internal/domain/channel"
	"chanscope/internal/service/monitor"
)

// ChannelDirectory is the slice of channel storage the handler needs.
type ChannelDirectory interface {
	SaveChannel(ctx context.Context, c *channel.Channel) error
	GetChannel(ctx context.Context, id int64) (*channel.Channel, error)
	ListChannels(ctx context.Context, filter channel.Filter) ([]channel.Channel, error)
}

// PostSaver persists collected posts.
type PostSaver interface {
	SavePosts(ctx context.Context, posts []channel.Post) error
}

// ConnectionDirectory exposes the stored connection graph.
type ConnectionDirectory interface {
	GetConnectionsForChannel(ctx context.Context, channelID int64) ([]channel.Connection, error)
	ListConnections(ctx context.Context, minStrength float64, limit int) ([]channel.Connection, error)
	GetConnectionStats(ctx context.Context) (*storage.ConnectionStats, error)
}

// OverviewSource provides the system metrics snapshot.
type OverviewSource interface {
	LatestOverview(ctx context.Context) (*monitor.Overview, error)
}

// AlertSource serves the stored monitoring alert history.
type AlertSource interface {
	RecentAlerts(ctx context.Context, limit int) ([]monitor.Alert, error)
}

// ChannelHandler handles channel-related HTTP requests
type ChannelHandler struct {
	channels    ChannelDirectory
	posts       PostSaver
	connections ConnectionDirectory
	collector   analysis.PostSource
	overview    OverviewSource
	alerts      AlertSource
	logger      *zap.Logger
}

// NewChannelHandler creates a new channel handler. The collector,
// overview and alert sources may be nil; the corresponding endpoints
// then report the feature as unavailable.
func NewChannelHandler(channels ChannelDirectory, posts PostSaver, connections ConnectionDirectory, collector analysis.PostSource, overview OverviewSource, alerts AlertSource, logger *zap.Logger) *ChannelHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelHandler{
		channels:    channels,
		posts:       posts,
		connections: connections,
		collector:   collector,
		overview:    overview,
		alerts:      alerts,
		logger:      logger,
	}
}

// ListChannels returns channels matching the query filters
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	filter := channel.Filter{
		Theme: r.URL.Query().Get("theme"),
	}

	if verified := r.URL.Query().Get("verified"); verified != "" {
		v, err := strconv.ParseBool(verified)
		if err != nil {
			respondWithError(w, h.logger, http.StatusBadRequest, "Invalid verified parameter", err)
			return
		}
		filter.Verified = &v
	}

	if active := r.URL.Query().Get("active"); active != "" {
		filter.OnlyActive, _ = strconv.ParseBool(active)
	}

	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	channels, err := h.channels.ListChannels(r.Context(), filter)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to list channels", err)
		return
	}
	if channels == nil {
		channels = []channel.Channel{}
	}

	respondWithJSON(w, http.StatusOK, channels)
}

// GetChannel returns one channel with its connections
func (h *ChannelHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid channel ID", err)
		return
	}

	c, err := h.channels.GetChannel(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, h.logger, http.StatusNotFound, "Channel not found", nil)
		} else {
			respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to get channel", err)
		}
		return
	}

	connections, err := h.connections.GetConnectionsForChannel(r.Context(), id)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to get connections", err)
		return
	}
	if connections == nil {
		connections = []channel.Connection{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"channel":     c,
		"connections": connections,
	})
}

type importRequest struct {
	Username string `json:"username"`
	Limit    int    `json:"limit"`
}

// ImportChannel fetches a channel and its recent posts from the
// platform and stores them
func (h *ChannelHandler) ImportChannel(w http.ResponseWriter, r *http.Request) {
	if h.collector == nil {
		respondWithError(w, h.logger, http.StatusServiceUnavailable, "Collector not configured", nil)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" {
		respondWithError(w, h.logger, http.StatusBadRequest, "Missing username", nil)
		return
	}

	info, err := h.collector.GetChannelInfo(r.Context(), req.Username)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadGateway, "Failed to fetch channel", err)
		return
	}

	if err := h.channels.SaveChannel(r.Context(), info); err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to save channel", err)
		return
	}

	posts, err := h.collector.GetPosts(r.Context(), req.Username, req.Limit, nil)
	if err != nil {
		h.logger.Warn("post collection failed during import",
			zap.String("username", req.Username), zap.Error(err))
	}
	for i := range posts {
		posts[i].ChannelID = info.ID
	}
	if err := h.posts.SavePosts(r.Context(), posts); err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to save posts", err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"channel":        info,
		"imported_posts": len(posts),
	})
}

// GetConnections returns the strongest stored connections
func (h *ChannelHandler) GetConnections(w http.ResponseWriter, r *http.Request) {
	minStrength, _ := strconv.ParseFloat(r.URL.Query().Get("min_strength"), 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		connections []channel.Connection
		err         error
	)
	if channelID, parseErr := strconv.ParseInt(r.URL.Query().Get("channel_id"), 10, 64); parseErr == nil {
		connections, err = h.connections.GetConnectionsForChannel(r.Context(), channelID)
		if err == nil && minStrength > 0 {
			filtered := connections[:0]
			for _, conn := range connections {
				if conn.Strength >= minStrength {
					filtered = append(filtered, conn)
				}
			}
			connections = filtered
		}
	} else {
		connections, err = h.connections.ListConnections(r.Context(), minStrength, limit)
	}
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to list connections", err)
		return
	}
	if connections == nil {
		connections = []channel.Connection{}
	}

	respondWithJSON(w, http.StatusOK, connections)
}

// GetOverview returns the system-wide statistics snapshot
func (h *ChannelHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.connections.GetConnectionStats(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to get connection stats", err)
		return
	}

	payload := map[string]interface{}{
		"connections": stats,
	}

	if h.overview != nil {
		overview, err := h.overview.LatestOverview(r.Context())
		if err != nil {
			h.logger.Warn("metrics overview unavailable", zap.Error(err))
		} else {
			payload["system"] = overview
		}
	}

	respondWithJSON(w, http.StatusOK, payload)
}

// GetAlerts returns the most recent monitoring alerts, newest first.
func (h *ChannelHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		respondWithError(w, h.logger, http.StatusServiceUnavailable, "Alert history is not available", nil)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	alerts, err := h.alerts.RecentAlerts(r.Context(), limit)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to read alert history", err)
		return
	}
	if alerts == nil {
		alerts = []monitor.Alert{}
	}

	respondWithJSON(w, http.StatusOK, alerts)
}
