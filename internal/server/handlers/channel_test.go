// internal/server/handlers/channel_test.go

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chanscope/internal/service/monitor"
)

type fakeAlertSource struct {
	alerts []monitor.Alert
	limit  int
	err    error
}

func (f *fakeAlertSource) RecentAlerts(_ context.Context, limit int) ([]monitor.Alert, error) {
	f.limit = limit
	return f.alerts, f.err
}

func TestGetAlerts(t *testing.T) {
	t.Run("returns stored alerts newest first", func(t *testing.T) {
		source := &fakeAlertSource{alerts: []monitor.Alert{
			{ID: "a2", Type: "high_duplicate_rate", Severity: monitor.SeverityWarning, ChannelID: 7, CreatedAt: time.Now()},
			{ID: "a1", Type: "channel_inactive", Severity: monitor.SeverityInfo, ChannelID: 3},
		}}
		h := NewChannelHandler(nil, nil, nil, nil, nil, source, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?limit=25", nil)
		rec := httptest.NewRecorder()
		h.GetAlerts(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 25, source.limit)

		var got []monitor.Alert
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "a2", got[0].ID)
		assert.Equal(t, "channel_inactive", got[1].Type)
	})

	t.Run("empty history responds with an empty list", func(t *testing.T) {
		h := NewChannelHandler(nil, nil, nil, nil, nil, &fakeAlertSource{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
		rec := httptest.NewRecorder()
		h.GetAlerts(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("missing alert source responds unavailable", func(t *testing.T) {
		h := NewChannelHandler(nil, nil, nil, nil, nil, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
		rec := httptest.NewRecorder()
		h.GetAlerts(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("history read failure responds with server error", func(t *testing.T) {
		h := NewChannelHandler(nil, nil, nil, nil, nil, &fakeAlertSource{err: errors.New("redis down")}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts", nil)
		rec := httptest.NewRecorder()
		h.GetAlerts(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
