package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/pxfc-auction/go/internal/broadcast"
)

func TestHealthCheck_ReportsDroppedEvents(t *testing.T) {
	// Not started, so the queue fills after one event.
	hub := broadcast.NewHub(broadcast.HubConfig{EventBuffer: 1, SubscriberBuffer: 1})
	for i := 0; i < 3; i++ {
		hub.Publish(broadcast.Event{ID: "evt", Type: broadcast.EventTypeBidAccepted})
	}

	r := chi.NewRouter()
	setupHealthCheck(r, hub)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Hub    struct {
			Published uint64 `json:"published"`
			Dropped   uint64 `json:"dropped"`
		} `json:"hub"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, uint64(1), body.Hub.Published)
	assert.Equal(t, uint64(2), body.Hub.Dropped)
}
