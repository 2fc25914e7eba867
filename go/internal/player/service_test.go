package player

import (
	"bytes"
	"errors"
	"fmt"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/pxfc-auction/go/internal/httpapi"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

func TestService(t *testing.T) {
	app, _ := newTestApp(t)
	r := chi.NewRouter()
	NewService(app).RegisterRoutes(r, r)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/api/players", `{"name":"Rahul","category":"A","base_price":"20000"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created projection.PlayerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Contains(t, rec.Body.String(), `"price":20000`)
	assert.Contains(t, rec.Body.String(), `"teamId":null`)

	rec = do(http.MethodPost, "/api/players", `{"name":"Rahul","base_price":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var apiErr httpapi.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "INVALID_PLAYER", apiErr.Code)

	rec = do(http.MethodGet, "/api/players/search?name=rah&sold=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var found []projection.PlayerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	assert.Len(t, found, 1)

	rec = do(http.MethodGet, "/api/players/search?team_id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodPut, "/api/players/1", `{"base_price":25000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"price":25000`)

	rec = do(http.MethodGet, "/api/players/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodDelete, "/api/players/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/api/players/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodGet, "/api/players", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestToAPIError_History(t *testing.T) {
	var apiErr *httpapi.Error
	require.True(t, errors.As(toAPIError(fmt.Errorf("%w: 2 auction entries", ErrPlayerHasHistory)), &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "PLAYER_HAS_HISTORY", apiErr.Code)
}
