package teams

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
	"github.com/mcdev12/pxfc-auction/go/internal/ledger"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

func TestService(t *testing.T) {
	store := ledger.NewMemory(nil, 0)
	app := NewApp(NewRepository(store), nil, money.FromUnits(1000))
	r := chi.NewRouter()
	NewService(app).RegisterRoutes(r, r)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/api/teams", `{"name":"Strikers"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created projection.TeamView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, money.FromUnits(1000), created.Budget)
	assert.JSONEq(t, `[]`, string(mustMarshal(t, created.Players)))

	rec = do(http.MethodPost, "/api/teams", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TEAM")

	rec = do(http.MethodGet, "/api/teams", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var teams []projection.TeamView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
	assert.Len(t, teams, 1)

	rec = do(http.MethodGet, "/api/teams/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodGet, "/api/teams/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var apiErr httpapi.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "TEAM_NOT_FOUND", apiErr.Code)

	rec = do(http.MethodPut, "/api/teams/1", `{"name":"Titans","owner_id":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated projection.TeamView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Titans", updated.Name)
	assert.Equal(t, money.FromUnits(1000), updated.Budget)

	rec = do(http.MethodPut, "/api/teams/1", `{"budget":"5000.00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TEAM")

	rec = do(http.MethodPut, "/api/teams/999", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodDelete, "/api/teams/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodDelete, "/api/teams/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestToAPIError_History(t *testing.T) {
	var apiErr *httpapi.Error
	require.True(t, errors.As(toAPIError(fmt.Errorf("%w: 2 auction entries", ErrTeamHasHistory)), &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "TEAM_HAS_HISTORY", apiErr.Code)
}
