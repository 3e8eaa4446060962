package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	weft "github.com/weftworks/weft"
	"github.com/weftworks/weft/internal/server"
	"github.com/weftworks/weft/pkg/adapters/memory"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/observability"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()
	graphs := memory.NewGraphStoreFrom(&domain.Definition{
		ID:   "greeting",
		Name: "Greeting",
		Nodes: []domain.NodeSpec{
			{ID: "in", Type: domain.NodeTypeInput},
			{ID: "say", Type: domain.NodeTypeTemplate, Config: map[string]any{"template": "hello {{message}}"}},
		},
		Edges: []domain.Edge{{Source: "in", Target: "say"}},
	})

	reg := prometheus.NewRegistry()
	engine := weft.New(
		weft.WithGraphStore(graphs),
		weft.WithMetrics(observability.NewMetrics(reg)),
	)
	return server.NewHandler(engine, server.WithMetricsGatherer(reg))
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRunStoredGraph(t *testing.T) {
	h := testHandler(t)

	rec := postJSON(t, h, "/api/graphs/greeting/runs", map[string]any{
		"input": map[string]any{"message": "world"},
		"runId": "run-http",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID       string         `json:"runId"`
		Status      string         `json:"status"`
		NodeOutputs map[string]any `json:"nodeOutputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-http", resp.RunID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, map[string]any{"text": "hello world"}, resp.NodeOutputs["say"])
}

func TestRunStoredGraph_NotFound(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h, "/api/graphs/nope/runs", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunInline(t *testing.T) {
	h := testHandler(t)

	rec := postJSON(t, h, "/api/runs", map[string]any{
		"workflow": map[string]any{
			"id": "inline",
			"nodes": []map[string]any{
				{"id": "in", "type": domain.NodeTypeInput},
			},
		},
		"input": map[string]any{"message": "inline run"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Output any    `json:"output"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
}

func TestRunInline_Rejections(t *testing.T) {
	h := testHandler(t)

	rec := postJSON(t, h, "/api/runs", map[string]any{"input": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, "/api/runs", map[string]any{
		"workflow": map[string]any{
			"id":    "bad",
			"nodes": []map[string]any{{"id": "x", "type": "noSuchType"}},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGraphManagement(t *testing.T) {
	h := testHandler(t)

	rec := postJSON(t, h, "/api/graphs", map[string]any{
		"id":    "extra",
		"nodes": []map[string]any{{"id": "in", "type": domain.NodeTypeInput}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/graphs", nil)
	list := httptest.NewRecorder()
	h.ServeHTTP(list, req)
	require.Equal(t, http.StatusOK, list.Code)

	var summaries []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &summaries))
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"greeting", "extra"}, ids)

	get := httptest.NewRecorder()
	h.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/graphs/extra", nil))
	assert.Equal(t, http.StatusOK, get.Code)

	missing := httptest.NewRecorder()
	h.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/graphs/ghost", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := testHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	// Run something first so the counters exist.
	postJSON(t, h, "/api/graphs/greeting/runs", map[string]any{
		"input": map[string]any{"message": "m"},
	})

	metrics := httptest.NewRecorder()
	h.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "weft_runs_total")
}

func TestCORSPreflight(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/runs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
