package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/rkhl/internal/cockpit"
	"github.com/zheng/rkhl/internal/config"
	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/kinship"
	"github.com/zheng/rkhl/internal/logging"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/storage"
	"github.com/zheng/rkhl/internal/view"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	db, err := storage.OpenSeeded(storage.MemoryPath, dataset.Default())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Delays.Scale = 0
	s := NewServer(db, cfg, logging.Discard())
	h, err := s.Handler()
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Sessions().CloseAll()
		db.Close()
	})
	return s, h
}

// do sends a request without asserting, so it is safe inside Eventually
func do(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, h http.Handler) SessionView {
	t.Helper()
	rec := do(h, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeAs[SessionView](t, rec)
}

// settleSession polls the session until cond holds
func settleSession(t *testing.T, h http.Handler, id string, cond func(SessionView) bool) SessionView {
	t.Helper()
	var v SessionView
	require.Eventually(t, func() bool {
		rec := do(h, http.MethodGet, "/api/sessions/"+id, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		v = SessionView{}
		if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
			return false
		}
		return cond(v)
	}, time.Second, 5*time.Millisecond)
	return v
}

func navigate(t *testing.T, h http.Handler, id string, m view.Module) SessionView {
	t.Helper()
	rec := do(h, http.MethodPost, "/api/sessions/"+id+"/navigate", map[string]any{"module": m})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return settleSession(t, h, id, func(v SessionView) bool {
		return v.App.Active == m && !v.App.Loading
	})
}

func TestHealthAndMeta(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(h, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	health := decodeAs[HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, int64(7), health.Persons)
	assert.Equal(t, int64(7), health.Links)

	meta := decodeAs[MetaResponse](t, do(h, http.MethodGet, "/api/meta", nil))
	assert.Equal(t, AppTitle, meta.Title)
	assert.Equal(t, "张伟", meta.User.Name)
	assert.Equal(t, "二级警督", meta.User.Rank)
	assert.Len(t, meta.Modules, 4)
}

func TestCORS(t *testing.T) {
	_, h := newTestServer(t)

	t.Run("preflight", func(t *testing.T) {
		rec := do(h, http.MethodOptions, "/api/sessions", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("regular request", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/health", nil)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestReadOnlyEndpoints(t *testing.T) {
	_, h := newTestServer(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/api/graph", http.StatusOK},
		{http.MethodGet, "/api/graph/nodes/3", http.StatusOK},
		{http.MethodGet, "/api/graph/nodes/99", http.StatusNotFound},
		{http.MethodGet, "/api/graph/nodes/4/relatives", http.StatusOK},
		{http.MethodGet, "/api/graph/nodes/4/relatives?up=1&down=2", http.StatusOK},
		{http.MethodGet, "/api/graph/nodes/4/relatives?up=x", http.StatusBadRequest},
		{http.MethodGet, "/api/graph/nodes/" + url.PathEscape("张小") + "/relatives", http.StatusBadRequest},
		{http.MethodGet, "/api/graph/nodes/99/relatives", http.StatusNotFound},
		{http.MethodGet, "/api/sources", http.StatusOK},
		{http.MethodGet, "/api/sources/4/logs", http.StatusOK},
		{http.MethodGet, "/api/sources/6/structure", http.StatusOK},
		{http.MethodGet, "/api/sources/1/config", http.StatusOK},
		{http.MethodGet, "/api/sources/99/logs", http.StatusNotFound},
		{http.MethodGet, "/api/sources/4/bogus", http.StatusBadRequest},
		{http.MethodGet, "/api/sources/abc/logs", http.StatusBadRequest},
		{http.MethodGet, "/api/query/address", http.StatusOK},
		{http.MethodGet, "/api/query/bogus", http.StatusBadRequest},
		{http.MethodGet, "/api/tree", http.StatusOK},
		{http.MethodGet, "/api/cockpit", http.StatusOK},
		{http.MethodGet, "/api/cockpit?region=" + url.QueryEscape("奎文区"), http.StatusOK},
		{http.MethodGet, "/api/cockpit?region=bogus", http.StatusNotFound},
		{http.MethodGet, "/api/map", http.StatusOK},
		{http.MethodGet, "/api/export/graph", http.StatusOK},
		{http.MethodGet, "/api/export/aggregation", http.StatusOK},
		{http.MethodPost, "/api/graph", http.StatusMethodNotAllowed},
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/app.js", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(h, tt.method, tt.path, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestGraphEndpoints(t *testing.T) {
	_, h := newTestServer(t)

	g := decodeAs[GraphResponse](t, do(h, http.MethodGet, "/api/graph", nil))
	assert.Len(t, g.Nodes, 7)
	assert.Len(t, g.Segments, 7)
	assert.Equal(t, "#F59E0B", g.Legend["root"])
	for _, n := range g.Nodes {
		assert.False(t, n.Selected)
	}

	rec := do(h, http.MethodGet, "/api/graph/nodes/99", nil)
	assert.Contains(t, decodeAs[errorResponse](t, rec).Error, "not found")

	report := decodeAs[kinship.Report](t, do(h, http.MethodGet, "/api/graph/nodes/2/relatives", nil))
	assert.Equal(t, "张强", report.Target.Name)
	assert.Len(t, report.DirectDescendants, 2)
	assert.Len(t, report.IndirectDescendants, 3)

	rec = do(h, http.MethodGet, "/api/export/graph", nil)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "```mermaid")
}

func TestDataEndpoints(t *testing.T) {
	_, h := newTestServer(t)

	agg := decodeAs[view.AggregationSnapshot](t, do(h, http.MethodGet, "/api/sources", nil))
	assert.Equal(t, dataset.Summary{Total: 7, Normal: 5, Error: 1}, agg.Summary)

	logs := decodeAs[[]dataset.LogEntry](t, do(h, http.MethodGet, "/api/sources/4/logs", nil))
	require.Len(t, logs, 4)
	assert.Equal(t, dataset.LogError, logs[3].Level)

	q := decodeAs[QueryResponse](t, do(h, http.MethodGet, "/api/query/changes", nil))
	assert.Equal(t, "变更更正查询", q.Label)
	assert.Len(t, q.Records, 2)

	c := decodeAs[CockpitResponse](t, do(h, http.MethodGet, "/api/cockpit?region="+url.QueryEscape("奎文区"), nil))
	assert.Equal(t, "奎文区", c.Data.Region)
	assert.Len(t, c.Tabs, 3)

	m := decodeAs[MapResponse](t, do(h, http.MethodGet, "/api/map", nil))
	assert.Equal(t, float64(cockpit.ViewWidth), m.Width)
	assert.Len(t, m.Regions, 12)
}

func TestSessionLifecycle(t *testing.T) {
	s, h := newTestServer(t)

	v := createSession(t, h)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, view.ModuleDashboard, v.App.Active)
	require.NotNil(t, v.Cockpit)
	assert.Equal(t, cockpit.CityWide, v.Cockpit.Region)
	assert.Equal(t, 1, s.Sessions().Len())

	rec := do(h, http.MethodGet, "/api/sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodDelete, "/api/sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, http.MethodGet, "/api/sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(h, http.MethodPost, "/api/sessions/nope/navigate", map[string]any{"module": "family"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNavigate(t *testing.T) {
	_, h := newTestServer(t)
	id := createSession(t, h).ID

	rec := do(h, http.MethodPost, "/api/sessions/"+id+"/navigate", map[string]any{"module": "dashboard"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeAs[NavigateResponse](t, rec).Changed)

	rec = do(h, http.MethodPost, "/api/sessions/"+id+"/navigate", map[string]any{"module": "settings"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/api/sessions/"+id+"/navigate", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	v := navigate(t, h, id, view.ModuleQuery)
	assert.Nil(t, v.Cockpit)
	require.NotNil(t, v.Query)
	assert.NotEmpty(t, v.Tree)
}

func TestFamilyFlow(t *testing.T) {
	_, h := newTestServer(t)
	id := createSession(t, h).ID
	base := "/api/sessions/" + id + "/family"
	navigate(t, h, id, view.ModuleFamily)

	rec := do(h, http.MethodPost, base+"/back", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "back in search mode")

	rec = do(h, http.MethodPost, base+"/search", map[string]any{"query": "张伟"})
	require.Equal(t, http.StatusOK, rec.Code)
	v := settleSession(t, h, id, func(v SessionView) bool { return v.Family != nil && !v.Family.Pending })
	assert.Len(t, v.Family.Results, 3)

	rec = do(h, http.MethodPost, base+"/results/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(h, http.MethodPost, base+"/results/7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, base+"/results/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeAs[SessionView](t, rec)
	assert.Equal(t, view.ModeGraph, v.Family.Mode)
	assert.Equal(t, dataset.RootID, v.Family.Selected)

	rec = do(h, http.MethodPost, base+"/nodes/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	v = decodeAs[SessionView](t, do(h, http.MethodPost, base+"/nodes/3", nil))
	assert.Equal(t, "王丽", v.Family.Detail.Name)

	rec = do(h, http.MethodPost, base+"/overlay", map[string]any{"kind": "archive"})
	require.Equal(t, http.StatusOK, rec.Code)
	v = settleSession(t, h, id, func(v SessionView) bool {
		return v.Family.Overlay != nil && v.Family.Overlay.Phase == view.PhaseReady
	})
	require.NotNil(t, v.Family.Overlay.Content)
	assert.NotNil(t, v.Family.Overlay.Content.Archive)

	rec = do(h, http.MethodPost, base+"/overlay", map[string]any{"kind": "photo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	zoom := decodeAs[ZoomResponse](t, do(h, http.MethodPost, base+"/zoom", map[string]any{"step": 1}))
	assert.Equal(t, 1.25, zoom.Zoom)

	v = decodeAs[SessionView](t, do(h, http.MethodDelete, base+"/overlay", nil))
	assert.Nil(t, v.Family.Overlay)

	v = decodeAs[SessionView](t, do(h, http.MethodPost, base+"/back", nil))
	assert.Equal(t, view.ModeSearch, v.Family.Mode)
	assert.Len(t, v.Family.Results, 3)
}

func TestQueryFlow(t *testing.T) {
	_, h := newTestServer(t)
	id := createSession(t, h).ID
	base := "/api/sessions/" + id + "/query"
	navigate(t, h, id, view.ModuleQuery)

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, base+"/search", nil).Code)
	v := settleSession(t, h, id, func(v SessionView) bool { return v.Query.Searched && !v.Query.Pending })
	assert.Len(t, v.Query.Results, 3)

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, base+"/records/0", nil).Code)
	v = settleSession(t, h, id, func(v SessionView) bool {
		return v.Query.Drawer != nil && v.Query.Drawer.Phase == view.PhaseReady
	})
	assert.Equal(t, "地址详情", v.Query.Drawer.Content.Title)

	v = decodeAs[SessionView](t, do(h, http.MethodDelete, base+"/detail", nil))
	assert.Nil(t, v.Query.Drawer)

	v = decodeAs[SessionView](t, do(h, http.MethodPost, base+"/tree/370702", nil))
	assert.False(t, v.Tree[0].Children[0].Expanded)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, base+"/tree/999", nil).Code)

	v = decodeAs[SessionView](t, do(h, http.MethodPost, base+"/sub", map[string]any{"sub": "changes"}))
	assert.Equal(t, dataset.SubChanges, v.Query.Sub)
	assert.Empty(t, v.Query.Results)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, base+"/sub", map[string]any{"sub": "weather"}).Code)
}

func TestAggregationFlow(t *testing.T) {
	_, h := newTestServer(t)
	id := createSession(t, h).ID
	base := "/api/sessions/" + id + "/aggregation/modal"
	navigate(t, h, id, view.ModuleAggregation)

	rec := do(h, http.MethodPost, base, map[string]any{"kind": "logs", "sourceId": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeAs[SessionView](t, rec)
	require.NotNil(t, v.Aggregation.Modal)
	assert.Equal(t, view.ModalLogs, v.Aggregation.Modal.Kind)
	assert.Len(t, v.Aggregation.Modal.Logs, 4)

	rec = do(h, http.MethodPost, base, map[string]any{"kind": "structure", "sourceId": 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	v = decodeAs[SessionView](t, do(h, http.MethodPost, base, map[string]any{"kind": "access"}))
	assert.NotNil(t, v.Aggregation.Modal.Access)

	v = decodeAs[SessionView](t, do(h, http.MethodDelete, base, nil))
	assert.Nil(t, v.Aggregation.Modal)
}

func TestReloadDropsModalOfRemovedSource(t *testing.T) {
	s, h := newTestServer(t)
	id := createSession(t, h).ID
	navigate(t, h, id, view.ModuleAggregation)

	rec := do(h, http.MethodPost, "/api/sessions/"+id+"/aggregation/modal", map[string]any{"kind": "logs", "sourceId": 7})
	require.Equal(t, http.StatusOK, rec.Code)

	d := dataset.Default()
	d.Sources = d.Sources[:1]
	require.NoError(t, s.db.Seed(d))

	rec = do(h, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decodeAs[SessionView](t, rec)
	require.NotNil(t, v.Aggregation)
	assert.Nil(t, v.Aggregation.Modal)
	assert.Len(t, v.Aggregation.Sources, 1)
	assert.Equal(t, view.ModuleAggregation, v.App.Active)
}

func TestCockpitFlow(t *testing.T) {
	_, h := newTestServer(t)
	id := createSession(t, h).ID
	base := "/api/sessions/" + id + "/cockpit"

	v := decodeAs[SessionView](t, do(h, http.MethodPost, base+"/tab", map[string]any{"tab": "floating"}))
	assert.Equal(t, cockpit.TabFloating, v.Cockpit.Tab)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, base+"/tab", map[string]any{"tab": "x"}).Code)

	var anchor cockpit.Point
	for _, r := range cockpit.Regions() {
		if r.Name == "奎文区" {
			anchor = r.Anchor
		}
	}
	hit := decodeAs[HitResponse](t, do(h, http.MethodPost, base+"/hit", map[string]any{"x": anchor.X, "y": anchor.Y}))
	assert.True(t, hit.Hit)
	assert.Equal(t, "奎文区", hit.Region)
	assert.True(t, hit.Session.Cockpit.CanReset)

	miss := decodeAs[HitResponse](t, do(h, http.MethodPost, base+"/hit", map[string]any{"x": 5, "y": 5}))
	assert.False(t, miss.Hit)
	assert.Equal(t, "奎文区", miss.Session.Cockpit.Region)

	v = decodeAs[SessionView](t, do(h, http.MethodPost, base+"/region", map[string]any{"region": cockpit.CityWide}))
	assert.False(t, v.Cockpit.CanReset)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, base+"/region", map[string]any{"region": "北京"}).Code)
}

func TestModuleNotMountedIsConflict(t *testing.T) {
	_, h := newTestServer(t)
	id := createSession(t, h).ID

	rec := do(h, http.MethodPost, "/api/sessions/"+id+"/family/search", map[string]any{"query": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(h, http.MethodPost, "/api/sessions/"+id+"/query/search", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionsAreIsolated(t *testing.T) {
	_, h := newTestServer(t)
	a := createSession(t, h).ID
	b := createSession(t, h).ID
	require.NotEqual(t, a, b)

	rec := do(h, http.MethodPost, "/api/sessions/"+b+"/cockpit/region", map[string]any{"region": "青州市"})
	require.Equal(t, http.StatusOK, rec.Code)
	navigate(t, h, a, view.ModuleFamily)
	do(h, http.MethodPost, "/api/sessions/"+a+"/family/search", map[string]any{"query": "张伟"})
	settleSession(t, h, a, func(v SessionView) bool { return len(v.Family.Results) == 3 })

	vb := decodeAs[SessionView](t, do(h, http.MethodGet, "/api/sessions/"+b, nil))
	assert.Equal(t, view.ModuleDashboard, vb.App.Active)
	assert.Equal(t, "青州市", vb.Cockpit.Region)
	assert.Nil(t, vb.Family)

	c := createSession(t, h)
	assert.Equal(t, cockpit.CityWide, c.Cockpit.Region)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", lookup.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", lookup.ErrTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("x: %w", lookup.ErrUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("x: %w", view.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("x: %w", kinship.ErrAmbiguous), http.StatusBadRequest},
		{fmt.Errorf("x: %w", view.ErrInvalidState), http.StatusConflict},
		{view.ErrClosed, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
