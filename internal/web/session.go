package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/zheng/rkhl/internal/cockpit"
	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/view"
)

// SessionView is the rendered state of a session: the navigator plus the
// mounted module, if any.
type SessionView struct {
	ID          string                    `json:"id"`
	App         view.AppSnapshot          `json:"app"`
	Cockpit     *view.CockpitSnapshot     `json:"cockpit,omitempty"`
	Aggregation *view.AggregationSnapshot `json:"aggregation,omitempty"`
	Query       *view.QuerySnapshot       `json:"query,omitempty"`
	Tree        []view.TreeView           `json:"tree,omitempty"`
	Family      *view.FamilySnapshot      `json:"family,omitempty"`
}

type NavigateResponse struct {
	Changed bool        `json:"changed"`
	Session SessionView `json:"session"`
}

type HitResponse struct {
	Hit     bool        `json:"hit"`
	Region  string      `json:"region,omitempty"`
	Session SessionView `json:"session"`
}

type ZoomResponse struct {
	Zoom    float64     `json:"zoom"`
	Session SessionView `json:"session"`
}

// Request bodies

type navigateRequest struct {
	Module view.Module `json:"module"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type overlayRequest struct {
	Kind dataset.OverlayKind `json:"kind"`
}

type zoomRequest struct {
	Step int `json:"step"`
}

type modalRequest struct {
	Kind     view.ModalKind `json:"kind"`
	SourceID int64          `json:"sourceId"`
}

type subRequest struct {
	Sub dataset.SubModule `json:"sub"`
}

type tabRequest struct {
	Tab cockpit.Tab `json:"tab"`
}

type regionRequest struct {
	Region string `json:"region"`
}

type hitRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// sessionHandler is a handler bound to a live session
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *Session)

func (s *Server) routeSessions(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)

	route := func(pattern string, h sessionHandler) {
		mux.HandleFunc(pattern, s.withSession(h))
	}
	route("GET /api/sessions/{id}", s.handleGetSession)
	route("DELETE /api/sessions/{id}", s.handleDeleteSession)
	route("POST /api/sessions/{id}/navigate", s.handleNavigate)

	route("POST /api/sessions/{id}/family/search", s.handleFamilySearch)
	route("POST /api/sessions/{id}/family/results/{index}", s.handleFamilyResult)
	route("POST /api/sessions/{id}/family/nodes/{nodeID}", s.handleFamilyNode)
	route("POST /api/sessions/{id}/family/back", s.handleFamilyBack)
	route("POST /api/sessions/{id}/family/overlay", s.handleOpenOverlay)
	route("DELETE /api/sessions/{id}/family/overlay", s.handleCloseOverlay)
	route("POST /api/sessions/{id}/family/zoom", s.handleZoom)

	route("POST /api/sessions/{id}/aggregation/modal", s.handleOpenModal)
	route("DELETE /api/sessions/{id}/aggregation/modal", s.handleCloseModal)

	route("POST /api/sessions/{id}/query/sub", s.handleQuerySub)
	route("POST /api/sessions/{id}/query/search", s.handleQuerySearch)
	route("POST /api/sessions/{id}/query/records/{index}", s.handleQueryRecord)
	route("DELETE /api/sessions/{id}/query/detail", s.handleQueryCloseDetail)
	route("POST /api/sessions/{id}/query/tree/{nodeID}", s.handleQueryToggleTree)

	route("POST /api/sessions/{id}/cockpit/tab", s.handleCockpitTab)
	route("POST /api/sessions/{id}/cockpit/region", s.handleCockpitRegion)
	route("POST /api/sessions/{id}/cockpit/hit", s.handleCockpitHit)
}

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		sess, ok := s.sessions.Get(id)
		if !ok {
			writeError(w, fmt.Errorf("session %s: %w", id, lookup.ErrNotFound))
			return
		}
		h(w, r, sess)
	}
}

// render snapshots the session and writes it, or the first error
func (s *Server) render(ctx context.Context, sess *Session) (SessionView, error) {
	v := SessionView{ID: sess.ID, App: sess.App.Snapshot()}
	if v.App.Loading {
		return v, nil
	}

	switch v.App.Active {
	case view.ModuleDashboard:
		if c, err := sess.App.Cockpit(); err == nil {
			snap := c.Snapshot()
			v.Cockpit = &snap
		}
	case view.ModuleAggregation:
		if a, err := sess.App.Aggregation(); err == nil {
			snap, err := a.Snapshot(ctx)
			if err != nil {
				return v, err
			}
			v.Aggregation = &snap
		}
	case view.ModuleQuery:
		if q, err := sess.App.Query(); err == nil {
			snap := q.Snapshot()
			v.Query = &snap
			if v.Tree, err = q.Tree(ctx); err != nil {
				return v, err
			}
		}
	case view.ModuleFamily:
		if f, err := sess.App.Family(); err == nil {
			snap := f.Snapshot()
			v.Family = &snap
		}
	}
	return v, nil
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, sess *Session, status int) {
	v, err := s.render(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return fmt.Errorf("decode body: %w: %w", view.ErrInvalidArgument, err)
	}
	return nil
}

func indexParam(r *http.Request) (int, error) {
	v := r.PathValue("index")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("index %q: %w", v, view.ErrInvalidArgument)
	}
	return n, nil
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, r, sess, http.StatusCreated)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.writeSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.sessions.Delete(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req navigateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	changed, err := sess.App.Navigate(req.Module)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.render(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NavigateResponse{Changed: changed, Session: v})
}

// Family graph

// family runs fn against the mounted family view and writes the session
func (s *Server) family(w http.ResponseWriter, r *http.Request, sess *Session, fn func(*view.FamilyGraph) error) {
	f, err := sess.App.Family()
	if err == nil {
		err = fn(f)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleFamilySearch(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req searchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.family(w, r, sess, func(f *view.FamilyGraph) error {
		return f.Submit(req.Query)
	})
}

func (s *Server) handleFamilyResult(w http.ResponseWriter, r *http.Request, sess *Session) {
	index, err := indexParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.family(w, r, sess, func(f *view.FamilyGraph) error {
		return f.SelectResult(r.Context(), index)
	})
}

func (s *Server) handleFamilyNode(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.family(w, r, sess, func(f *view.FamilyGraph) error {
		return f.SelectNode(r.PathValue("nodeID"))
	})
}

func (s *Server) handleFamilyBack(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.family(w, r, sess, (*view.FamilyGraph).Back)
}

func (s *Server) handleOpenOverlay(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req overlayRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.family(w, r, sess, func(f *view.FamilyGraph) error {
		return f.OpenOverlay(req.Kind)
	})
}

func (s *Server) handleCloseOverlay(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.family(w, r, sess, func(f *view.FamilyGraph) error {
		f.CloseOverlay()
		return nil
	})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req zoomRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	f, err := sess.App.Family()
	if err != nil {
		writeError(w, err)
		return
	}
	zoom, err := f.Zoom(req.Step)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := s.render(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ZoomResponse{Zoom: zoom, Session: v})
}

// Aggregation

func (s *Server) handleOpenModal(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req modalRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	a, err := sess.App.Aggregation()
	if err == nil {
		err = a.Open(r.Context(), req.Kind, req.SourceID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleCloseModal(w http.ResponseWriter, r *http.Request, sess *Session) {
	a, err := sess.App.Aggregation()
	if err != nil {
		writeError(w, err)
		return
	}
	a.Close()
	s.writeSession(w, r, sess, http.StatusOK)
}

// Comprehensive query

// query runs fn against the mounted query view and writes the session
func (s *Server) query(w http.ResponseWriter, r *http.Request, sess *Session, fn func(*view.Query) error) {
	q, err := sess.App.Query()
	if err == nil {
		err = fn(q)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleQuerySub(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req subRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.query(w, r, sess, func(q *view.Query) error {
		return q.SetSub(req.Sub)
	})
}

func (s *Server) handleQuerySearch(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.query(w, r, sess, (*view.Query).Search)
}

func (s *Server) handleQueryRecord(w http.ResponseWriter, r *http.Request, sess *Session) {
	index, err := indexParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.query(w, r, sess, func(q *view.Query) error {
		return q.SelectRecord(index)
	})
}

func (s *Server) handleQueryCloseDetail(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.query(w, r, sess, func(q *view.Query) error {
		q.CloseDetail()
		return nil
	})
}

func (s *Server) handleQueryToggleTree(w http.ResponseWriter, r *http.Request, sess *Session) {
	s.query(w, r, sess, func(q *view.Query) error {
		return q.ToggleTree(r.Context(), r.PathValue("nodeID"))
	})
}

// Cockpit

// cockpitView runs fn against the mounted cockpit and writes the session
func (s *Server) cockpitView(w http.ResponseWriter, r *http.Request, sess *Session, fn func(*view.Cockpit) error) {
	c, err := sess.App.Cockpit()
	if err == nil {
		err = fn(c)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleCockpitTab(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req tabRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.cockpitView(w, r, sess, func(c *view.Cockpit) error {
		return c.SelectTab(req.Tab)
	})
}

func (s *Server) handleCockpitRegion(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req regionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.cockpitView(w, r, sess, func(c *view.Cockpit) error {
		return c.SelectRegion(req.Region)
	})
}

func (s *Server) handleCockpitHit(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req hitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := sess.App.Cockpit()
	if err != nil {
		writeError(w, err)
		return
	}
	region, hit := c.Hit(req.X, req.Y)
	v, err := s.render(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HitResponse{Hit: hit, Region: region, Session: v})
}
