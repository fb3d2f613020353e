package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zheng/rkhl/internal/cockpit"
	"github.com/zheng/rkhl/internal/config"
	"github.com/zheng/rkhl/internal/dataset"
	"github.com/zheng/rkhl/internal/export"
	"github.com/zheng/rkhl/internal/graph"
	"github.com/zheng/rkhl/internal/kinship"
	"github.com/zheng/rkhl/internal/lookup"
	"github.com/zheng/rkhl/internal/storage"
	"github.com/zheng/rkhl/internal/view"
)

//go:embed static/*
var staticFS embed.FS

// App titles shown in the header.
const (
	AppTitle    = "人口数据回流应用"
	AppSubtitle = "Population Data Return Application"
)

// sweepInterval is how often idle sessions are collected.
const sweepInterval = time.Minute

// Server is the HTTP front end of the dashboard
type Server struct {
	db       *storage.DB
	store    *lookup.Store
	kin      *kinship.Analyzer
	exporter *export.Exporter
	sessions *Sessions
	cfg      *config.Config
	log      *slog.Logger
}

// NewServer creates a new web server
func NewServer(db *storage.DB, cfg *config.Config, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		store:    lookup.NewStore(db, lookup.DelaysFrom(cfg.Delays)),
		kin:      kinship.NewAnalyzer(db),
		exporter: export.NewExporter(db),
		cfg:      cfg,
		log:      log,
	}
	navigate := cfg.Delays.Scaled(cfg.Delays.Navigate)
	s.sessions = NewSessions(cfg.Server.SessionTTL.D(), cfg.Server.MaxSessions, func() *view.App {
		return view.NewApp(
			view.Deps{Family: s.store, Catalog: s.store, Records: s.store},
			view.WithNavigateDelay(navigate),
			view.WithLogger(log),
		)
	}, log)
	return s
}

// Sessions returns the live view sessions
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Handler returns the routed handler wrapped in CORS and request logging
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/meta", s.handleMeta)

	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/graph/nodes/{id}", s.handleNode)
	mux.HandleFunc("GET /api/graph/nodes/{id}/relatives", s.handleRelatives)
	mux.HandleFunc("GET /api/sources", s.handleSources)
	mux.HandleFunc("GET /api/sources/{id}/{kind}", s.handleSourceDetail)
	mux.HandleFunc("GET /api/query/{sub}", s.handleQuery)
	mux.HandleFunc("GET /api/tree", s.handleTree)
	mux.HandleFunc("GET /api/cockpit", s.handleCockpit)
	mux.HandleFunc("GET /api/map", s.handleMap)
	mux.HandleFunc("GET /api/export/graph", s.handleExportGraph)
	mux.HandleFunc("GET /api/export/aggregation", s.handleExportAggregation)

	s.routeSessions(mux)

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to get static files: %w", err)
	}
	mux.Handle("GET /", http.FileServer(http.FS(staticContent)))

	return logRequests(s.log, cors(s.cfg.Server.CORSOrigin, mux)), nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("🌐 Web UI 启动", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.sessions.Sweep()
			}
		}
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("Web UI 关闭中")
		err := srv.Shutdown(shutdownCtx)
		s.sessions.CloseAll()
		return err
	})
	return g.Wait()
}

// API response types

type HealthResponse struct {
	Status   string `json:"status"`
	Persons  int64  `json:"persons"`
	Links    int64  `json:"links"`
	Sessions int    `json:"sessions"`
}

type MetaResponse struct {
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle"`
	User     config.UserConfig `json:"user"`
	Modules  []view.ModuleInfo `json:"modules"`
}

type GraphResponse struct {
	Nodes    []view.NodeView   `json:"nodes"`
	Segments []graph.Segment   `json:"segments"`
	Legend   map[string]string `json:"legend"`
}

type QueryResponse struct {
	Sub     dataset.SubModule `json:"sub"`
	Label   string            `json:"label"`
	Columns []dataset.Column  `json:"columns"`
	Records []dataset.Record  `json:"records"`
}

type CockpitResponse struct {
	Tabs []cockpit.TabInfo `json:"tabs"`
	Data cockpit.Data      `json:"data"`
}

type MapResponse struct {
	Width   float64             `json:"width"`
	Height  float64             `json:"height"`
	Regions []cockpit.MapRegion `json:"regions"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	persons, links, err := s.db.GetStats()
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", lookup.ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Persons:  persons,
		Links:    links,
		Sessions: s.sessions.Len(),
	})
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MetaResponse{
		Title:    AppTitle,
		Subtitle: AppSubtitle,
		User:     s.cfg.User,
		Modules:  view.Modules,
	})
}

// handleGraph returns the constellation with every node in its resting style
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.Graph(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := GraphResponse{
		Nodes:    make([]view.NodeView, 0, len(g.Nodes)),
		Segments: g.Segments(),
		Legend: map[string]string{
			"root":   graph.LegendRoot,
			"male":   graph.LegendMale,
			"female": graph.LegendFemale,
			"edge":   graph.EdgeColor,
		},
	}
	for _, n := range g.Nodes {
		resp.Nodes = append(resp.Nodes, view.NodeView{PersonNode: n, Style: graph.StyleFor(n, false)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNode returns the detail panel projection of a node
func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Person(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.DetailOf(p))
}

func (s *Server) handleRelatives(w http.ResponseWriter, r *http.Request) {
	up, err := intParam(r, "up", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	down, err := intParam(r, "down", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := s.kin.Analyze(r.PathValue("id"), up, down)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.Sources(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view.AggregationSnapshot{Summary: dataset.Summarize(sources), Sources: sources})
}

func (s *Server) handleSourceDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("source id %q: %w", r.PathValue("id"), view.ErrInvalidArgument))
		return
	}

	ctx := r.Context()
	var data any
	switch kind := r.PathValue("kind"); kind {
	case "structure":
		data, err = s.store.Structure(ctx, id)
	case "logs":
		data, err = s.store.Logs(ctx, id)
	case "config":
		data, err = s.store.SyncConfig(ctx, id)
	default:
		err = fmt.Errorf("source view %q: %w", kind, view.ErrInvalidArgument)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sub, ok := dataset.ParseSubModule(r.PathValue("sub"))
	if !ok {
		writeError(w, fmt.Errorf("sub-module %q: %w", r.PathValue("sub"), view.ErrInvalidArgument))
		return
	}
	records, err := s.store.SearchRecords(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Sub: sub, Label: sub.Label(), Columns: dataset.Columns(sub), Records: records})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.store.Tree(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleCockpit(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = cockpit.CityWide
	}
	if !cockpit.Valid(region) {
		writeError(w, fmt.Errorf("region %q: %w", region, lookup.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, CockpitResponse{Tabs: cockpit.Tabs, Data: cockpit.RegionData(region)})
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MapResponse{
		Width:   cockpit.ViewWidth,
		Height:  cockpit.ViewHeight,
		Regions: cockpit.Regions(),
	})
}

func (s *Server) handleExportGraph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if err := s.exporter.ExportGraph(w, export.DefaultExportOptions()); err != nil {
		s.log.Error("导出图谱失败", "error", err)
	}
}

func (s *Server) handleExportAggregation(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if err := s.exporter.ExportAggregation(w, export.DefaultExportOptions()); err != nil {
		s.log.Error("导出汇聚报告失败", "error", err)
	}
}

// Helper functions

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s=%q: %w", name, v, view.ErrInvalidArgument)
	}
	return n, nil
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lookup.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, lookup.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, view.ErrInvalidArgument), errors.Is(err, kinship.ErrAmbiguous):
		return http.StatusBadRequest
	case errors.Is(err, view.ErrInvalidState), errors.Is(err, view.ErrClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
