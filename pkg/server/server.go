// Package server exposes stored snapshot documents and temporal analyses
// as a read-only JSON API.
//
// Routes:
//
//	GET /healthz
//	GET /snapshots
//	GET /snapshots/{name}
//	GET /snapshots/{name}/packages/{pkg}
//	GET /temporal/{pkg}?from=2020-01&exclude=A,B&self=false
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/depchrono/pkg/buildinfo"
	deperrors "github.com/matzehuels/depchrono/pkg/errors"
	"github.com/matzehuels/depchrono/pkg/observability"
	"github.com/matzehuels/depchrono/pkg/registry"
	"github.com/matzehuels/depchrono/pkg/snapshot"
	"github.com/matzehuels/depchrono/pkg/store"
	"github.com/matzehuels/depchrono/pkg/temporal"
)

// Server serves the API. A nil analyzer disables the temporal route.
type Server struct {
	store    store.Store
	analyzer *temporal.Analyzer
	logger   *log.Logger
	router   chi.Router
}

// New creates a server over a document store and an optional analyzer.
func New(st store.Store, analyzer *temporal.Analyzer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{store: st, analyzer: analyzer, logger: logger}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Route("/snapshots", func(r chi.Router) {
		r.Get("/", s.handleListSnapshots)
		r.Get("/{name}", s.handleGetSnapshot)
		r.Get("/{name}/packages/{pkg}", s.handleGetPackage)
	})
	r.Get("/temporal/{pkg}", s.handleTemporal)
	s.router = r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, ww.Status(), elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", elapsed.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"snapshots": names})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// packageView is one package of a stored snapshot.
type packageView struct {
	Name         string                 `json:"name"`
	Commit       string                 `json:"commit"`
	Record       snapshot.PackageRecord `json:"record"`
	Dependencies registry.DependencySet `json:"dependencies"`
}

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	name, pkg := chi.URLParam(r, "name"), chi.URLParam(r, "pkg")
	var snap snapshot.Snapshot
	if err := store.GetJSON(r.Context(), s.store, name, &snap); err != nil {
		s.writeError(w, err)
		return
	}
	rec, ok := snap.Package(pkg)
	if !ok {
		s.writeError(w, deperrors.New(deperrors.ErrCodePackageNotFound, "package %s not in %s", pkg, name))
		return
	}
	deps, _ := snap.Dependencies(pkg)
	if deps == nil {
		deps = registry.DependencySet{}
	}
	writeJSON(w, http.StatusOK, packageView{Name: pkg, Commit: snap.Commit(), Record: rec, Dependencies: deps})
}

func (s *Server) handleTemporal(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		s.writeError(w, deperrors.New(deperrors.ErrCodeUnsupported, "temporal analysis is not configured"))
		return
	}
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.analyzer.Analyze(r.Context(), chi.URLParam(r, "pkg"), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func parseOptions(r *http.Request) (temporal.Options, error) {
	q := r.URL.Query()
	opts := temporal.Options{From: q.Get("from")}
	if opts.From != "" {
		if err := deperrors.ValidatePeriodLabel(opts.From); err != nil {
			return opts, err
		}
	}
	for _, name := range strings.Split(q.Get("exclude"), ",") {
		if name = strings.TrimSpace(name); name != "" {
			opts.Exclude = append(opts.Exclude, name)
		}
	}
	if v := q.Get("self"); v != "" {
		self, err := strconv.ParseBool(v)
		if err != nil {
			return opts, deperrors.New(deperrors.ErrCodeInvalidInput, "invalid self parameter %q", v)
		}
		opts.ExcludeSelf = !self
	}
	return opts, nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	code := string(deperrors.GetCode(err))
	if code == "" {
		code = string(deperrors.ErrCodeInternal)
		if errors.Is(err, store.ErrNotFound) {
			code = string(deperrors.ErrCodeNotFound)
		}
	}
	writeJSON(w, status, errorBody{Code: code, Message: deperrors.UserMessage(err)})
}

func statusFor(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	switch deperrors.GetCode(err) {
	case deperrors.ErrCodeNotFound, deperrors.ErrCodePackageNotFound, deperrors.ErrCodeUnknownVersion:
		return http.StatusNotFound
	case deperrors.ErrCodeInvalidInput, deperrors.ErrCodeInvalidPackage, deperrors.ErrCodeInvalidLabel,
		deperrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case deperrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
