package api

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/raffaelramalhorosa/runnersworld-rss/internal/feed"
)

// FeedSource renders the RSS document for up to limit items. A limit
// below 1 means the source's default.
type FeedSource interface {
	Build(ctx context.Context, limit int) []byte
}

// Server holds dependencies for the HTTP handlers.
type Server struct {
	feeds   FeedSource
	env     string
	logger  *slog.Logger
	mux     *http.ServeMux
	handler http.Handler
	now     func() time.Time
}

// New wires up routes and returns a ready-to-use Server.
func New(feeds FeedSource, env string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{feeds: feeds, env: env, logger: logger, mux: http.NewServeMux(), now: time.Now}
	srv.routes()
	srv.handler = srv.withRequestID(srv.mux)
	return srv
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ---------- Routes ----------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /rss", s.handleRSS)
	s.mux.HandleFunc("GET /api/rss", s.handleRSS)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// ---------- Handlers ----------

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	doc := s.feeds.Build(r.Context(), parseLimit(r.URL.Query().Get("limit")))

	w.Header().Set("Content-Type", feed.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		s.logger.Debug("write feed", "error", err)
	}
}

type healthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
	Env  string `json:"env"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		OK:   true,
		Time: s.now().UTC().Format(time.RFC3339),
		Env:  s.env,
	})
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Runner's World gear RSS</title></head>
<body>
<h1>Runner's World gear RSS</h1>
<ul>
<li><a href="/rss">/rss</a> (optional <code>?limit=1..{{.Max}}</code>)</li>
<li><a href="/health">/health</a></li>
</ul>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := indexTmpl.Execute(w, struct{ Max int }{Max: 50}); err != nil {
		s.logger.Debug("write index", "error", err)
	}
}

// ---------- Middleware ----------

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

// ---------- Helpers ----------

// parseLimit returns 0 (use the default) for a missing or non-numeric
// value and at least 1 otherwise. The upper bound is the feed source's.
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return max(n, 1)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
