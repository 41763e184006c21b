package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/html"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/dom"
	"github.com/vango-dev/domsync/pkg/morph"
)

// DefaultMaxBodyBytes caps POST /sync bodies.
const DefaultMaxBodyBytes = 10 << 20

// Options configures the preview server.
type Options struct {
	// Logger receives request and pass logs. Default: slog.Default().
	Logger *slog.Logger

	// Markers enables island-aware passes. Nil reconciles every node.
	Markers morph.MarkerParser

	// Registry is served on /metrics. Nil serves an empty registry.
	Registry *prometheus.Registry

	// Middleware wraps every pass, e.g. middleware.Prometheus.
	Middleware []morph.Middleware

	// Minify compacts the GET / response.
	Minify bool

	// MaxBodyBytes caps POST /sync bodies. Default: DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Server holds one host document and reconciles candidates into it.
type Server struct {
	options    Options
	logger     *slog.Logger
	reconciler *morph.Reconciler
	feed       *Feed
	router     *chi.Mux

	mu     sync.Mutex
	doc    *html.Node
	totals Totals
}

// Totals are running sums over every pass since the server started. Failed
// passes count too: their edits stay applied.
type Totals struct {
	Passes   int         `json:"passes"`
	Failures int         `json:"failures"`
	Stats    morph.Stats `json:"stats"`
}

// NewServer creates a preview server for doc. A nil doc starts from an empty
// page.
func NewServer(doc *html.Node, options Options) *Server {
	if doc == nil {
		doc, _ = dom.ParseString("")
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Registry == nil {
		options.Registry = prometheus.NewRegistry()
	}
	if options.MaxBodyBytes <= 0 {
		options.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		options: options,
		logger:  options.Logger,
		feed:    NewFeed(),
		doc:     doc,
	}
	s.reconciler = morph.New(
		morph.WithLogger(options.Logger),
		morph.WithIslands(islandLogger{options.Logger}),
		morph.WithMiddleware(options.Middleware...),
	)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleDocument)
	r.Post("/sync", s.handleSync)
	r.Get("/_domsync/ws", s.feed.HandleWebSocket)
	r.Get("/stats", s.handleStats)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.options.Registry, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the HTTP handler for all preview routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Feed returns the pass feed.
func (s *Server) Feed() *Feed {
	return s.feed
}

// Document renders the current host document.
func (s *Server) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dom.String(s.doc)
}

// Sync parses a candidate document from r and reconciles the host into it.
// Passes are serialised; subscribers are notified of the outcome.
func (s *Server) Sync(ctx context.Context, r io.Reader) (morph.Stats, error) {
	cand, err := dom.Parse(r)
	if err != nil {
		return morph.Stats{}, errors.New("D041").Wrap(err)
	}

	// Notify before unlocking so subscribers see passes in the order they
	// were applied.
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.reconciler.Run(ctx, s.hostRange(), s.candidateRange(cand))
	s.totals.Passes++
	s.totals.Stats.Add(stats)
	if err != nil {
		s.totals.Failures++
		s.feed.NotifyError(errors.FromError(err, "D001").FormatJSON())
		return stats, err
	}

	s.logger.Info("document synced", "mutations", stats.Mutations(), "islands", stats.IslandsMatched)
	s.feed.NotifyPass(stats, dom.String(s.doc))
	return stats, nil
}

// Totals returns the running pass totals.
func (s *Server) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals
}

func (s *Server) hostRange() morph.Range {
	if s.options.Markers != nil {
		return morph.Logical(s.doc, s.options.Markers)
	}
	return morph.Physical(s.doc)
}

func (s *Server) candidateRange(cand *html.Node) morph.Range {
	if s.options.Markers != nil {
		return morph.Logical(cand, s.options.Markers)
	}
	return morph.Physical(cand)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	page := s.Document()
	if s.options.Minify {
		if root, err := dom.ParseString(page); err == nil {
			var buf bytes.Buffer
			if err := dom.Minify(&buf, root); err == nil {
				page = buf.String()
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if i := strings.LastIndex(page, "</body>"); i >= 0 {
		page = page[:i] + ClientScript + page[i:]
	} else {
		page += ClientScript
	}
	io.WriteString(w, page)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.options.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("D041").Wrap(err))
		return
	}

	stats, err := s.Sync(r.Context(), bytes.NewReader(body))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Code(err) == "D041" {
			status = http.StatusBadRequest
		}
		writeError(w, status, errors.FromError(err, "D001"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Totals())
}

func writeError(w http.ResponseWriter, status int, err *errors.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, err.FormatJSON())
}

// ListenAndServe serves the preview routes on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.feed.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// islandLogger reports island lifecycle events; the preview has no island
// pipeline of its own.
type islandLogger struct {
	logger *slog.Logger
}

func (l islandLogger) IslandMatched(dst, cand *morph.Island) {
	l.logger.Debug("island kept", "id", dst.Marker.ID, "type", dst.Marker.Type)
}

func (l islandLogger) IslandInserted(island *morph.Island) {
	l.logger.Debug("island inserted", "id", island.Marker.ID, "type", island.Marker.Type)
}

func (l islandLogger) IslandRemoved(island *morph.Island) {
	l.logger.Debug("island removed", "id", island.Marker.ID, "type", island.Marker.Type)
}
