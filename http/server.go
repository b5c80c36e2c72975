// Package http serves diff snapshots, change events and pull request review
// actions over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/differ"
	"github.com/fwojciec/differ/notify"
)

// ShutdownTimeout is the time given for outstanding requests to finish.
const ShutdownTimeout = 2 * time.Second

// TokenHeader carries a GitHub token supplied by the browser.
const TokenHeader = "X-GitHub-Token"

// Subscriber delivers repository change events.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan notify.Event
}

// Server serves one repository. Fields must be set before Open.
type Server struct {
	ln     net.Listener
	server *http.Server
	router *http.ServeMux
	ctx    context.Context
	cancel context.CancelFunc

	// RepoRoot is the top level of the served repository.
	RepoRoot string
	// DefaultCompare is used when a request names no comparison.
	DefaultCompare differ.ComparisonSpec
	// DefaultTheme is used when a request names no theme.
	DefaultTheme string
	// Token is used when a request carries no TokenHeader.
	Token string
	// StaticDir, when set, is served for paths outside /api.
	StaticDir string

	DiffService differ.DiffService
	Inspector   differ.RepoInspector
	Reviewers   differ.ReviewerProvider
	Events      Subscriber
	Logger      *slog.Logger
}

// NewServer returns a Server with its routes registered.
func NewServer() *Server {
	s := &Server{
		router:         http.NewServeMux(),
		DefaultCompare: differ.Working{},
		Logger:         slog.New(slog.DiscardHandler),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.server = &http.Server{
		Handler:     s,
		BaseContext: func(net.Listener) context.Context { return s.ctx },
	}

	s.router.HandleFunc("GET /api/diff", s.handleDiff)
	s.router.HandleFunc("GET /api/diff-file", s.handleDiffFile)
	s.router.HandleFunc("GET /api/watch", s.handleWatch)
	s.router.HandleFunc("GET /api/themes", s.handleThemes)
	s.registerGitHubRoutes()
	s.router.HandleFunc("/", s.handleStatic)
	return s
}

// ServeHTTP logs each request and dispatches it to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.router.ServeHTTP(w, r)
	s.Logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
}

// Open listens on addr and serves in the background. When addr's port is
// taken, an ephemeral port on the same host is used instead.
func (s *Server) Open(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		host, _, splitErr := net.SplitHostPort(addr)
		if splitErr != nil {
			return err
		}
		s.Logger.Info("port unavailable, using a free port", "addr", addr, "error", err)
		if ln, err = net.Listen("tcp", net.JoinHostPort(host, "0")); err != nil {
			return err
		}
	}
	s.ln = ln
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("serve", "error", err)
		}
	}()
	return nil
}

// Port returns the port being listened on, or 0 before Open.
func (s *Server) Port() int {
	if s.ln == nil {
		return 0
	}
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns the local URL of the server.
func (s *Server) URL() string {
	return "http://localhost:" + strconv.Itoa(s.Port())
}

// Close ends open event streams and shuts the server down gracefully.
func (s *Server) Close() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.StaticDir == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.FileServer(http.Dir(s.StaticDir)).ServeHTTP(w, r)
}

func (s *Server) theme(r *http.Request) string {
	if t := r.URL.Query().Get("theme"); t != "" {
		return t
	}
	return s.DefaultTheme
}

// token returns the request's GitHub token, falling back to the server's.
func (s *Server) token(r *http.Request) string {
	if t := r.Header.Get(TokenHeader); t != "" {
		return t
	}
	return s.Token
}

// Error writes err as a plain text response with a status derived from it.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.Logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	http.Error(w, msg, status)
}

// ErrorStatus maps an error to an HTTP status and message. Errors the
// remote host reported keep its status; anything else is a bad request.
func ErrorStatus(err error) (int, string) {
	var serr *differ.SourceError
	switch {
	case errors.Is(err, differ.ErrMissingOrigin):
		return http.StatusBadRequest, "Missing GitHub origin"
	case errors.Is(err, differ.ErrMissingToken):
		return http.StatusUnauthorized, "Missing GitHub token"
	case errors.Is(err, differ.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.As(err, &serr) && serr.Status != 0:
		return serr.Status, serr.Message
	default:
		return http.StatusBadRequest, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// badRequest is a validation failure reported verbatim.
type badRequest string

func (e badRequest) Error() string { return string(e) }
