// Package server exposes the assistant over HTTP: dataset uploads,
// the conversational endpoint, history access and saved charts.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/tool"

	"datachat_llm/internal/config"
	"datachat_llm/internal/plot"
	"datachat_llm/internal/session"
)

// Responder produces the assistant reply for one turn. The production
// implementation is the function-calling agent.
type Responder interface {
	Run(ctx context.Context, contextBlock, userMessage string, tools []tool.BaseTool) (string, error)
}

type Server struct {
	cfg       config.Config
	sessions  *session.Store
	history   session.HistoryRepository
	responder Responder
	plots     *plot.Saver
	mux       *http.ServeMux
}

func New(cfg config.Config, sessions *session.Store, history session.HistoryRepository, responder Responder, plots *plot.Saver) *Server {
	s := &Server{
		cfg:       cfg,
		sessions:  sessions,
		history:   history,
		responder: responder,
		plots:     plots,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /reset", s.handleReset)
	s.mux.HandleFunc("GET /sessions/{id}/history", s.handleHistory)
	if s.plots != nil {
		s.mux.Handle("GET /plots/", http.StripPrefix("/plots/", http.FileServer(http.Dir(s.plots.Dir()))))
	}
}

func (s *Server) Handler() http.Handler {
	return s.cors(s.mux)
}

// cors allows the configured frontend origins. "*" allows everything.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ListenAndServe runs the server until the context is canceled, then
// drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
