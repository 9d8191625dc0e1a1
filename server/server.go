package server

import (
	"context"
	"errors"
	"github.com/elmanelman/solution-judge/config"
	"github.com/elmanelman/solution-judge/subtask"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"net"
	"net/http"
	"sync"
	"time"
)

// SubtaskSource loads stored subtasks. *subtask.Store satisfies it.
type SubtaskSource interface {
	Get(ctx context.Context, id string) (*subtask.Subtask, error)
}

type Server struct {
	logger   *zap.Logger
	subtasks SubtaskSource
	cfg      config.HTTPConfig

	mu      sync.Mutex
	servers []*http.Server
}

func New(logger *zap.Logger, subtasks SubtaskSource, cfg config.HTTPConfig) *Server {
	return &Server{
		logger:   logger,
		subtasks: subtasks,
		cfg:      cfg,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.cfg.AllowedFrontend != "" {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{s.cfg.AllowedFrontend},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowCredentials: true,
			MaxAge:           3600,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tasks/{task_id}/subtasks/{id}/verify", s.verifySubtaskSolution)
	})

	return r
}

// Start binds every configured address and serves until Shutdown.
func (s *Server) Start(wg *sync.WaitGroup) error {
	handler := s.Routes()

	for _, addr := range s.cfg.ListenAddrs {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.mu.Lock()
		s.servers = append(s.servers, srv)
		s.mu.Unlock()

		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("http server stopped", zap.Error(err))
			}
		}()
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, srv := range s.servers {
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.servers = nil
	return firstErr
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info(
			"request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
