package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/argus/pkg/usecase"
	"github.com/secmon-lab/argus/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

type Options func(*Server)

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cases", func(r chi.Router) {
			r.Post("/", s.handleCreateCase)
			r.Get("/", s.handleListCases)

			r.Route("/{caseID}", func(r chi.Router) {
				r.Get("/", s.handleGetCase)
				r.Delete("/", s.handleDeleteCase)
				r.Put("/queries", s.handleUpdateQueries)
				r.Post("/collect", s.handleCollect)
				r.Post("/collect-all", s.handleCollectAll)
				r.Get("/collect", s.handleCollectedCount)
				r.Post("/manual", s.handleManualInput)
				r.Post("/analyze", s.handleAnalyze)
			})
		})

		r.Post("/variants", s.handleVariants)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
