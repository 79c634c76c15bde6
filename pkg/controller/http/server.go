package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/notelens/notelens/pkg/usecase"
	"github.com/notelens/notelens/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	authUC usecase.AuthUseCaseInterface
	chatUC *usecase.ChatUseCase
	noteUC *usecase.NotesUseCase
}

type Options func(*Server)

func WithAuth(authUC usecase.AuthUseCaseInterface) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

func New(chatUC *usecase.ChatUseCase, noteUC *usecase.NotesUseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		chatUC: chatUC,
		noteUC: noteUC,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		// Preflight requests carry no credential, so the CORS handler
		// sits outside the authenticated group.
		r.Options("/chat", preflightHandler())

		r.Group(func(r chi.Router) {
			r.Use(authnMiddleware(s.authUC))

			r.Post("/chat", chatHandler(s.chatUC))

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", noteCreateHandler(s.noteUC))
				r.Get("/", noteListHandler(s.noteUC))
				r.Get("/{noteID}", noteGetHandler(s.noteUC))
				r.Put("/{noteID}", noteUpdateHandler(s.noteUC))
				r.Delete("/{noteID}", noteDeleteHandler(s.noteUC))
			})
		})
	})

	r.Get("/health", healthHandler)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck // header already committed
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
