package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sentimen/internal/config"
)

// Server wraps the HTTP API.
type Server struct {
	server *http.Server
}

func New(cfg config.Config, h *Handlers) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/classify", h.Classify)
		r.Post("/batch-classify", h.BatchClassify)
		r.Post("/scrape", h.Scrape)
		r.Post("/brand/battle", h.BrandBattle)

		r.Get("/history", h.History)
		r.Post("/feedback/{id}", h.Feedback)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/trend", h.Trend)
			r.Get("/summary", h.Summary)
			r.Get("/wordcloud", h.WordCloud)
		})

		r.Route("/youtube", func(r chi.Router) {
			r.Post("/save", h.SaveAnalysis)
			r.Get("/saved", h.ListSaved)
		})

		r.Post("/upload-train-data", h.UploadTrainData)
		r.Get("/training-status", h.TrainingStatus)
	})

	router.Get("/ws/training", h.TrainingStatusWS)

	return &Server{
		server: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
	}
}

func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}
