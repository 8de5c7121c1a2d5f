package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.AuthMiddleware)

			// Session lifecycle
			r.Post("/sessions", apiHandler.StartSessionHandler)
			r.Post("/sessions/{sessionID}/draft", apiHandler.UpdateDraftHandler)
			r.Delete("/sessions/{sessionID}", apiHandler.EndSessionHandler)

			// Stateless analysis
			r.Post("/analyze-blogs", apiHandler.AnalyzeBlogsHandler)
			r.Post("/recommend-keywords", apiHandler.RecommendKeywordsHandler)
			r.Post("/score-blog", apiHandler.ScoreBlogHandler)

			r.Get("/status", apiHandler.StatusHandler)
		})
	})

	return r
}
