package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter wires every route onto a chi router. allowedOrigin is the only
// browser origin granted CORS access; empty grants none.
func NewRouter(h *Handler, allowedOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, RequestLogger(h.logger))
	if allowedOrigin != "" {
		r.Use(CORS(allowedOrigin))
	}

	r.Get("/healthz", h.Health)
	r.Get("/metrics", h.GetMetrics)
	r.Get("/command", h.GetCommand)

	r.Route("/prompt", func(r chi.Router) {
		r.Get("/", h.GetPrompt)
		r.Put("/", h.SetPrompt)
		r.Get("/tokens", h.GetTokens)
		r.Get("/matrix", h.GetMatrix)
	})

	r.Route("/variables", func(r chi.Router) {
		r.Get("/", h.ListVariables)
		r.Delete("/", h.ClearVariables)
		r.Put("/{name}", h.UpsertVariable)
		r.Delete("/{name}", h.RemoveVariable)
	})

	r.Route("/queue", func(r chi.Router) {
		r.Get("/", h.ListJobs)
		r.Post("/", h.EnqueueJob)
		r.Delete("/", h.ClearQueue)
		r.Post("/matrix", h.EnqueueMatrix)
		r.Post("/clear-completed", h.ClearCompleted)
		r.Get("/current", h.GetCurrent)
		r.Get("/state", h.GetQueueState)
		r.Post("/start", h.StartQueue)
		r.Post("/stop", h.StopQueue)
		r.Get("/{id}", h.GetJob)
		r.Delete("/{id}", h.RemoveJob)
		r.Post("/{id}/skip", h.ToggleSkip)
		r.Put("/{id}/status", h.UpdateStatus)
	})

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", h.ListRuns)
		r.Delete("/", h.ClearRuns)
		r.Get("/{id}", h.GetRun)
		r.Delete("/{id}", h.RemoveRun)
		r.Put("/{id}/rating", h.RateRun)
	})

	return r
}

// RequestLogger logs one line per request with its status and latency
func RequestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("latency", time.Since(start)).
				Msg("request")
		})
	}
}

// CORS allows the browser front-end served from origin to call the API
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
