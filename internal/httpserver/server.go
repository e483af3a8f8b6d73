// Package httpserver exposes the directory and the extraction workflow
// over HTTP. The venue list is public; every write-adjacent route requires
// an authenticated member.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/peachtree-labs/happyhour/internal/extract"
	"github.com/peachtree-labs/happyhour/internal/identity"
	"github.com/peachtree-labs/happyhour/internal/persist"
	"github.com/peachtree-labs/happyhour/internal/session"
	"github.com/peachtree-labs/happyhour/internal/store"
)

// Server holds the wired services behind the HTTP API.
type Server struct {
	controller *session.Controller
	venues     store.Source
	provider   identity.Provider
}

// New creates a Server.
func New(controller *session.Controller, venues store.Source, provider identity.Provider) *Server {
	return &Server{controller: controller, venues: venues, provider: provider}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/venues", s.handleListVenues)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/api/extract-deal", s.handleExtractDeal)
		r.Post("/api/enhance-deal", s.handleEnhanceDeal)
		r.Post("/api/venues", s.handleSaveVenue)
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// authenticate verifies the bearer token with the identity provider and
// stores the user on the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := identity.BearerToken(r.Header.Get("Authorization"))
		user, err := s.provider.GetUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			zap.L().Error("identity provider failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "identity service unavailable")
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), user)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForSaveError maps persistence failures onto response codes.
func statusForSaveError(err error) int {
	if errors.Is(err, store.ErrVenueNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, persist.ErrSaveFailed) {
		return http.StatusBadGateway
	}
	if errors.Is(err, extract.ErrEmptyInput) || errors.Is(err, extract.ErrEmptyFeedback) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// errorMessage picks the client-facing text for a workflow error so the
// body always matches the failure that actually occurred.
func errorMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, extract.ErrEmptyInput):
		return "no text or images supplied"
	case errors.Is(err, extract.ErrEmptyFeedback):
		return "feedback is required"
	case errors.Is(err, store.ErrVenueNotFound):
		return "matched venue no longer exists"
	case errors.Is(err, persist.ErrSaveFailed):
		return "save failed"
	}
	return fallback
}
