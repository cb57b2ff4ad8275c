package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/limbo/habitrack/internal/service"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	mx                    *chi.Mux
	userService           service.UserServiceI
	habitsService         service.HabitsServiceI
	recommendationService service.RecommendationServiceI
	jwtService            JWTServiceI
}

type ServicesList struct {
	UserService           service.UserServiceI
	HabitsService         service.HabitsServiceI
	RecommendationService service.RecommendationServiceI
	JwtService            JWTServiceI
}

func New(servicesOptions *ServicesList) *Server {
	s := &Server{
		mx:                    chi.NewMux(),
		userService:           servicesOptions.UserService,
		habitsService:         servicesOptions.HabitsService,
		recommendationService: servicesOptions.RecommendationService,
		jwtService:            servicesOptions.JwtService,
	}
	s.mountRoutes()
	return s
}

func (s *Server) mountRoutes() {
	s.mx.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware)
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.Health)
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware, s.LoggerExtensionMiddleware)
			r.Route("/habits", func(r chi.Router) {
				r.Post("/", s.CreateHabit)
				r.Get("/", s.GetHabits)
				r.Get("/{id}", s.GetHabit)
				r.Put("/{id}", s.UpdateHabit)
				r.Delete("/{id}", s.DeleteHabit)
				r.Put("/{id}/status", s.SetStatus)
			})
			r.Get("/statistics", s.GetStatistics)
			r.Get("/recommendations", s.GetRecommendations)
		})
	})
}

// Handler returns the router wrapped with tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.mx, "habitrack")
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", slog.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
