// Package http exposes the event catalogue, user settings, and
// notification triggers over a JSON API, plus health and metrics endpoints.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"github.com/couchcryptid/stargazer-events/internal/notify"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EventService is the catalogue used by the event routes.
type EventService interface {
	ListCurrent(ctx context.Context) ([]domain.AstronomicalEvent, error)
	GetByID(ctx context.Context, id string) (domain.AstronomicalEvent, error)
	Near(ctx context.Context, lat, lon, radiusKm float64) ([]domain.AstronomicalEvent, error)
	Clear(ctx context.Context) (int64, error)
	Populate(ctx context.Context) ([]domain.AstronomicalEvent, error)
}

// SettingsService manages the signed-in user's record.
type SettingsService interface {
	RegisterUser(ctx context.Context, id, name, email string) (domain.User, error)
	GetSettings(ctx context.Context, id string) (domain.UserSettings, error)
	PutSettings(ctx context.Context, id string, in domain.UserSettings) (domain.UserSettings, error)
	ListUserEvents(ctx context.Context, id string) ([]domain.UserEvent, error)
	AddUserEvent(ctx context.Context, id string, e domain.UserEvent) (domain.UserEvent, error)
	SaveAstronomicalEvent(ctx context.Context, id, eventID string) (domain.UserEvent, error)
	RemoveUserEvent(ctx context.Context, id, eventID string) error
}

// Notifier runs notification passes on demand.
type Notifier interface {
	NotifyAll(ctx context.Context) ([]notify.Result, error)
	NotifyUser(ctx context.Context, id string) (notify.Result, error)
}

// Deps bundles what the routes call into.
type Deps struct {
	Events    EventService
	Settings  SettingsService
	Notifier  Notifier
	Ready     sharedobs.ReadinessChecker
	JWTSecret []byte
	// AdminToken guards /api/admin and /api/notify. Empty disables them.
	AdminToken string
}

// Server exposes the API along with /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	echo       *echo.Echo
	logger     *slog.Logger
}

// NewServer builds the router and wraps it in an http.Server.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)
	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	e.GET("/healthz", echo.WrapHandler(http.HandlerFunc(sharedobs.LivenessHandler())))
	e.GET("/readyz", echo.WrapHandler(http.HandlerFunc(sharedobs.ReadinessHandler(deps.Ready))))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	h := &handlers{deps: deps}

	api := e.Group("/api")
	api.GET("/events", h.listEvents)
	api.GET("/events/near", h.nearEvents)
	api.GET("/events/near.geojson", h.nearEventsGeoJSON)
	api.GET("/events/:id", h.getEvent)

	admin := requireAdmin(deps.AdminToken)
	api.DELETE("/admin/events", h.clearEvents, admin)
	api.POST("/admin/events/populate", h.populateEvents, admin)
	api.POST("/notify", h.notifyAll, admin)

	user := api.Group("/user", authenticate(deps.JWTSecret))
	user.GET("", h.currentUser)
	user.GET("/settings", h.getSettings)
	user.PUT("/settings", h.putSettings)
	user.GET("/events", h.listUserEvents)
	user.POST("/events", h.addUserEvent)
	user.DELETE("/events/:id", h.removeUserEvent)
	user.POST("/events/save/:eventId", h.saveEvent)
	user.POST("/notify", h.notifyMe)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      e,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		echo:   e,
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// errorHandler maps domain errors to status codes with a JSON body.
func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func errorResponse(err error) (int, map[string]any) {
	var httpErr *echo.HTTPError
	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, map[string]any{"error": msg}
	case errors.As(err, &valErr):
		return http.StatusBadRequest, map[string]any{"error": valErr.Error(), "fields": valErr.Fields}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, map[string]any{"error": err.Error()}
	case errors.Is(err, domain.ErrSettingsIncomplete):
		return http.StatusConflict, map[string]any{"error": err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, map[string]any{"error": err.Error()}
	case errors.Is(err, domain.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, map[string]any{"error": "temporarily unavailable, retry later"}
	default:
		return http.StatusInternalServerError, map[string]any{"error": "internal error"}
	}
}
