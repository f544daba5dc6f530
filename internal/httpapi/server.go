// Package httpapi serves the record API over a record store, so a CLI in
// remote mode can share one database with other clients.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexanderramin/dealflow/internal/recordstore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes /health, /metrics and the /api/v1 record collections.
type Server struct {
	echo   *echo.Echo
	store  *recordstore.Store
	logger *zap.Logger
}

type Option func(*options)

type options struct {
	registry *prometheus.Registry
}

// WithRegistry serves /metrics from reg and records HTTP metrics into it.
// Without it the server exposes no metrics endpoint.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// NewServer builds the HTTP server. Both store and logger are required.
func NewServer(store *recordstore.Store, logger *zap.Logger, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: recordstore.RequestIDHeader,
	}))
	e.Use(requestLogger(logger))
	if o.registry != nil {
		e.Use(newHTTPMetrics(o.registry).middleware())
	}

	s := &Server{echo: e, store: store, logger: logger}
	s.registerRoutes(o.registry)
	return s, nil
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(recordstore.RequestIDHeader)),
			)
			return nil
		}
	}
}

func (s *Server) registerRoutes(reg *prometheus.Registry) {
	s.echo.GET("/health", s.handleHealth)
	if reg != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}

	v1 := s.echo.Group("/api/v1")

	contacts := v1.Group("/" + recordstore.CollectionContacts)
	contacts.GET("", s.listContacts)
	contacts.POST("", s.createContact)
	contacts.GET("/:id", s.getContact)
	contacts.PATCH("/:id", s.updateContact)
	contacts.DELETE("/:id", s.deleteContact)

	deals := v1.Group("/" + recordstore.CollectionDeals)
	deals.GET("", s.listDeals)
	deals.POST("", s.createDeal)
	deals.GET("/:id", s.getDeal)
	deals.PATCH("/:id", s.updateDeal)
	deals.DELETE("/:id", s.deleteDeal)

	activities := v1.Group("/" + recordstore.CollectionActivities)
	activities.GET("", s.listActivities)
	activities.POST("", s.createActivity)
	activities.GET("/:id", s.getActivity)
	activities.PATCH("/:id", s.updateActivity)
	activities.DELETE("/:id", s.deleteActivity)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown. http.ErrServerClosed is swallowed.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
