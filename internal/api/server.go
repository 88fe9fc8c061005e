// Package api exposes the back-office operations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"clinic-backoffice/internal/service"
	backofficeerrors "clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-Id"

// Config configures the HTTP server
type Config struct {
	Addr            string        `json:"addr" mapstructure:"addr" validate:"required"`
	AllowedOrigins  []string      `json:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gte=0"`
	ReadTimeout     time.Duration `json:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
}

// DefaultConfig listens on :8080 and accepts any origin
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		ReadTimeout:     30 * time.Second,
	}
}

// Server serves the back-office API
type Server struct {
	service *service.Service
	revenue service.RevenueSource
	config  *Config
	router  *gin.Engine
	logger  logger.Logger
}

// NewServer builds the router. revenue may be nil when collections are not available.
func NewServer(svc *service.Service, revenue service.RevenueSource, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		service: svc,
		revenue: revenue,
		config:  config,
		router:  gin.New(),
		logger:  logger.GetGlobalLogger().WithComponent("api"),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(correlationID())
	r.Use(s.requestLogger())
	r.Use(gin.Recovery())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.GET("/checks", s.checksHandler)
	r.GET("/commissions", s.commissionsHandler)
	r.GET("/reminders", s.remindersHandler)
	r.GET("/revenue", s.revenueHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("not_found", "route not found"))
	})
}

func (s *Server) corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	if len(s.config.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.config.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AddAllowHeaders(correlationHeader, "Authorization")
	corsConfig.AddExposeHeaders(correlationHeader)
	return corsConfig
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.config.Addr).Info("API listening")
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down API")
	return srv.Shutdown(shutdownCtx)
}

func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := strings.TrimSpace(c.GetHeader(correlationHeader))
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Set("correlation_id", cid)
		c.Header(correlationHeader, cid)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logger.Fields{
			"status":         c.Writer.Status(),
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"latency":        time.Since(start).String(),
			"correlation_id": c.GetString("correlation_id"),
		}).Info("request")
	}
}

func errorBody(code, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	be, ok := backofficeerrors.AsBackofficeError(err)
	if !ok {
		s.logger.WithError(err).Error("Unhandled API error")
		c.JSON(http.StatusInternalServerError, errorBody(string(backofficeerrors.CodeUnexpectedError), "internal error"))
		return
	}

	status := statusFor(be)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("code", be.Code).Error("API request failed")
	}
	body := errorBody(string(be.Code), be.Message)
	if be.Suggestion != "" {
		body["error"].(gin.H)["suggestion"] = be.Suggestion
	}
	c.JSON(status, body)
}

func statusFor(be *backofficeerrors.BackofficeError) int {
	switch be.Category {
	case backofficeerrors.CategoryValidation:
		if be.Code == backofficeerrors.CodeUnknownDoctor {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case backofficeerrors.CategoryStorage:
		return http.StatusBadGateway
	case backofficeerrors.CategoryFile, backofficeerrors.CategoryParse:
		return http.StatusUnprocessableEntity
	case backofficeerrors.CategoryConfiguration:
		if be.Code == backofficeerrors.CodeMissingConfig {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
