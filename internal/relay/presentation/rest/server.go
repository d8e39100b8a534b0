package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/izzddalfk/tgrelay/internal/relay/config"
	"github.com/izzddalfk/tgrelay/internal/relay/core"
	"github.com/izzddalfk/tgrelay/internal/relay/presentation/rest/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/validator.v2"
)

const (
	textContentType = "text/plain; charset=utf-8"

	defaultStatsWindow = 24 * time.Hour
	shutdownTimeout    = 10 * time.Second
)

type Server struct {
	relayService core.RelayService
	stats        core.StatsReader
	gatherer     prometheus.Gatherer
	logger       *slog.Logger

	address      string
	relayPath    string
	readTimeout  time.Duration
	writeTimeout time.Duration

	router *gin.Engine
}

type ServerConfig struct {
	RelayService core.RelayService `validate:"nonnil"`
	Logger       *slog.Logger      `validate:"nonnil"`
	Address      string            `validate:"nonzero"`
	RelayPath    string            `validate:"nonzero"`
	ReadTimeout  time.Duration     `validate:"nonzero"`
	WriteTimeout time.Duration     `validate:"nonzero"`

	// Optional. /stats answers 404 without it, /metrics is not served without Gatherer.
	Stats    core.StatsReader
	Gatherer prometheus.Gatherer
}

func NewServer(config ServerConfig) (*Server, error) {
	if err := validator.Validate(config); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(RequestID(), Logging(config.Logger), Recovery(config.Logger))

	s := &Server{
		relayService: config.RelayService,
		stats:        config.Stats,
		gatherer:     config.Gatherer,
		logger:       config.Logger,
		address:      config.Address,
		relayPath:    config.RelayPath,
		readTimeout:  config.ReadTimeout,
		writeTimeout: config.WriteTimeout,
		router:       router,
	}
	s.setup()

	return s, nil
}

// Handler exposes the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.address,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "Starting HTTP server",
			"address", s.address,
			"relay_path", s.relayPath,
		)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Shutdown requested, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (s *Server) setup() {
	s.router.GET(config.HealthPath, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, handlers.NewSuccessResponse("It's running!").WithRequestID(getRequestID(ctx)))
	})

	s.router.GET(config.StatsPath, s.handleStats)

	if s.gatherer != nil {
		s.router.GET(config.MetricsPath, gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	// every method is routed here so the relay itself answers 405
	s.router.Any(s.relayPath, s.handleRelay)

	// methods outside Any's list (PURGE, PROPFIND, ...) have no tree and land here
	s.router.NoRoute(func(ctx *gin.Context) {
		if ctx.Request.URL.Path == s.relayPath {
			s.handleRelay(ctx)
		}
	})
}

func (s *Server) handleRelay(ctx *gin.Context) {
	outcome := s.relayService.Relay(ctx.Request.Context(), core.RelayRequest{
		RequestID: getRequestID(ctx),
		Method:    ctx.Request.Method,
		Body:      ctx.Request.Body,
	})

	ctx.Data(outcome.Status, textContentType, []byte(outcome.Body))
}

func (s *Server) handleStats(ctx *gin.Context) {
	if s.stats == nil {
		ctx.JSON(http.StatusNotFound, handlers.NewErrorResponse("stats are disabled").WithRequestID(getRequestID(ctx)))
		return
	}

	window := defaultStatsWindow
	if raw := ctx.Query("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, handlers.NewErrorResponse("invalid window: "+raw).WithRequestID(getRequestID(ctx)))
			return
		}
		window = parsed
	}

	stats, err := s.stats.GetOutcomeStats(ctx.Request.Context(), time.Now().Add(-window))
	if err != nil {
		s.logger.ErrorContext(ctx.Request.Context(), "Failed to read relay stats", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError, handlers.NewErrorResponse(err.Error()).WithRequestID(getRequestID(ctx)))
		return
	}

	ctx.JSON(http.StatusOK, handlers.NewSuccessResponse(stats).WithRequestID(getRequestID(ctx)))
}
