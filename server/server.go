package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/briefly/ai/core/llm"
	"github.com/hrygo/briefly/ai/metrics"
	"github.com/hrygo/briefly/internal/profile"
	"github.com/hrygo/briefly/internal/version"
	"github.com/hrygo/briefly/server/middleware"
	apiv1 "github.com/hrygo/briefly/server/router/api/v1"
)

type Server struct {
	Profile *profile.Profile
	Metrics *metrics.PrometheusExporter

	echoServer *echo.Echo
}

func NewServer(_ context.Context, profile *profile.Profile) (*Server, error) {
	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(middleware.RequestLogger())

	s := &Server{
		Profile:    profile,
		Metrics:    metrics.NewPrometheusExporter(metrics.DefaultConfig()),
		echoServer: echoServer,
	}

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"version": version.GetInfo(profile.Mode),
		})
	})
	echoServer.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	var llmService llm.Service
	if profile.IsAIEnabled() {
		svc, err := llm.NewService(&llm.Config{
			Provider:        profile.ALLMProvider,
			Model:           profile.ALLMModel,
			TranscribeModel: profile.AITranscribeModel,
			APIKey:          profile.ALLMAPIKey,
			BaseURL:         profile.ALLMBaseURL,
			Timeout:         profile.ALLMTimeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create LLM service")
		}
		llmService = svc
	}

	apiV1Service := apiv1.NewAPIV1Service(profile, llmService, s.Metrics)
	apiV1Service.RegisterRoutes(echoServer)

	return s, nil
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	slog.Info("server stopped properly")
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.echoServer.Listener == nil {
		return nil
	}
	return s.echoServer.Listener.Addr()
}
