// Package server exposes the HTTP surface: the streaming chat endpoint,
// session management, health, and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	errx "github.com/analyst-9000/server/internal/core/error"
	"github.com/analyst-9000/server/internal/service"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// Config holds the HTTP listener configuration.
type Config struct {
	Addr string `envconfig:"SERVER_ADDR" default:":8000"`
}

type Server struct {
	echo *echo.Echo
	svc  *service.ChatService
}

func New(svc *service.ChatService) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType},
	}))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			msg = http.StatusText(code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
		}
		logx.Error().
			Err(err).
			Int("status", code).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	s := &Server{echo: e, svc: svc}

	e.POST("/chatbot/llm_chat_completion", s.handleChatCompletion)
	e.GET("/chatbot/sessions", s.handleListSessions)
	e.GET("/chatbot/sessions/:session_id", s.handleGetSession)
	e.DELETE("/chatbot/sessions/:session_id", s.handleDeleteSession)
	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start blocks serving HTTP on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	logx.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// httpError maps internal errors to transport errors, honoring the status
// carried by errx wrappers.
func httpError(err error) error {
	var appErr *errx.Error
	if errors.As(err, &appErr) {
		return echo.NewHTTPError(appErr.Status, appErr.Message)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
