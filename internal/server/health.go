package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	})
}
