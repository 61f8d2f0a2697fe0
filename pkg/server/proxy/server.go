package proxy

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pixgallery/pkg/config"
	"pixgallery/pkg/log"
	"pixgallery/pkg/upstream"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server is the credential-forwarding proxy in front of the upstream API.
type Server struct {
	cfg     *config.Config
	version string
	proxy   *Proxy
	echo    *echo.Echo
}

// NewServer builds the server and its upstream client.
func NewServer(cfg *config.Config, version string) (*Server, error) {
	client, err := upstream.New(cfg.UpstreamBaseURL, cfg.RetryMax, cfg.RetryWaitMin, cfg.RetryWaitMax, cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:     cfg,
		version: version,
		proxy:   NewProxy(client, version),
		echo:    echo.New(),
	}
	srv.setupRoutes()
	return srv, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start(addr string) error {
	go func() {
		log.Info().
			Str("addr", addr).
			Str("upstream", s.cfg.UpstreamBaseURL).
			Str("version", s.version).
			Msg("Starting gallery proxy")

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Shutdown()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Server gracefully stopped")
	return nil
}

func (s *Server) setupRoutes() {
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = errorHandler

	s.echo.Pre(permissiveCORS(s.cfg.AllowOrigins))
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	// Log the path only: the query carries the credential.
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			reqLog := log.WithRequest(v.RequestID)
			event := reqLog.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = reqLog.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("Request")
			return nil
		},
	}))
	s.echo.Use(middleware.Recover())

	p := s.proxy
	s.echo.Match([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}, "/api/proxy", p.PassthroughHandler)
	s.echo.POST("/api/auth", p.AuthHandler)
	s.echo.GET("/api/files", p.FilesHandler)
	s.echo.POST("/api/delete-file", p.DeleteFileHandler)
	s.echo.GET("/api/albums", p.AlbumsHandler)
	s.echo.POST("/api/albums", p.CreateAlbumHandler)
	s.echo.GET("/api/albums/:id", p.AlbumHandler)
	s.echo.PUT("/api/albums/:id", p.UpdateAlbumHandler)
	s.echo.DELETE("/api/albums/:id", p.DeleteAlbumHandler)
	s.echo.GET("/api/health", p.HealthHandler)
	s.echo.GET("/swagger", s.serveSwaggerUI)
	s.echo.GET("/swagger.yml", serveSwaggerSpec)
}
