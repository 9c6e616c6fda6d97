package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	// WriteTimeout must outlast a full batch of sequential generation calls.
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	Engine *gin.Engine
	srv    *http.Server
	cfg    ServerConfig
}

func NewServer(rcfg RouterConfig, scfg ServerConfig) *Server {
	engine := NewRouter(rcfg)
	if scfg.ReadHeaderTimeout <= 0 {
		scfg.ReadHeaderTimeout = 10 * time.Second
	}
	if scfg.ShutdownTimeout <= 0 {
		scfg.ShutdownTimeout = 15 * time.Second
	}
	return &Server{
		Engine: engine,
		cfg:    scfg,
		srv: &http.Server{
			Addr:              scfg.Addr,
			Handler:           engine,
			ReadHeaderTimeout: scfg.ReadHeaderTimeout,
			WriteTimeout:      scfg.WriteTimeout,
		},
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
