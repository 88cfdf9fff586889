// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package webapp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4/catacomb"
)

var logger = loggo.GetLogger("flaskamqp.webapp")

const defaultShutdownTimeout = 10 * time.Second

// ServerConfig holds the parameters of a Server.
type ServerConfig struct {
	Listener net.Listener
	Handler  http.Handler

	// ShutdownTimeout bounds how long in-flight requests are given to
	// complete when the server is killed.
	ShutdownTimeout time.Duration
}

// Validate returns an error if the config cannot be used to start a
// Server.
func (c ServerConfig) Validate() error {
	if c.Listener == nil {
		return errors.NotValidf("nil Listener")
	}
	if c.Handler == nil {
		return errors.NotValidf("nil Handler")
	}
	if c.ShutdownTimeout < 0 {
		return errors.NotValidf("negative ShutdownTimeout")
	}
	return nil
}

// Server is a worker serving HTTP on a listener until killed.
type Server struct {
	catacomb catacomb.Catacomb
	config   ServerConfig
	server   *http.Server
}

// NewServer starts serving config.Handler on config.Listener. The
// listener is closed when the server stops.
func NewServer(config ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}
	s := &Server{
		config: config,
		server: &http.Server{
			Handler:           config.Handler,
			ReadHeaderTimeout: 30 * time.Second,
		},
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Name: "webapp-server",
		Site: &s.catacomb,
		Work: s.loop,
	}); err != nil {
		return nil, fmt.Errorf("creating catacomb plan: %w", err)
	}
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.config.Listener.Addr()
}

// Kill implements worker.Worker.
func (s *Server) Kill() {
	s.catacomb.Kill(nil)
}

// Wait implements worker.Worker.
func (s *Server) Wait() error {
	return s.catacomb.Wait()
}

func (s *Server) loop() error {
	logger.Infof("serving on %s", s.Addr())
	served := make(chan error, 1)
	go func() {
		served <- s.server.Serve(s.config.Listener)
	}()

	select {
	case <-s.catacomb.Dying():
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return errors.Annotate(err, "shutting down http server")
		}
		<-served
		logger.Infof("stopped serving on %s", s.Addr())
		return s.catacomb.ErrDying()
	case err := <-served:
		return errors.Annotate(err, "serving http")
	}
}
