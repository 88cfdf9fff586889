// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/juju/flaskamqp/internal/webapp"
	"github.com/juju/flaskamqp/internal/worker/simplesignalhandler"
)

var logger = loggo.GetLogger("flaskamqp.cmd.webapp")

const (
	// exit_err is the value that is returned when the user has run the
	// web app in an invalid way.
	exit_err = 2
)

type options struct {
	listen    string
	logConfig string
}

func parseArgs(args []string) (options, error) {
	var opts options
	f := gnuflag.NewFlagSet("webapp", gnuflag.ContinueOnError)
	f.SetOutput(os.Stderr)
	f.StringVar(&opts.listen, "listen", ":8000", "address to serve HTTP on")
	f.StringVar(&opts.logConfig, "log-config", "<root>=INFO", "logging configuration")
	if err := f.Parse(true, args); err != nil {
		return options{}, err
	}
	if len(f.Args()) > 0 {
		return options{}, errors.Errorf("unrecognized args: %q", f.Args())
	}
	return opts, nil
}

func main() {
	os.Exit(Main(os.Args[1:]))
}

// Main runs the web app until it receives SIGINT or SIGTERM.
func Main(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		return exit_err
	}
	if err := loggo.ConfigureLoggers(opts.logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		return exit_err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := run(opts, os.Environ(), sigCh); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

func run(opts options, environ []string, sigCh <-chan os.Signal) error {
	config := webapp.LoadPrefixedConfig(webapp.DefaultPrefix, environ)
	if _, ok := config[webapp.KeyRabbitMQURIs]; !ok {
		logger.Warningf("%s_%s not set", webapp.DefaultPrefix, webapp.KeyRabbitMQURIs)
	}

	registry := prometheus.NewRegistry()
	metrics := webapp.NewMetrics()
	if err := registry.Register(metrics); err != nil {
		return errors.Trace(err)
	}

	listener, err := net.Listen("tcp", opts.listen)
	if err != nil {
		return errors.Annotatef(err, "listening on %s", opts.listen)
	}
	server, err := webapp.NewServer(webapp.ServerConfig{
		Listener: listener,
		Handler:  webapp.NewRouter(config, metrics, registry),
	})
	if err != nil {
		_ = listener.Close()
		return errors.Trace(err)
	}

	watcher, err := simplesignalhandler.NewSignalWatcher(sigCh,
		simplesignalhandler.SignalHandler(simplesignalhandler.ErrTerminated, nil))
	if err != nil {
		server.Kill()
		_ = server.Wait()
		return errors.Trace(err)
	}

	go func() {
		_ = watcher.Wait()
		server.Kill()
	}()
	err = server.Wait()
	watcher.Kill()
	return errors.Trace(err)
}
