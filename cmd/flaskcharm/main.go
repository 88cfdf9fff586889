// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/canonical/pebble/client"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/flaskamqp/internal/charm"
	"github.com/juju/flaskamqp/internal/hookenv"
	"github.com/juju/flaskamqp/internal/workload"
)

var logger = loggo.GetLogger("flaskamqp.cmd.flaskcharm")

const (
	// exit_err is the value that is returned when the hook fails.
	exit_err = 1
	// exit_panic is the value that is returned when we exit due to an unhandled panic.
	exit_panic = 3
)

const (
	// envLoggingConfig optionally overrides the default logging config.
	envLoggingConfig = "FLASKCHARM_LOGGING_CONFIG"

	defaultLoggingConfig = "<root>=INFO"
)

// pebbleSocket is where the unit agent mounts the Pebble socket of the
// web app's container inside the charm container.
var pebbleSocket = "/charm/containers/" + charm.ContainerName + "/pebble.socket"

func main() {
	os.Exit(Main(os.Getenv, os.Environ()))
}

// Main is not redundant with main(), because it provides an entry point
// for testing with an arbitrary hook environment.
func Main(getenv func(string) string, environ []string) int {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			logger.Criticalf("Unhandled panic: \n%v\n%s", r, buf)
			os.Exit(exit_panic)
		}
	}()

	tools := hookenv.NewTools(hookenv.DefaultRunner(), "", environ)
	if err := setupLogging(tools, getenv(envLoggingConfig)); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		return exit_err
	}
	if err := runHook(context.Background(), tools, getenv); err != nil {
		logger.Errorf("%v", err)
		return exit_err
	}
	return 0
}

func setupLogging(tools hookenv.ToolRunner, config string) error {
	if config == "" {
		config = defaultLoggingConfig
	}
	if _, err := loggo.ReplaceDefaultWriter(hookenv.NewLogWriter(tools)); err != nil {
		return errors.Annotate(err, "installing juju-log writer")
	}
	return errors.Trace(loggo.ConfigureLoggers(config))
}

func runHook(ctx context.Context, tools hookenv.ToolRunner, getenv func(string) string) error {
	hookName, err := charm.HookName(getenv)
	if err != nil {
		return errors.Trace(err)
	}
	hookCtx, err := hookenv.NewContext(tools, getenv)
	if err != nil {
		return errors.Trace(err)
	}
	pebble, err := client.New(&client.Config{Socket: pebbleSocket})
	if err != nil {
		return errors.Annotate(err, "creating pebble client")
	}
	flaskApp, err := workload.NewFlaskApp(workload.FlaskAppConfig{
		Pebble:       pebble,
		ConfigSource: hookCtx,
		Clock:        clock.WallClock,
	})
	if err != nil {
		return errors.Trace(err)
	}

	registry := charm.NewRegistry()
	if err := charm.NewFlaskCharm(hookCtx, flaskApp).Register(registry); err != nil {
		return errors.Trace(err)
	}
	return registry.Run(ctx, hookName)
}
