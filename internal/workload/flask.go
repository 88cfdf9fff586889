// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package workload manages the web app running in the workload container
// through Pebble.
package workload

import (
	"context"
	"fmt"
	"time"

	"github.com/canonical/pebble/client"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/retry"
)

var logger = loggo.GetLogger("flaskamqp.workload")

const (
	// DefaultServiceName is the name of the Pebble service running the
	// web app.
	DefaultServiceName = "flask"

	// DefaultCommand starts the web app inside the workload container.
	DefaultCommand = "/bin/webapp --listen :8000"

	defaultChangeTimeout = time.Minute
	defaultRetryDelay    = time.Second
	defaultRetryAttempts = 3
)

// Restarter restarts the web app with extra environment variables.
type Restarter interface {
	Restart(ctx context.Context, env map[string]string) error
}

// PebbleClient is the part of the Pebble client used to drive the
// workload container.
type PebbleClient interface {
	SysInfo() (*client.SysInfo, error)
	AddLayer(opts *client.AddLayerOptions) error
	Restart(opts *client.ServiceOptions) (string, error)
	WaitChange(id string, opts *client.WaitChangeOptions) (*client.Change, error)
}

// ConfigSource supplies the charm config.
type ConfigSource interface {
	Config(ctx context.Context) (map[string]interface{}, error)
}

// FlaskAppConfig holds the dependencies of a FlaskApp.
type FlaskAppConfig struct {
	Pebble       PebbleClient
	ConfigSource ConfigSource
	Clock        clock.Clock

	// ServiceName defaults to DefaultServiceName.
	ServiceName string
	// Command defaults to DefaultCommand.
	Command    string
	WorkingDir string

	ChangeTimeout time.Duration
	RetryDelay    time.Duration
	RetryAttempts int
}

// Validate returns an error if the config cannot be used to build a
// FlaskApp.
func (c FlaskAppConfig) Validate() error {
	if c.Pebble == nil {
		return errors.NotValidf("nil Pebble")
	}
	if c.ConfigSource == nil {
		return errors.NotValidf("nil ConfigSource")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.ChangeTimeout < 0 {
		return errors.NotValidf("negative ChangeTimeout")
	}
	if c.RetryAttempts < 0 {
		return errors.NotValidf("negative RetryAttempts")
	}
	return nil
}

// FlaskApp restarts the web app service with the environment derived
// from the charm config and relations.
type FlaskApp struct {
	config FlaskAppConfig
}

// NewFlaskApp returns a FlaskApp, filling in defaults for unset options.
func NewFlaskApp(config FlaskAppConfig) (*FlaskApp, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}
	if config.Command == "" {
		config.Command = DefaultCommand
	}
	if config.ChangeTimeout == 0 {
		config.ChangeTimeout = defaultChangeTimeout
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaultRetryDelay
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = defaultRetryAttempts
	}
	return &FlaskApp{config: config}, nil
}

// Restart validates the charm config, replaces the web app service
// definition with one carrying env, and restarts the service. It is
// safe to call on every hook: the service is restarted each time.
// An invalid charm config is reported as a ConfigInvalidError and an
// unreachable Pebble as ErrPebbleNotReady.
func (f *FlaskApp) Restart(ctx context.Context, env map[string]string) error {
	raw, err := f.config.ConfigSource.Config(ctx)
	if err != nil {
		return errors.Annotate(err, "reading charm config")
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		return errors.Trace(err)
	}
	serviceEnv, err := cfg.Environment()
	if err != nil {
		return errors.Trace(err)
	}
	for k, v := range env {
		serviceEnv[k] = v
	}

	if err := f.waitForPebble(ctx); err != nil {
		return err
	}

	layerData, err := renderLayer(f.config.ServiceName, f.config.Command, f.config.WorkingDir, serviceEnv)
	if err != nil {
		return errors.Trace(err)
	}
	if err := f.config.Pebble.AddLayer(&client.AddLayerOptions{
		Combine:   true,
		Label:     f.config.ServiceName,
		LayerData: layerData,
	}); err != nil {
		return errors.Annotatef(err, "adding %s layer", f.config.ServiceName)
	}

	changeID, err := f.config.Pebble.Restart(&client.ServiceOptions{
		Names: []string{f.config.ServiceName},
	})
	if err != nil {
		return errors.Annotatef(err, "restarting %s", f.config.ServiceName)
	}
	change, err := f.config.Pebble.WaitChange(changeID, &client.WaitChangeOptions{
		Timeout: f.config.ChangeTimeout,
	})
	if err != nil {
		return errors.Annotatef(err, "waiting for %s restart", f.config.ServiceName)
	}
	if change.Err != "" {
		return errors.Errorf("restarting %s: %s", f.config.ServiceName, change.Err)
	}
	logger.Infof("restarted %s (change %s)", f.config.ServiceName, changeID)
	return nil
}

func (f *FlaskApp) waitForPebble(ctx context.Context) error {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			_, err := f.config.Pebble.SysInfo()
			return err
		},
		NotifyFunc: func(lastErr error, attempt int) {
			logger.Debugf("pebble not reachable (attempt %d): %v", attempt, lastErr)
		},
		Attempts: f.config.RetryAttempts,
		Delay:    f.config.RetryDelay,
		Clock:    f.config.Clock,
		Stop:     ctx.Done(),
	})
	if err == nil {
		return nil
	}
	if retry.IsRetryStopped(err) {
		return errors.Trace(ctx.Err())
	}
	return fmt.Errorf("%w: %v", ErrPebbleNotReady, retry.LastError(err))
}
