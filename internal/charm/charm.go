// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charm implements the hooks of the flask charm: it asks related
// AMQP brokers for a user and vhost, and restarts the web app with the
// broker URIs they publish.
package charm

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/juju/flaskamqp/core/status"
	"github.com/juju/flaskamqp/internal/amqp"
	"github.com/juju/flaskamqp/internal/hookenv"
	"github.com/juju/flaskamqp/internal/workload"
)

var logger = loggo.GetLogger("flaskamqp.charm")

// ContainerName is the name of the workload container running the web
// app.
const ContainerName = "flask-app"

// Hook names handled by the charm.
const (
	HookAMQPRelationChanged = amqp.Endpoint + "-relation-changed"
	HookAMQPRelationBroken  = amqp.Endpoint + "-relation-broken"
	HookConfigChanged       = "config-changed"
	HookPebbleReady         = ContainerName + "-pebble-ready"
)

const pebbleWaitingMessage = "waiting for pebble"

// FlaskCharm handles the hooks of the flask charm.
type FlaskCharm struct {
	hookCtx  hookenv.Context
	flaskApp workload.Restarter
}

// NewFlaskCharm returns a FlaskCharm using hookCtx to talk to the unit
// agent and flaskApp to restart the web app.
func NewFlaskCharm(hookCtx hookenv.Context, flaskApp workload.Restarter) *FlaskCharm {
	return &FlaskCharm{
		hookCtx:  hookCtx,
		flaskApp: flaskApp,
	}
}

// Register binds the charm's hook handlers in r.
func (c *FlaskCharm) Register(r *Registry) error {
	for name, f := range map[string]HookFunc{
		HookAMQPRelationChanged: c.RelationChanged,
		HookAMQPRelationBroken:  c.RelationBroken,
		HookConfigChanged:       c.ConfigChanged,
		HookPebbleReady:         c.PebbleReady,
	} {
		if err := r.Register(name, f); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// RelationChanged publishes this application's vhost and username on
// every amqp relation, then restarts the web app with the current broker
// URIs.
func (c *FlaskCharm) RelationChanged(ctx context.Context) error {
	relationIds, err := c.hookCtx.RelationIds(ctx, amqp.Endpoint)
	if err != nil {
		return errors.Trace(err)
	}
	vhost, err := c.vhost(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	settings := amqp.RequestSettings(c.hookCtx.AppName(), vhost)
	for _, relationId := range relationIds {
		app, err := c.hookCtx.RemoteApp(ctx, relationId)
		if err != nil {
			return errors.Trace(err)
		}
		if app == "" {
			continue
		}
		if err := c.hookCtx.SetAppSettings(ctx, relationId, settings); err != nil {
			return errors.Trace(err)
		}
	}
	return c.RestartFlask(ctx)
}

// RelationBroken restarts the web app with the URIs of the brokers that
// remain. Data published on the departed relation is left as is.
func (c *FlaskCharm) RelationBroken(ctx context.Context) error {
	return c.RestartFlask(ctx)
}

// ConfigChanged restarts the web app so that it picks up new config.
func (c *FlaskCharm) ConfigChanged(ctx context.Context) error {
	return c.RestartFlask(ctx)
}

// PebbleReady starts the web app once its container is up.
func (c *FlaskCharm) PebbleReady(ctx context.Context) error {
	return c.RestartFlask(ctx)
}

// RestartFlask restarts the web app with the broker URIs injected and
// reports the outcome as workload status. Invalid config blocks the
// unit instead of failing the hook.
func (c *FlaskCharm) RestartFlask(ctx context.Context) error {
	env, err := c.environment(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	err = c.flaskApp.Restart(ctx, env)
	switch {
	case err == nil:
		return c.setStatus(ctx, status.NewActive())
	case workload.IsConfigInvalid(err):
		logger.Warningf("web app not restarted: %v", err)
		return c.setStatus(ctx, status.NewBlocked(err.Error()))
	case errors.Is(err, workload.ErrPebbleNotReady):
		logger.Infof("web app not restarted: %v", err)
		return c.setStatus(ctx, status.NewWaiting(pebbleWaitingMessage))
	default:
		return errors.Annotate(err, "restarting web app")
	}
}

func (c *FlaskCharm) environment(ctx context.Context) (map[string]string, error) {
	vhost, err := c.vhost(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	uris, err := amqp.URIs(ctx, c.hookCtx, c.hookCtx.AppName(), vhost)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return amqp.Environment(uris)
}

// vhost returns the configured vhost. It is read as is: a malformed
// config is reported by the restart that follows.
func (c *FlaskCharm) vhost(ctx context.Context) (string, error) {
	config, err := c.hookCtx.Config(ctx)
	if err != nil {
		return "", errors.Trace(err)
	}
	vhost, ok := config[workload.OptionVhost].(string)
	if !ok {
		return amqp.DefaultVhost, nil
	}
	return vhost, nil
}

// setStatus sets the unit status and, on the leader, the application
// status.
func (c *FlaskCharm) setStatus(ctx context.Context, info status.StatusInfo) error {
	if err := c.hookCtx.SetUnitStatus(ctx, info); err != nil {
		return errors.Trace(err)
	}
	leader, err := c.hookCtx.IsLeader(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if !leader {
		return nil
	}
	return errors.Trace(c.hookCtx.SetAppStatus(ctx, info))
}
