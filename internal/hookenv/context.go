// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package hookenv gives a charm access to the hook environment set up by
// the unit agent: its own identity, charm config, relation data, and
// status reporting.
package hookenv

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
	"gopkg.in/yaml.v2"

	"github.com/juju/flaskamqp/core/status"
)

// Context is the view a hook has of the unit it runs on.
type Context interface {
	// UnitName returns the name of the unit the hook runs for.
	UnitName() string

	// AppName returns the name of the unit's application.
	AppName() string

	// Config returns the charm config of the application.
	Config(ctx context.Context) (map[string]interface{}, error)

	// RelationIds returns the ids of the relations established on the
	// named endpoint, sorted.
	RelationIds(ctx context.Context, endpoint string) ([]string, error)

	// RemoteApp returns the name of the application on the other side of
	// the relation, or an empty string if it is not known yet.
	RemoteApp(ctx context.Context, relationId string) (string, error)

	// RelationUnits returns the remote units that have joined the
	// relation, sorted.
	RelationUnits(ctx context.Context, relationId string) ([]string, error)

	// UnitSettings returns the relation data bag published by a remote
	// unit.
	UnitSettings(ctx context.Context, relationId, unitName string) (map[string]string, error)

	// SetAppSettings writes settings into this application's relation
	// data bag.
	SetAppSettings(ctx context.Context, relationId string, settings map[string]string) error

	// IsLeader reports whether the unit is the application leader.
	IsLeader(ctx context.Context) (bool, error)

	// SetUnitStatus sets the workload status of the unit.
	SetUnitStatus(ctx context.Context, info status.StatusInfo) error

	// SetAppStatus sets the workload status of the application. Only the
	// leader may call it.
	SetAppStatus(ctx context.Context, info status.StatusInfo) error
}

// ToolRunner runs a named hook tool and returns its standard output.
type ToolRunner interface {
	Run(ctx context.Context, tool string, args ...string) ([]byte, error)
}

// EnvUnitName is the environment variable the unit agent sets to the
// name of the unit a hook runs for.
const EnvUnitName = "JUJU_UNIT_NAME"

type hookContext struct {
	tools    ToolRunner
	unitName string
	appName  string
	tempDir  string
}

// NewContext returns a Context backed by hook tools. getenv is used to
// look up the hook environment, typically os.Getenv.
func NewContext(tools ToolRunner, getenv func(string) string) (Context, error) {
	unitName := getenv(EnvUnitName)
	if unitName == "" {
		return nil, errors.NotFoundf("%s", EnvUnitName)
	}
	if !names.IsValidUnit(unitName) {
		return nil, errors.NotValidf("unit name %q", unitName)
	}
	appName, err := names.UnitApplication(unitName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &hookContext{
		tools:    tools,
		unitName: unitName,
		appName:  appName,
	}, nil
}

func (h *hookContext) UnitName() string {
	return h.unitName
}

func (h *hookContext) AppName() string {
	return h.appName
}

func (h *hookContext) Config(ctx context.Context) (map[string]interface{}, error) {
	var config map[string]interface{}
	if err := h.runJSON(ctx, &config, "config-get", "--format=json"); err != nil {
		return nil, errors.Trace(err)
	}
	if config == nil {
		config = make(map[string]interface{})
	}
	return config, nil
}

func (h *hookContext) RelationIds(ctx context.Context, endpoint string) ([]string, error) {
	var ids []string
	if err := h.runJSON(ctx, &ids, "relation-ids", "--format=json", endpoint); err != nil {
		return nil, errors.Trace(err)
	}
	sort.Strings(ids)
	return ids, nil
}

func (h *hookContext) RemoteApp(ctx context.Context, relationId string) (string, error) {
	var app string
	if err := h.runJSON(ctx, &app, "relation-list", "-r", relationId, "--app", "--format=json"); err != nil {
		return "", errors.Trace(err)
	}
	return app, nil
}

func (h *hookContext) RelationUnits(ctx context.Context, relationId string) ([]string, error) {
	var units []string
	if err := h.runJSON(ctx, &units, "relation-list", "-r", relationId, "--format=json"); err != nil {
		return nil, errors.Trace(err)
	}
	sort.Strings(units)
	return units, nil
}

func (h *hookContext) UnitSettings(ctx context.Context, relationId, unitName string) (map[string]string, error) {
	var settings map[string]string
	if err := h.runJSON(ctx, &settings, "relation-get", "-r", relationId, "--format=json", "-", unitName); err != nil {
		return nil, errors.Trace(err)
	}
	if settings == nil {
		settings = make(map[string]string)
	}
	return settings, nil
}

func (h *hookContext) SetAppSettings(ctx context.Context, relationId string, settings map[string]string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return errors.Trace(err)
	}
	f, err := os.CreateTemp(h.tempDir, "relation-set-*.yaml")
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Trace(err)
	}
	if err := f.Close(); err != nil {
		return errors.Trace(err)
	}
	_, err = h.tools.Run(ctx, "relation-set", "-r", relationId, "--app", "--file", f.Name())
	return errors.Annotatef(err, "setting application data on relation %s", relationId)
}

func (h *hookContext) IsLeader(ctx context.Context) (bool, error) {
	var leader bool
	if err := h.runJSON(ctx, &leader, "is-leader", "--format=json"); err != nil {
		return false, errors.Trace(err)
	}
	return leader, nil
}

func (h *hookContext) SetUnitStatus(ctx context.Context, info status.StatusInfo) error {
	return h.setStatus(ctx, false, info)
}

func (h *hookContext) SetAppStatus(ctx context.Context, info status.StatusInfo) error {
	return h.setStatus(ctx, true, info)
}

func (h *hookContext) setStatus(ctx context.Context, application bool, info status.StatusInfo) error {
	if !info.Status.KnownWorkloadStatus() {
		return errors.NotValidf("workload status %q", info.Status)
	}
	var args []string
	if application {
		args = append(args, "--application")
	}
	args = append(args, info.Status.String())
	if info.Message != "" {
		args = append(args, info.Message)
	}
	_, err := h.tools.Run(ctx, "status-set", args...)
	return errors.Trace(err)
}

func (h *hookContext) runJSON(ctx context.Context, out interface{}, tool string, args ...string) error {
	stdout, err := h.tools.Run(ctx, tool, args...)
	if err != nil {
		return errors.Trace(err)
	}
	if err := json.Unmarshal(stdout, out); err != nil {
		return errors.Annotatef(err, "decoding %s output", tool)
	}
	return nil
}
