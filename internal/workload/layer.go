// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package workload

import (
	"github.com/juju/errors"
	"gopkg.in/yaml.v2"
)

// layer is the subset of a Pebble layer the charm manages.
type layer struct {
	Summary     string             `yaml:"summary"`
	Description string             `yaml:"description,omitempty"`
	Services    map[string]service `yaml:"services"`
}

type service struct {
	Override    string            `yaml:"override"`
	Summary     string            `yaml:"summary,omitempty"`
	Command     string            `yaml:"command"`
	Startup     string            `yaml:"startup"`
	WorkingDir  string            `yaml:"working-dir,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// renderLayer returns the YAML of a layer replacing the named service
// with one running command in env.
func renderLayer(serviceName, command, workingDir string, env map[string]string) ([]byte, error) {
	l := layer{
		Summary:     "flask layer",
		Description: "pebble config layer for the flask web app",
		Services: map[string]service{
			serviceName: {
				Override:    "replace",
				Summary:     "flask web app",
				Command:     command,
				Startup:     "enabled",
				WorkingDir:  workingDir,
				Environment: env,
			},
		},
	}
	data, err := yaml.Marshal(l)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}
