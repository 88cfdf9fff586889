// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/utils/v4/exec"
	"github.com/kballard/go-shellquote"
)

// CommandRunner allows to run commands on the underlying system.
type CommandRunner interface {
	RunCommands(run exec.RunParams) (*exec.ExecResponse, error)
}

type defaultRunner struct{}

func (defaultRunner) RunCommands(run exec.RunParams) (*exec.ExecResponse, error) {
	return exec.RunCommands(run)
}

// DefaultRunner returns a CommandRunner executing commands with a local
// shell.
func DefaultRunner() CommandRunner {
	return defaultRunner{}
}

// Tools invokes the hook tools the unit agent places on the PATH of a
// running hook.
type Tools struct {
	runner  CommandRunner
	dir     string
	environ []string
}

// NewTools returns a Tools running hook tools through runner. If dir is
// not empty, tools are resolved relative to it instead of the PATH.
// environ is the environment passed to every tool; it must carry the
// JUJU_* variables of the hook being run.
func NewTools(runner CommandRunner, dir string, environ []string) *Tools {
	return &Tools{
		runner:  runner,
		dir:     dir,
		environ: environ,
	}
}

// Run runs the named hook tool with args and returns its standard
// output. A non-zero exit code is returned as an error holding the
// tool's standard error.
func (t *Tools) Run(ctx context.Context, tool string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	path := tool
	if t.dir != "" {
		path = filepath.Join(t.dir, tool)
	}
	command := shellquote.Join(append([]string{path}, args...)...)
	result, err := t.runner.RunCommands(exec.RunParams{
		Commands:    command,
		Environment: t.environ,
	})
	if err != nil {
		return nil, errors.Annotatef(err, "running %s", tool)
	}
	if result.Code != 0 {
		stderr := strings.TrimSpace(string(result.Stderr))
		return nil, errors.Errorf("%s failed with exit code %d: %s", tool, result.Code, stderr)
	}
	return result.Stdout, nil
}
