// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package hookenv

import (
	"github.com/juju/loggo/v2"
	"github.com/juju/testing"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"
)

type logSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&logSuite{})

func (s *logSuite) TestWrite(c *gc.C) {
	ctrl := gomock.NewController(c)
	defer ctrl.Finish()

	tools := NewMockToolRunner(ctrl)
	tools.EXPECT().Run(gomock.Any(), "juju-log", "-l", "WARNING", "flaskamqp.charm: no password yet").Return(nil, nil)

	w := NewLogWriter(tools)
	w.Write(loggo.Entry{
		Level:   loggo.WARNING,
		Module:  "flaskamqp.charm",
		Message: "no password yet",
	})
}
