// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package webapp_test

import (
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"

	"github.com/juju/flaskamqp/internal/webapp"
)

type serverSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&serverSuite{})

func (s *serverSuite) TestValidate(c *gc.C) {
	handler := http.NotFoundHandler()
	_, err := webapp.NewServer(webapp.ServerConfig{Handler: handler})
	c.Check(err, jc.Satisfies, errors.IsNotValid)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, jc.ErrorIsNil)
	defer listener.Close()
	_, err = webapp.NewServer(webapp.ServerConfig{Listener: listener})
	c.Check(err, jc.Satisfies, errors.IsNotValid)
}

func (s *serverSuite) TestServe(c *gc.C) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, jc.ErrorIsNil)

	srv, err := webapp.NewServer(webapp.ServerConfig{
		Listener: listener,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "hello")
		}),
	})
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.DirtyKill(c, srv)

	resp, err := http.Get(fmt.Sprintf("http://%s/", srv.Addr()))
	c.Assert(err, jc.ErrorIsNil)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(body), gc.Equals, "hello")

	workertest.CleanKill(c, srv)

	_, err = http.Get(fmt.Sprintf("http://%s/", srv.Addr()))
	c.Assert(err, gc.NotNil)
}

func (s *serverSuite) TestListenerClosed(c *gc.C) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	c.Assert(err, jc.ErrorIsNil)

	srv, err := webapp.NewServer(webapp.ServerConfig{
		Listener: listener,
		Handler:  http.NotFoundHandler(),
	})
	c.Assert(err, jc.ErrorIsNil)

	c.Assert(listener.Close(), jc.ErrorIsNil)
	err = workertest.CheckKilled(c, srv)
	c.Assert(err, gc.ErrorMatches, "serving http: .*")
}
