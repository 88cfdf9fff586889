// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package simplesignalhandler

import (
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/worker/v4/catacomb"
)

var logger = loggo.GetLogger("flaskamqp.worker.simplesignalhandler")

// ErrTerminated is returned by the default handler when a termination
// signal is received.
const ErrTerminated = errors.ConstError("terminated by signal")

// SignalHandlerFunc returns the error a SignalWatcher dies with when a
// signal is received.
type SignalHandlerFunc func(os.Signal) error

// SignalWatcher is a worker that dies with the error returned by its
// handler on the first signal received.
type SignalWatcher struct {
	catacomb catacomb.Catacomb
	handler  SignalHandlerFunc
	sigCh    <-chan os.Signal
}

// NewSignalWatcher starts a SignalWatcher on sig.
func NewSignalWatcher(sig <-chan os.Signal, handler SignalHandlerFunc) (*SignalWatcher, error) {
	s := &SignalWatcher{
		handler: handler,
		sigCh:   sig,
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Name: "signal-watcher",
		Site: &s.catacomb,
		Work: s.watch,
	}); err != nil {
		return nil, fmt.Errorf("creating catacomb plan: %w", err)
	}
	return s, nil
}

// SignalHandler returns a handler mapping signals to errors through
// signalMap, returning defaultErr for unmapped signals.
func SignalHandler(defaultErr error, signalMap map[os.Signal]error) SignalHandlerFunc {
	return func(sig os.Signal) error {
		if err, ok := signalMap[sig]; ok {
			return err
		}
		return defaultErr
	}
}

// Kill implements worker.Worker.
func (s *SignalWatcher) Kill() {
	s.catacomb.Kill(nil)
}

// Wait implements worker.Worker.
func (s *SignalWatcher) Wait() error {
	return s.catacomb.Wait()
}

func (s *SignalWatcher) watch() error {
	select {
	case sig, ok := <-s.sigCh:
		if !ok {
			return errors.New("signal channel closed unexpectedly")
		}
		logger.Infof("received signal %v", sig)
		return s.handler(sig)
	case <-s.catacomb.Dying():
		return s.catacomb.ErrDying()
	}
}
