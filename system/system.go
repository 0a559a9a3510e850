// Package system runs operations against a PDP-11 through its console
// monitor: loading memory images, examining memory and starting programs.
//
// Every operation opens a fresh console session and polls it until done.
// Nothing blocks: each pass processes timeouts, checks for an interrupt,
// feeds at most one console character to the protocol engine and issues the
// next command once the console is ready.
package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"pdpcon/console"
	"pdpcon/m93xx"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrInterrupted is returned when the operator abandons an operation.
var ErrInterrupted = errors.New("interrupted")

// Link is the serial line to the console. A link that can fail also has an
// Err() error method, checked whenever it has nothing to read.
type Link interface {
	io.Writer
	TryRead() (byte, bool)
}

// Interrupter is polled for an operator request to stop.
type Interrupter interface {
	Interrupted() bool
}

// Options tune a System. The zero value is usable.
type Options struct {
	Controller m93xx.Config

	// PollInterval is slept when a pass found nothing to do.
	PollInterval time.Duration

	// Echo receives every character the console prints.
	Echo io.Writer

	Interrupter Interrupter
}

// System talks to one console.
type System struct {
	link    Link
	console console.Console
	opts    Options
	clock   m93xx.Clock
}

// New returns a system using link for the console and c for status messages.
func New(link Link, c console.Console, opts Options) *System {
	sys := &System{
		link:    link,
		console: c,
		opts:    opts,
		clock:   opts.Controller.Clock,
	}
	if sys.clock == nil {
		sys.clock = m93xx.ClockFunc(time.Now)
		sys.opts.Controller.Clock = sys.clock
	}
	return sys
}

func (sys *System) status(format string, args ...interface{}) {
	_ = sys.console.WriteConsole(fmt.Sprintf(format, args...))
}

func (sys *System) echo(ch byte) {
	if sys.opts.Echo != nil {
		_, _ = sys.opts.Echo.Write([]byte{ch})
	}
}

// idle sleeps after a pass that read nothing.
func (sys *System) idle(read bool) {
	if !read && sys.opts.PollInterval > 0 {
		time.Sleep(sys.opts.PollInterval)
	}
}

// session is one conversation with the console.
type session struct {
	sys  *System
	ctrl *m93xx.Controller
}

func (sys *System) newSession() *session {
	return &session{sys: sys, ctrl: m93xx.New(sys.link, sys.opts.Controller)}
}

// poll runs a single pass and returns the console character it consumed.
func (s *session) poll(ctx context.Context) (byte, bool, error) {
	if err := s.ctrl.ProcessTimeouts(s.sys.clock.Now()); err != nil {
		return 0, false, s.fail(err)
	}

	if ctx.Err() != nil || (s.sys.opts.Interrupter != nil && s.sys.opts.Interrupter.Interrupted()) {
		s.sys.status("*** INTERRUPTED")
		return 0, false, ErrInterrupted
	}

	ch, ok := s.sys.link.TryRead()
	if !ok {
		// a dead line reads like an idle one
		if f, canFail := s.sys.link.(interface{ Err() error }); canFail && f.Err() != nil {
			return 0, false, s.fail(fmt.Errorf("console line: %w", f.Err()))
		}
		return 0, false, nil
	}
	if err := s.ctrl.ProcessOutput(ch); err != nil {
		return 0, false, s.fail(err)
	}
	return ch, true, nil
}

// fail reports err to the operator and returns it.
func (s *session) fail(err error) error {
	switch {
	case errors.Is(err, m93xx.ErrTimeout):
		s.sys.status("*** TIMEOUT (no response from console)")
	case errors.Is(err, m93xx.ErrDesync):
		s.sys.status("*** ERROR (unexpected response from console)")
	default:
		s.sys.status("*** ERROR (%v)", err)
	}
	log.WithField("state", s.ctrl.State()).Error(err)
	return err
}

func (s *session) setAddress(addr uint16) error {
	log.Debugf("L %06o", addr)
	if err := s.ctrl.SetAddress(addr); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *session) deposit(val uint16) error {
	log.Tracef("D %06o", val)
	if err := s.ctrl.Deposit(val); err != nil {
		return s.fail(err)
	}
	return nil
}
