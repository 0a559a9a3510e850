package system

import (
	"context"
	"fmt"
	"pdpcon/loader"

	log "github.com/sirupsen/logrus"
)

// Load deposits every word of src and finally positions the console at the
// start address of the image, if it has one. name is shown to the operator.
func (sys *System) Load(ctx context.Context, src loader.Source, name string) error {
	s := sys.newSession()
	startAddrLoaded := false
	deposited := 0

	sys.status("*** LOADING FILE: %s", name)
	logger := log.WithField("image", name)
	logger.Info("load started")

	for {
		ch, read, err := s.poll(ctx)
		if err != nil {
			logger.WithField("words", deposited).Warn("load abandoned")
			return err
		}

		if read {
			// the message goes out ahead of the prompt that completes the load
			if s.ctrl.IsReadyForCommand() && src.Exhausted() {
				if _, ok := src.StartAddress(); ok && !startAddrLoaded {
					sys.status("*** LOADING START ADDRESS")
				} else if sourceErr(src) == nil {
					sys.status("*** LOAD COMPLETE")
				}
			}
			sys.echo(ch)
		}

		if !s.ctrl.IsReadyForCommand() {
			sys.idle(read)
			continue
		}

		if src.Exhausted() {
			if addr, ok := src.StartAddress(); ok && !startAddrLoaded {
				if err := s.setAddress(addr); err != nil {
					return err
				}
				startAddrLoaded = true
				continue
			}
			if err := sourceErr(src); err != nil {
				return s.fail(err)
			}
			logger.WithField("words", deposited).Info("load complete")
			return nil
		}

		w, ok := src.NextWord()
		if !ok {
			continue
		}

		// the console address must be moved before the word can go in
		if s.ctrl.NextDepositAddress() != w.Address {
			if err := s.setAddress(w.Address); err != nil {
				return err
			}
			continue
		}

		if err := s.deposit(w.Data); err != nil {
			return err
		}
		src.Advance()
		deposited++
	}
}

// sourceErr returns the error that ended src early, for sources that can fail.
func sourceErr(src loader.Source) error {
	if f, ok := src.(interface{ Err() error }); ok && f.Err() != nil {
		return fmt.Errorf("image ended early: %w", f.Err())
	}
	return nil
}
