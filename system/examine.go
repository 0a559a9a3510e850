package system

import (
	"context"
	"errors"
	"fmt"
	"pdpcon/loader"
	"pdpcon/m93xx"

	log "github.com/sirupsen/logrus"
)

// ErrOddAddress is returned for word operations at an odd address. The
// console resets when asked to examine one.
var ErrOddAddress = errors.New("odd address")

// Examine reads count words starting at addr.
func (sys *System) Examine(ctx context.Context, addr uint16, count int) ([]loader.Word, error) {
	if addr&1 != 0 {
		return nil, fmt.Errorf("examine %s: %w", m93xx.FormatOctal(addr), ErrOddAddress)
	}

	s := sys.newSession()
	var words []loader.Word
	addrSet, pending := false, false

	for {
		ch, read, err := s.poll(ctx)
		if err != nil {
			return words, err
		}
		if read {
			sys.echo(ch)
		}
		if !s.ctrl.IsReadyForCommand() {
			sys.idle(read)
			continue
		}

		switch {
		case !addrSet:
			if err := s.setAddress(addr); err != nil {
				return words, err
			}
			addrSet = true

		case pending:
			w := loader.Word{Address: s.ctrl.LastAddress(), Data: s.ctrl.LastValue()}
			log.Debugf("E %06o = %06o", w.Address, w.Data)
			words = append(words, w)
			pending = false

		case len(words) < count:
			if err := s.ctrl.Examine(); err != nil {
				return words, s.fail(err)
			}
			pending = true

		default:
			return words, nil
		}
	}
}

// Start positions the console at addr and starts the processor there.
func (sys *System) Start(ctx context.Context, addr uint16) error {
	s := sys.newSession()
	addrSet := false

	for {
		ch, read, err := s.poll(ctx)
		if err != nil {
			return err
		}
		if read {
			sys.echo(ch)
		}
		if !s.ctrl.IsReadyForCommand() {
			sys.idle(read)
			continue
		}

		if !addrSet {
			if err := s.setAddress(addr); err != nil {
				return err
			}
			addrSet = true
			continue
		}

		sys.status("*** STARTING AT %s", m93xx.FormatOctal(addr))
		log.Infof("starting at %06o", addr)
		if err := s.ctrl.Start(); err != nil {
			return s.fail(err)
		}
		return nil
	}
}
