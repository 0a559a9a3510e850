// Package teletype is the operator's terminal: console output is echoed to it
// and it is polled for the interrupt key while a load is running.
package teletype

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// CtrlC abandons the running operation.
const CtrlC = 0x03

// Host is the terminal the program was started from.
type Host struct {
	fd  int
	out io.Writer

	oldState *term.State
	nonblock bool
}

// Open switches stdin to raw, non-blocking mode when it is a terminal.
// Otherwise the host only echoes and never reports an interrupt.
func Open() (*Host, error) {
	h := &Host{fd: int(os.Stdin.Fd()), out: os.Stdout}
	if !term.IsTerminal(h.fd) {
		return h, nil
	}

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	h.oldState = oldState

	if err := unix.SetNonblock(h.fd, true); err != nil {
		_ = term.Restore(h.fd, h.oldState)
		return nil, fmt.Errorf("setting non-blocking stdin: %w", err)
	}
	h.nonblock = true
	return h, nil
}

// TryRead returns a key typed by the operator without waiting.
func (h *Host) TryRead() (byte, bool) {
	if !h.nonblock {
		return 0, false
	}
	var buf [1]byte
	n, err := unix.Read(h.fd, buf[:])
	if n != 1 || err != nil {
		return 0, false
	}
	return buf[0], true
}

// Interrupted drains pending keys and reports whether Ctrl-C was among them.
func (h *Host) Interrupted() bool {
	for {
		ch, ok := h.TryRead()
		if !ok {
			return false
		}
		if ch == CtrlC {
			return true
		}
	}
}

// Write echoes console output to the terminal.
func (h *Host) Write(p []byte) (int, error) {
	return h.out.Write(p)
}

// Close restores the terminal settings found by Open.
func (h *Host) Close() error {
	var errs []error
	if h.nonblock {
		errs = append(errs, unix.SetNonblock(h.fd, false))
		h.nonblock = false
	}
	if h.oldState != nil {
		errs = append(errs, term.Restore(h.fd, h.oldState))
		h.oldState = nil
	}
	return errors.Join(errs...)
}
