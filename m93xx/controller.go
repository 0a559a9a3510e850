// Package m93xx drives the console emulator ROM (M9301 / M9312) of a PDP-11
// through its command line. The Controller is fed the characters the console
// prints and tracks which command is in progress, which address the console
// is positioned at and whether it is ready for the next command.
package m93xx

import (
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	// UnknownAddress is reported when the console address cursor is not known.
	UnknownAddress uint16 = 0xFFFF

	// SyncChar is sent to provoke a prompt. The console ignores it.
	SyncChar = '.'

	// DefaultPromptTimeout limits the wait for a prompt after a command.
	DefaultPromptTimeout = 5 * time.Second

	// DefaultIdleTimeout is the quiet period after which the sync character
	// is sent a second time.
	DefaultIdleTimeout = 200 * time.Millisecond
)

var (
	// ErrDesync is returned when the console prints something it never would.
	// Usually a wrong baud rate, a wrong device or line noise.
	ErrDesync = errors.New("unexpected response from console")

	// ErrTimeout is returned when no prompt arrives within the prompt timeout.
	ErrTimeout = errors.New("no response from console")
)

// Clock supplies the current time when a deadline is armed.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// Config holds the tunables of a Controller. Zero values select the defaults.
type Config struct {
	PromptTimeout time.Duration
	IdleTimeout   time.Duration
	Clock         Clock
}

// Controller is a single session with the console monitor.
type Controller struct {
	out           io.Writer
	clock         Clock
	promptTimeout time.Duration
	idleTimeout   time.Duration

	state    State
	lastCmd  Command
	lastAddr uint16
	lastVal  uint16
	digits   int

	promptDeadline deadline
	idleDeadline   deadline
}

// New returns a controller writing its commands to out.
func New(out io.Writer, cfg Config) *Controller {
	c := &Controller{
		out:           out,
		clock:         cfg.Clock,
		promptTimeout: cfg.PromptTimeout,
		idleTimeout:   cfg.IdleTimeout,
	}
	if c.clock == nil {
		c.clock = ClockFunc(time.Now)
	}
	if c.promptTimeout <= 0 {
		c.promptTimeout = DefaultPromptTimeout
	}
	if c.idleTimeout <= 0 {
		c.idleTimeout = DefaultIdleTimeout
	}
	c.Reset()
	return c
}

// Reset returns the controller to its initial state.
func (c *Controller) Reset() {
	c.state = StateStart
	c.lastCmd = NoCommand
	c.lastAddr = UnknownAddress
	c.lastVal = 0
	c.digits = 0
	c.promptDeadline.cancel()
	c.idleDeadline.cancel()
}

// State returns the current protocol state.
func (c *Controller) State() State { return c.state }

// IsReadyForCommand reports whether the console sits at a prompt.
func (c *Controller) IsReadyForCommand() bool { return c.state == StateReadyForCommand }

// LastCommand returns the last command seen in the console output.
func (c *Controller) LastCommand() Command { return c.lastCmd }

// LastAddress returns the address of the last command, or UnknownAddress.
func (c *Controller) LastAddress() uint16 { return c.lastAddr }

// LastValue returns the value of the last examine or deposit.
func (c *Controller) LastValue() uint16 { return c.lastVal }

// NextDepositAddress returns the address the next D command will write to.
func (c *Controller) NextDepositAddress() uint16 {
	if c.lastAddr != UnknownAddress && c.lastCmd == CmdDeposit {
		return c.lastAddr + 2
	}
	return c.lastAddr
}

// NextExamineAddress returns the address the next E command will read from.
func (c *Controller) NextExamineAddress() uint16 {
	if c.lastAddr != UnknownAddress && c.lastCmd == CmdExamine {
		return c.lastAddr + 2
	}
	return c.lastAddr
}

// ProcessOutput consumes one character printed by the console.
func (c *Controller) ProcessOutput(ch byte) error {
	if !c.isValidOutputChar(ch) {
		return fmt.Errorf("%w: %q in state %v", ErrDesync, ch, c.state)
	}

	switch c.state {
	case StateStart:
		// nothing has been sent yet

	case StateWaitingForSyncChar:
		if ch == SyncChar {
			c.state = StateWaitingForInitialPrompt
			c.idleDeadline.arm(c.clock.Now(), c.idleTimeout)
		}

	case StateWaitingForInitialPrompt:
		c.idleDeadline.cancel()
		c.checkPrompt(ch)

	case StateWaitingForPrompt:
		c.checkPrompt(ch)

	case StateReadyForCommand, StateWaitingForResponse:
		c.beginCommand(ch)

	case StateParsingAddress:
		c.parseAddress(ch)

	case StateParsingValue:
		c.parseValue(ch)
	}
	return nil
}

func (c *Controller) checkPrompt(ch byte) {
	if ch == '@' || ch == '$' {
		c.state = StateReadyForCommand
		c.promptDeadline.cancel()
	}
}

// beginCommand handles the command letter the console echoes. It may arrive
// unsolicited while the console is idle.
func (c *Controller) beginCommand(ch byte) {
	switch Command(ch) {
	case CmdLoad:
		c.lastCmd = CmdLoad
		c.state = StateParsingAddress
		c.digits = 0
		c.lastAddr = 0
		c.lastVal = 0
	case CmdExamine:
		c.lastCmd = CmdExamine
		c.state = StateParsingAddress
		c.digits = 0
		c.lastAddr = 0
	case CmdDeposit:
		// back to back deposits auto-increment the console address
		if c.lastCmd == CmdDeposit {
			c.lastAddr += 2
		}
		c.lastCmd = CmdDeposit
		c.state = StateParsingValue
		c.digits = 0
		c.lastVal = 0
	case CmdStart:
		c.lastCmd = CmdStart
		c.state = StateWaitingForPrompt
		c.lastAddr = UnknownAddress
		c.lastVal = 0
	default:
		// resync on anything else
		c.lastCmd = NoCommand
		c.state = StateWaitingForPrompt
	}
	c.promptDeadline.arm(c.clock.Now(), c.promptTimeout)
}

func (c *Controller) parseAddress(ch byte) {
	if d, ok := octalDigit(ch); ok {
		c.lastAddr = shiftOctal(c.lastAddr, d)
		c.digits++
		return
	}
	if isSpace(ch) {
		if c.digits == 0 {
			return
		}
		if c.lastCmd == CmdExamine {
			// the examined value follows on the same line
			c.state = StateParsingValue
			c.digits = 0
			c.lastVal = 0
		} else {
			c.state = StateWaitingForPrompt
		}
		return
	}
	c.state = StateWaitingForPrompt
	c.lastAddr = UnknownAddress
}

func (c *Controller) parseValue(ch byte) {
	if d, ok := octalDigit(ch); ok {
		c.lastVal = shiftOctal(c.lastVal, d)
		c.digits++
		return
	}
	if isSpace(ch) {
		if c.digits > 0 {
			c.state = StateWaitingForPrompt
		}
		return
	}
	c.state = StateWaitingForPrompt
}

// ProcessTimeouts advances the startup handshake and enforces the prompt
// timeout. It is called on every pass of the caller's loop.
func (c *Controller) ProcessTimeouts(now time.Time) error {
	switch c.state {
	case StateStart:
		// The console reacts only after two input characters, so a lone
		// sync character is echoed and then the console waits.
		c.state = StateWaitingForSyncChar
		c.promptDeadline.arm(now, c.promptTimeout)
		return c.write(string(SyncChar))

	case StateReadyForCommand:
		return nil

	case StateWaitingForInitialPrompt:
		if c.idleDeadline.expired(now) {
			// console was already at a prompt and swallowed the first one
			c.idleDeadline.arm(now, c.idleTimeout)
			if err := c.write(string(SyncChar)); err != nil {
				return err
			}
		}

	case StateWaitingForSyncChar, StateWaitingForPrompt, StateWaitingForResponse,
		StateParsingAddress, StateParsingValue:
	}

	if c.promptDeadline.expired(now) {
		return fmt.Errorf("%w (state %v)", ErrTimeout, c.state)
	}
	return nil
}

// SetAddress issues "L oooooo\r".
func (c *Controller) SetAddress(addr uint16) error {
	return c.command("L " + FormatOctal(addr) + "\r")
}

// Deposit issues "D oooooo\r".
func (c *Controller) Deposit(val uint16) error {
	return c.command("D " + FormatOctal(val) + "\r")
}

// Examine issues "E ".
func (c *Controller) Examine() error {
	return c.command("E ")
}

// Start issues "S\r".
func (c *Controller) Start() error {
	return c.command("S\r")
}

// SendCR writes a bare carriage return regardless of state.
func (c *Controller) SendCR() error {
	return c.write("\r")
}

func (c *Controller) command(cmd string) error {
	if c.state != StateReadyForCommand {
		return nil
	}
	c.state = StateWaitingForResponse
	c.promptDeadline.arm(c.clock.Now(), c.promptTimeout)
	return c.write(cmd)
}

func (c *Controller) write(s string) error {
	_, err := io.WriteString(c.out, s)
	return err
}

func (c *Controller) isValidOutputChar(ch byte) bool {
	switch ch {
	case '@', '$', ' ', '\r', '\n', 'L', 'E', 'D', 'S',
		'0', '1', '2', '3', '4', '5', '6', '7':
		return true
	case SyncChar:
		return c.state == StateWaitingForSyncChar || c.state == StateWaitingForInitialPrompt
	}
	return false
}
