package m93xx

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestController() (*Controller, *bytes.Buffer, *fakeClock) {
	out := new(bytes.Buffer)
	clk := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(out, Config{Clock: clk}), out, clk
}

// initController runs the startup handshake against a console sitting at a prompt.
func initController(t *testing.T, c *Controller, clk *fakeClock) {
	t.Helper()
	c.Reset()
	if err := c.ProcessTimeouts(clk.now); err != nil {
		t.Fatalf("ProcessTimeouts() = %v", err)
	}
	for _, ch := range []byte{'.', '@'} {
		if err := c.ProcessOutput(ch); err != nil {
			t.Fatalf("ProcessOutput(%q) = %v", ch, err)
		}
	}
	clk.advance(250 * time.Millisecond)
	if err := c.ProcessTimeouts(clk.now); err != nil {
		t.Fatalf("ProcessTimeouts() = %v", err)
	}
	if !c.IsReadyForCommand() {
		t.Fatalf("controller not ready after handshake, state %v", c.State())
	}
}

// drive feeds output until the controller becomes ready again and returns the rest.
func drive(t *testing.T, c *Controller, output string) string {
	t.Helper()
	for i := 0; i < len(output); i++ {
		if err := c.ProcessOutput(output[i]); err != nil {
			t.Fatalf("ProcessOutput(%q) = %v", output[i], err)
		}
		if c.IsReadyForCommand() {
			return output[i+1:]
		}
	}
	return ""
}

type step struct {
	cmd      Command
	addr     uint16
	val      uint16
	nextExam uint16
	nextDep  uint16
}

var transcriptSteps = []step{
	{NoCommand, UnknownAddress, 0, UnknownAddress, UnknownAddress},
	{CmdLoad, 01000, 0, 01000, 01000},
	{CmdExamine, 01000, 1, 01002, 01000},
	{CmdExamine, 01002, 2, 01004, 01002},
	{CmdExamine, 01004, 3, 01006, 01004},
	{CmdExamine, 01006, 4, 01010, 01006},
	{CmdExamine, 01010, 5, 01012, 01010},
	{CmdDeposit, 01010, 042, 01010, 01012},
	{CmdExamine, 01010, 042, 01012, 01010},
	{CmdDeposit, 01010, 044, 01010, 01012},
	{CmdExamine, 01010, 044, 01012, 01010},
	{CmdDeposit, 01010, 046, 01010, 01012},
	{CmdDeposit, 01012, 050, 01012, 01014},
	{CmdExamine, 01012, 050, 01014, 01012},
	{CmdStart, UnknownAddress, 0, UnknownAddress, UnknownAddress},
}

func transcript(prompt string) string {
	lines := []string{
		"000000 000000 000000 000000\r",
		"L 1000\r",
		"E 001000 000001 \r",
		"E 001002 000002 \r",
		"E 001004 000003 \r",
		"E 001006 000004 \r",
		"E 001010 000005 \r",
		"D 42\r",
		"E 001010 000042 \r",
		"D 44\r",
		"E 001010 000044 \r",
		"D 46\r",
		"D 000050\r",
		"E 001012 000050 \r",
		"S\r",
	}
	var b bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			b.WriteString(prompt)
		}
		b.WriteString(l)
	}
	b.WriteString(prompt)
	return b.String()
}

func TestController_Transcript(t *testing.T) {
	for _, prompt := range []string{"@", "$"} {
		t.Run("prompt "+prompt, func(t *testing.T) {
			c, _, clk := newTestController()
			initController(t, c, clk)

			rest := transcript(prompt)
			for i, want := range transcriptSteps {
				rest = drive(t, c, rest)
				if !c.IsReadyForCommand() {
					t.Fatalf("step %d: not ready, state %v", i, c.State())
				}
				if got := c.LastCommand(); got != want.cmd {
					t.Errorf("step %d: LastCommand() = %v, want %v", i, got, want.cmd)
				}
				if got := c.LastAddress(); got != want.addr {
					t.Errorf("step %d: LastAddress() = %o, want %o", i, got, want.addr)
				}
				if i > 0 {
					if got := c.LastValue(); got != want.val {
						t.Errorf("step %d: LastValue() = %o, want %o", i, got, want.val)
					}
				}
				if got := c.NextExamineAddress(); got != want.nextExam {
					t.Errorf("step %d: NextExamineAddress() = %o, want %o", i, got, want.nextExam)
				}
				if got := c.NextDepositAddress(); got != want.nextDep {
					t.Errorf("step %d: NextDepositAddress() = %o, want %o", i, got, want.nextDep)
				}
			}
			if rest != "" {
				t.Errorf("transcript not consumed, %q left", rest)
			}
		})
	}
}

func TestController_CommandOutput(t *testing.T) {
	tests := []struct {
		name string
		cmd  func(c *Controller) error
		want string
	}{
		{"set address", func(c *Controller) error { return c.SetAddress(010101) }, "L 010101\r"},
		{"set address zero", func(c *Controller) error { return c.SetAddress(0) }, "L 000000\r"},
		{"examine", func(c *Controller) error { return c.Examine() }, "E "},
		{"deposit", func(c *Controller) error { return c.Deposit(042) }, "D 000042\r"},
		{"start", func(c *Controller) error { return c.Start() }, "S\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out, clk := newTestController()
			initController(t, c, clk)
			out.Reset()
			if err := tt.cmd(c); err != nil {
				t.Fatalf("command error: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
			if c.IsReadyForCommand() {
				t.Errorf("IsReadyForCommand() = true after issuing a command")
			}
			if c.State() != StateWaitingForResponse {
				t.Errorf("State() = %v, want %v", c.State(), StateWaitingForResponse)
			}
		})
	}
}

func TestController_SendCR(t *testing.T) {
	c, out, clk := newTestController()
	initController(t, c, clk)
	out.Reset()
	_ = c.SendCR()
	if out.String() != "\r" {
		t.Errorf("SendCR() wrote %q, want %q", out.String(), "\r")
	}
}

func TestController_CommandIgnoredWhenNotReady(t *testing.T) {
	c, out, clk := newTestController()
	initController(t, c, clk)
	_ = c.SetAddress(01000)
	out.Reset()

	_ = c.Deposit(1)
	_ = c.Examine()
	_ = c.Start()
	_ = c.SetAddress(2)
	if out.Len() != 0 {
		t.Errorf("commands written while busy: %q", out.String())
	}
}

func TestController_UnexpectedCharResyncs(t *testing.T) {
	for _, ch := range []byte("@$ \r\n01234567") {
		t.Run(string(ch), func(t *testing.T) {
			c, _, clk := newTestController()
			initController(t, c, clk)
			drive(t, c, "L 1000\r@")

			if err := c.ProcessOutput(ch); err != nil {
				t.Fatalf("ProcessOutput(%q) = %v", ch, err)
			}
			if c.State() != StateWaitingForPrompt {
				t.Errorf("State() = %v, want %v", c.State(), StateWaitingForPrompt)
			}
			if c.LastCommand() != NoCommand {
				t.Errorf("LastCommand() = %v, want none", c.LastCommand())
			}
		})
	}
}

func TestController_Desync(t *testing.T) {
	tests := []struct {
		name  string
		setup string
		ch    byte
	}{
		{"letter at prompt", "", 'x'},
		{"sync char at prompt", "", '.'},
		{"digit 8 in address", "L 12", '8'},
		{"lower case in value", "D 1", 'd'},
		{"bell", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, clk := newTestController()
			initController(t, c, clk)
			for i := 0; i < len(tt.setup); i++ {
				_ = c.ProcessOutput(tt.setup[i])
			}
			before := c.State()
			err := c.ProcessOutput(tt.ch)
			if !errors.Is(err, ErrDesync) {
				t.Fatalf("ProcessOutput(%q) = %v, want ErrDesync", tt.ch, err)
			}
			if c.State() != before {
				t.Errorf("state changed on desync: %v -> %v", before, c.State())
			}
		})
	}
}

func TestController_SyncCharIgnoredUntilSeen(t *testing.T) {
	c, out, clk := newTestController()
	_ = c.ProcessTimeouts(clk.now)
	if out.String() != "." {
		t.Fatalf("start wrote %q, want %q", out.String(), ".")
	}
	if c.State() != StateWaitingForSyncChar {
		t.Fatalf("State() = %v, want %v", c.State(), StateWaitingForSyncChar)
	}
	for _, ch := range []byte("000000 @\r\n") {
		_ = c.ProcessOutput(ch)
	}
	if c.State() != StateWaitingForSyncChar {
		t.Errorf("State() = %v, want %v", c.State(), StateWaitingForSyncChar)
	}
	_ = c.ProcessOutput('.')
	if c.State() != StateWaitingForInitialPrompt {
		t.Errorf("State() = %v, want %v", c.State(), StateWaitingForInitialPrompt)
	}
}

func TestController_IdleResendsSync(t *testing.T) {
	c, out, clk := newTestController()
	_ = c.ProcessTimeouts(clk.now)
	_ = c.ProcessOutput('.')

	clk.advance(DefaultIdleTimeout)
	if err := c.ProcessTimeouts(clk.now); err != nil {
		t.Fatalf("ProcessTimeouts() = %v", err)
	}
	if out.String() != ".." {
		t.Errorf("output = %q, want %q", out.String(), "..")
	}

	// rearmed: a second idle period sends another one
	clk.advance(DefaultIdleTimeout)
	_ = c.ProcessTimeouts(clk.now)
	if out.String() != "..." {
		t.Errorf("output = %q, want %q", out.String(), "...")
	}

	// any output cancels the idle resend
	_ = c.ProcessOutput('\r')
	clk.advance(DefaultIdleTimeout)
	_ = c.ProcessTimeouts(clk.now)
	if out.String() != "..." {
		t.Errorf("output = %q after console activity, want %q", out.String(), "...")
	}

	_ = c.ProcessOutput('@')
	if !c.IsReadyForCommand() {
		t.Errorf("not ready after prompt, state %v", c.State())
	}
}

func TestController_Timeout(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Controller, clk *fakeClock)
	}{
		{"no sync echo", func(c *Controller, clk *fakeClock) {
			_ = c.ProcessTimeouts(clk.now)
		}},
		{"no initial prompt", func(c *Controller, clk *fakeClock) {
			_ = c.ProcessTimeouts(clk.now)
			_ = c.ProcessOutput('.')
		}},
		{"no response to command", func(c *Controller, clk *fakeClock) {
			_ = c.ProcessTimeouts(clk.now)
			_ = c.ProcessOutput('.')
			_ = c.ProcessOutput('@')
			_ = c.SetAddress(01000)
		}},
		{"no prompt after command echo", func(c *Controller, clk *fakeClock) {
			_ = c.ProcessTimeouts(clk.now)
			_ = c.ProcessOutput('.')
			_ = c.ProcessOutput('@')
			_ = c.ProcessOutput('L')
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, clk := newTestController()
			tt.setup(c, clk)

			clk.advance(DefaultPromptTimeout - time.Millisecond)
			if err := c.ProcessTimeouts(clk.now); err != nil {
				t.Fatalf("early ProcessTimeouts() = %v", err)
			}
			clk.advance(time.Millisecond)
			if err := c.ProcessTimeouts(clk.now); !errors.Is(err, ErrTimeout) {
				t.Fatalf("ProcessTimeouts() = %v, want ErrTimeout", err)
			}
		})
	}
}

func TestController_NoTimeoutWhenReady(t *testing.T) {
	c, _, clk := newTestController()
	initController(t, c, clk)
	clk.advance(time.Hour)
	if err := c.ProcessTimeouts(clk.now); err != nil {
		t.Errorf("ProcessTimeouts() = %v, want nil", err)
	}
}

func TestController_AddressAbort(t *testing.T) {
	c, _, clk := newTestController()
	initController(t, c, clk)
	for _, ch := range []byte("L 12@") {
		_ = c.ProcessOutput(ch)
	}
	if c.State() != StateWaitingForPrompt {
		t.Errorf("State() = %v, want %v", c.State(), StateWaitingForPrompt)
	}
	if c.LastAddress() != UnknownAddress {
		t.Errorf("LastAddress() = %o, want unknown", c.LastAddress())
	}
}

func TestController_LeadingSpaceBeforeAddress(t *testing.T) {
	c, _, clk := newTestController()
	initController(t, c, clk)
	drive(t, c, "L   017744\r@")
	if c.LastAddress() != 017744 {
		t.Errorf("LastAddress() = %o, want %o", c.LastAddress(), 017744)
	}
}

func TestController_DigitOverflow(t *testing.T) {
	c, _, clk := newTestController()
	initController(t, c, clk)
	drive(t, c, "L 1234567\r@")
	var want uint16 = 01234567 & 0xFFFF
	if c.LastAddress() != want {
		t.Errorf("LastAddress() = %o, want %o", c.LastAddress(), want)
	}
}

func TestController_Reset(t *testing.T) {
	c, _, clk := newTestController()
	initController(t, c, clk)
	drive(t, c, "D 5\r@")
	c.Reset()
	if c.State() != StateStart || c.LastCommand() != NoCommand ||
		c.LastAddress() != UnknownAddress || c.LastValue() != 0 {
		t.Errorf("Reset() left state %v cmd %v addr %o val %o",
			c.State(), c.LastCommand(), c.LastAddress(), c.LastValue())
	}
	clk.advance(time.Hour)
	if err := c.ProcessTimeouts(clk.now); err != nil {
		t.Errorf("ProcessTimeouts() after Reset = %v", err)
	}
}
