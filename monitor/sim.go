// Package monitor simulates the command line of the M9312 and M9301 console
// ROMs closely enough to drive the loader against it without hardware.
//
// The simulator reads two characters per command and echoes everything it
// receives:
//
//	L <octal>\r   load address
//	E             examine, auto-increments after another E
//	D <octal>\r   deposit, auto-increments after another D
//	S\r           start (no-op)
//
// Anything else, or an E or D at an odd address, resets the console and
// prints the register banner followed by a new prompt.
package monitor

import "fmt"

const banner = "\r\n000000 173000 165212 000000"

// Prompts of the two console ROMs.
const (
	PromptM9312 = '@'
	PromptM9301 = '$'
)

type simState int

const (
	simCommand simState = iota // first character of a command
	simCommand2                // second character of a command
	simArgument                // octal argument of L or D
)

// Sim is an in-memory console monitor. It is not safe for concurrent use.
type Sim struct {
	mem    MemoryManager
	prompt string

	state   simState
	cmd     string
	prevCmd string
	addr    uint16
	arg     uint16

	started   bool
	startAddr uint16

	out []byte
}

// NewSim returns a simulator that has just been reset and prints prompt.
// A nil mem gives the simulator its own 64 KiB memory.
func NewSim(prompt byte, mem MemoryManager) *Sim {
	if mem == nil {
		mem = new(Memory)
	}
	s := &Sim{
		mem:    mem,
		prompt: "\r\n" + string(prompt),
	}
	s.reset()
	s.emit(s.prompt)
	return s
}

// Memory returns the memory behind the simulator.
func (s *Sim) Memory() MemoryManager { return s.mem }

// Address returns the current address cursor.
func (s *Sim) Address() uint16 { return s.addr }

// Started returns the address of the last S command, if any.
func (s *Sim) Started() (uint16, bool) { return s.startAddr, s.started }

// Write feeds characters typed at the console.
func (s *Sim) Write(p []byte) (int, error) {
	for _, ch := range p {
		s.out = append(s.out, ch)
		s.input(ch)
	}
	return len(p), nil
}

// TryRead returns the next character printed by the console, if any.
func (s *Sim) TryRead() (byte, bool) {
	if len(s.out) == 0 {
		return 0, false
	}
	ch := s.out[0]
	s.out = s.out[1:]
	return ch, true
}

// Pending returns the number of characters not read yet.
func (s *Sim) Pending() int { return len(s.out) }

func (s *Sim) input(ch byte) {
	switch s.state {
	case simCommand:
		s.cmd = string(ch)
		s.state = simCommand2

	case simCommand2:
		s.cmd += string(ch)
		s.state = simCommand
		s.command()

	case simArgument:
		switch {
		case ch == '\r':
			s.state = simCommand
			if s.cmd == "L " {
				s.addr = s.arg
			} else {
				s.mem.WriteMemoryWord(s.addr, s.arg)
			}
			s.prevCmd = s.cmd
			s.emit(s.prompt)
		case ch >= '0' && ch <= '7':
			s.arg = s.arg<<3 + uint16(ch-'0')
		default:
			// argument abandoned, previous command kept
			s.state = simCommand
			s.emit(s.prompt)
		}
	}
}

func (s *Sim) command() {
	switch s.cmd {
	case "L ":
		s.arg = 0
		s.state = simArgument
		return

	case "E ":
		if s.addr&1 != 0 {
			s.resetPrompt()
			return
		}
		if s.prevCmd == s.cmd {
			s.addr += 2
		}
		s.emit(fmt.Sprintf("%06o %06o", s.addr, s.mem.ReadMemoryWord(s.addr)))

	case "D ":
		if s.addr&1 != 0 {
			s.resetPrompt()
			return
		}
		if s.prevCmd == s.cmd {
			s.addr += 2
		}
		s.arg = 0
		s.state = simArgument
		return

	case "S\r":
		s.started = true
		s.startAddr = s.addr

	default:
		s.resetPrompt()
		return
	}
	s.prevCmd = s.cmd
	s.emit(s.prompt)
}

func (s *Sim) reset() {
	s.addr = 0
	s.prevCmd = ""
	s.state = simCommand
	s.emit(banner)
}

func (s *Sim) resetPrompt() {
	s.reset()
	s.emit(s.prompt)
}

func (s *Sim) emit(str string) {
	s.out = append(s.out, str...)
}
