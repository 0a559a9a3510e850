package m93xx

import "fmt"

// State of the conversation with the console monitor.
type State int

// console protocol states
const (
	StateStart State = iota
	StateWaitingForSyncChar
	StateWaitingForInitialPrompt
	StateWaitingForPrompt
	StateReadyForCommand
	StateWaitingForResponse
	StateParsingAddress
	StateParsingValue
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateWaitingForSyncChar:
		return "WaitingForSyncChar"
	case StateWaitingForInitialPrompt:
		return "WaitingForInitialPrompt"
	case StateWaitingForPrompt:
		return "WaitingForPrompt"
	case StateReadyForCommand:
		return "ReadyForCommand"
	case StateWaitingForResponse:
		return "WaitingForResponse"
	case StateParsingAddress:
		return "ParsingAddress"
	case StateParsingValue:
		return "ParsingValue"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Command is a console command letter as seen in the monitor output.
type Command byte

// console commands
const (
	NoCommand  Command = 0
	CmdLoad    Command = 'L'
	CmdExamine Command = 'E'
	CmdDeposit Command = 'D'
	CmdStart   Command = 'S'
)

func (c Command) String() string {
	if c == NoCommand {
		return "none"
	}
	return string(rune(c))
}
