package main

import (
	"errors"
	"os"
	"path/filepath"
	"pdpcon/logger"
	"pdpcon/scl"
	"pdpcon/system"
	"time"

	"github.com/alecthomas/kong"
)

// Globals are the flags shared by every command.
type Globals struct {
	Port   string     `help:"Serial device of the console line." env:"PDPCON_PORT"`
	Serial scl.Config `help:"Line setting <baud>-<data bits>-<parity>-<stop bits>." default:"1200-8-N-1"`

	Sim    bool   `help:"Talk to the built in console simulator instead of a serial port."`
	Prompt string `help:"Prompt of the simulated console (@ for M9312, $$ for M9301)." enum:"@,$$" default:"@"`

	PromptTimeout time.Duration `help:"How long to wait for the console prompt." default:"5s"`
	IdleTimeout   time.Duration `help:"Quiet period before the sync character is sent again." default:"200ms"`
	PollInterval  time.Duration `help:"Sleep between polls of an idle line." default:"1ms" hidden:""`

	Log      string `help:"Append the log to this file instead of stderr." type:"path"`
	LogLevel string `help:"Log level." enum:"trace,debug,info,warn,error" default:"info"`

	TUI bool `name:"tui" help:"Show console output and status in a text user interface."`

	Lib string `help:"Take images from this file library." type:"existingfile" xor:"source"`
	Dir string `help:"Take images from this directory." type:"existingdir" xor:"source"`
}

var cli struct {
	Globals `embed:""`

	Load      loadCmd      `cmd:"" help:"Load a memory image (LDA tape or raw binary) through the console."`
	Bootstrap bootstrapCmd `cmd:"" help:"Deposit the bootstrap loader at the top of memory."`
	Absolute  absoluteCmd  `cmd:"" help:"Deposit the absolute loader at the top of memory."`
	Examine   examineCmd   `cmd:"" help:"Print words of memory."`
	Start     startCmd     `cmd:"" help:"Start the processor at an address."`
	Dump      dumpCmd      `cmd:"" help:"List the blocks of an LDA tape image."`
	Ports     portsCmd     `cmd:"" help:"List serial ports."`
	Simulate  simulateCmd  `cmd:"" help:"Serve the console simulator on the serial port."`
	Library   libraryCmd   `cmd:"" help:"Inspect or build file libraries."`
}

func main() {
	home, _ := os.UserHomeDir()
	ctx := kong.Parse(&cli,
		kong.Name("pdpcon"),
		kong.Description("Load and run programs on a PDP-11 through its M9301/M9312 console."),
		kong.UsageOnError(),
		kong.Configuration(kong.JSON, filepath.Join(home, ".pdpcon.json"), "pdpcon.json"),
	)

	logFile, err := logger.New(cli.Log, cli.LogLevel)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(&cli.Globals)
	if errors.Is(err, system.ErrInterrupted) {
		err = nil
	}
	_ = logFile.Close()
	ctx.FatalIfErrorf(err)
}
