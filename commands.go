package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"pdpcon/console"
	"pdpcon/disasm"
	"pdpcon/filestore"
	"pdpcon/loader"
	"pdpcon/m93xx"
	"pdpcon/monitor"
	"pdpcon/papertape"
	"pdpcon/scl"
	"pdpcon/system"
	"pdpcon/teletype"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// octalAddr is a word address given in octal on the command line.
type octalAddr uint16

func (a *octalAddr) UnmarshalText(text []byte) error {
	v, err := m93xx.ParseOctal(string(text))
	if err != nil {
		return err
	}
	*a = octalAddr(v)
	return nil
}

func (a octalAddr) String() string { return m93xx.FormatOctal(uint16(a)) }

// openLink opens the console line, or the simulator when asked for.
func (g *Globals) openLink() (system.Link, func(), error) {
	if g.Sim {
		log.Infof("using simulated console with prompt %s", g.Prompt)
		return monitor.NewSim(g.Prompt[0], nil), func() {}, nil
	}
	if g.Port == "" {
		return nil, nil, errors.New("no console line given, use --port or --sim")
	}

	port, err := scl.Open(g.Port, g.Serial)
	if err != nil {
		return nil, nil, err
	}
	return port, func() {
		if err := port.Close(); err != nil {
			log.WithError(err).Warn("closing console line")
		}
	}, nil
}

// withSystem connects to the console and runs fn against it, in the text
// user interface or on the invoking terminal.
func (g *Globals) withSystem(fn func(context.Context, *system.System) error) error {
	link, closeLink, err := g.openLink()
	if err != nil {
		return err
	}
	defer closeLink()

	opts := system.Options{
		Controller: m93xx.Config{
			PromptTimeout: g.PromptTimeout,
			IdleTimeout:   g.IdleTimeout,
		},
		PollInterval: g.PollInterval,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if g.TUI {
		// the log would scribble over the views
		if g.Log == "" {
			log.SetOutput(io.Discard)
		}
		return runTUI(ctx, link, opts, fn)
	}

	host, err := teletype.Open()
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			log.WithError(err).Warn("restoring terminal")
		}
	}()

	opts.Echo = host
	opts.Interrupter = host
	return fn(ctx, system.New(link, console.NewSimple(host), opts))
}

// readImage resolves name in the file library, the image directory or the
// file system, in that order of preference.
func (g *Globals) readImage(name string) (filestore.Image, error) {
	var p filestore.Provider
	switch {
	case g.Lib != "":
		lib, err := filestore.OpenLibrary(g.Lib)
		if err != nil {
			return filestore.Image{}, err
		}
		p = lib
	case g.Dir != "":
		p = filestore.NewDir(g.Dir)
	default:
		data, err := os.ReadFile(name)
		if err != nil {
			return filestore.Image{}, err
		}
		return filestore.Image{Name: filepath.Base(name), Data: data}, nil
	}
	return p.Get(name)
}

type loadCmd struct {
	Image    string     `arg:"" help:"Image file, or its name in --lib or --dir."`
	At       octalAddr  `help:"Load address of a raw binary image (octal)." default:"0"`
	Relocate *octalAddr `help:"Load an LDA tape at this address (octal) instead of its own." placeholder:"ADDR"`
}

func (c *loadCmd) Run(g *Globals) error {
	img, err := g.readImage(c.Image)
	if err != nil {
		return err
	}

	data := img.Data
	if !papertape.IsValidFile(data) {
		data = filestore.TrimXMODEMPadding(data)
		if uint16(c.At)&1 != 0 {
			return fmt.Errorf("load address %s: %w", c.At, system.ErrOddAddress)
		}
	}
	src, kind := loader.ForImage(data, uint16(c.At))

	if c.Relocate != nil {
		lda, ok := src.(*loader.LDASource)
		if !ok {
			return fmt.Errorf("%s is a %v image, only LDA images can be relocated", img.Name, kind)
		}
		lda.SetOverrideLoadAddress(uint16(*c.Relocate))
	}

	log.WithFields(log.Fields{"image": img.Name, "kind": kind, "bytes": len(data)}).Info("image resolved")
	return g.withSystem(func(ctx context.Context, sys *system.System) error {
		return sys.Load(ctx, src, img.Name)
	})
}

// loadProgram deposits p at the top of memKW of memory and optionally starts
// it.
func (g *Globals) loadProgram(p *loader.Program, memKW uint32, start bool) error {
	loadAddr := p.MemSizeToLoadAddr(memKW)
	src := p.NewSource(loadAddr)
	log.WithFields(log.Fields{"program": p.Name, "kind": loader.KindOf(src), "at": m93xx.FormatOctal(loadAddr)}).Info("program placed")
	return g.withSystem(func(ctx context.Context, sys *system.System) error {
		if err := sys.Load(ctx, src, p.Name); err != nil {
			return err
		}
		if !start {
			return nil
		}
		addr, _ := src.StartAddress()
		return sys.Start(ctx, addr)
	})
}

type bootstrapCmd struct {
	Mem   uint32 `help:"Memory size in KW. The loader goes at the top of it." default:"28"`
	Start bool   `help:"Start the loader once it is deposited."`
}

func (c *bootstrapCmd) Run(g *Globals) error {
	return g.loadProgram(loader.BootstrapLoader, c.Mem, c.Start)
}

type absoluteCmd struct {
	Mem   uint32 `help:"Memory size in KW. The loader goes at the top of it." default:"28"`
	Start bool   `help:"Start the loader once it is deposited."`
}

func (c *absoluteCmd) Run(g *Globals) error {
	return g.loadProgram(loader.AbsoluteLoader, c.Mem, c.Start)
}

type examineCmd struct {
	Addr   octalAddr `required:"" help:"First address (octal)."`
	Count  int       `help:"Number of words." default:"1"`
	Disasm bool      `help:"Show the words as instructions."`
}

func (c *examineCmd) Run(g *Globals) error {
	if c.Count < 1 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}
	var words []loader.Word
	err := g.withSystem(func(ctx context.Context, sys *system.System) error {
		var err error
		words, err = sys.Examine(ctx, uint16(c.Addr), c.Count)
		return err
	})
	if !c.Disasm || len(words) == 0 {
		for _, w := range words {
			fmt.Printf("%06o %06o\n", w.Address, w.Data)
		}
		return err
	}

	var mem monitor.Memory
	for _, w := range words {
		mem.WriteMemoryWord(w.Address, w.Data)
	}
	last := words[len(words)-1].Address
	if lerr := disasm.Listing(os.Stdout, &mem, words[0].Address, last+1); lerr != nil {
		return lerr
	}
	return err
}

type startCmd struct {
	Addr octalAddr `required:"" help:"Start address (octal)."`
}

func (c *startCmd) Run(g *Globals) error {
	return g.withSystem(func(ctx context.Context, sys *system.System) error {
		return sys.Start(ctx, uint16(c.Addr))
	})
}

type dumpCmd struct {
	Image  string `arg:"" help:"LDA image file, or its name in --lib or --dir."`
	Disasm bool   `help:"Disassemble the data of every block."`
}

func (c *dumpCmd) Run(g *Globals) error {
	img, err := g.readImage(c.Image)
	if err != nil {
		return err
	}
	blocks, err := papertape.Blocks(img.Data)
	dumpBlocks(os.Stdout, blocks)
	if c.Disasm {
		disasmBlocks(os.Stdout, blocks)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", img.Name, err)
	}
	return nil
}

type portsCmd struct{}

func (c *portsCmd) Run(g *Globals) error {
	ports, err := scl.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

type simulateCmd struct{}

func (c *simulateCmd) Run(g *Globals) error {
	if g.Port == "" {
		return errors.New("simulate needs --port")
	}
	port, err := scl.Open(g.Port, g.Serial)
	if err != nil {
		return err
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("serving simulated console with prompt %s on %s", g.Prompt, port.Name())
	err = monitor.NewSim(g.Prompt[0], nil).Serve(ctx, port, g.PollInterval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type libraryCmd struct {
	List  libraryListCmd  `cmd:"" help:"List the images of a file library."`
	Build libraryBuildCmd `cmd:"" help:"Pack files into a file library."`
}

type libraryListCmd struct {
	Path string `arg:"" type:"existingfile" help:"File library."`
}

func (c *libraryListCmd) Run(g *Globals) error {
	lib, err := filestore.OpenLibrary(c.Path)
	if err != nil {
		return err
	}
	for _, img := range lib.Images() {
		_, kind := loader.ForImage(img.Data, 0)
		fmt.Printf("%-32s %7d %s\n", img.Name, len(img.Data), kind)
	}
	return nil
}

type libraryBuildCmd struct {
	Output string   `arg:"" type:"path" help:"File library to write."`
	Files  []string `arg:"" type:"existingfile" help:"Files to pack."`
}

func (c *libraryBuildCmd) Run(g *Globals) error {
	images := make([]filestore.Image, 0, len(c.Files))
	for _, name := range c.Files {
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		images = append(images, filestore.Image{Name: name, Data: data})
	}
	b, err := filestore.BuildLibrary(images)
	if err != nil {
		return err
	}
	return os.WriteFile(c.Output, b, 0o644)
}
