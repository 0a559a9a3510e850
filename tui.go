package main

import (
	"context"
	"errors"
	"fmt"
	"pdpcon/console"
	"pdpcon/system"

	"github.com/jroimartin/gocui"
	log "github.com/sirupsen/logrus"
)

const (
	terminalView = "terminal"
	statusView   = "status"
)

// runTUI runs fn with console output in one view and status messages in
// another. The views stay up after fn returns until the operator quits.
func runTUI(ctx context.Context, link system.Link, opts system.Options, fn func(context.Context, *system.System) error) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return fmt.Errorf("couldn't create gui: %w", err)
	}
	defer g.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.SetManagerFunc(layout)

	quit := func(g *gocui.Gui, v *gocui.View) error {
		cancel()
		return gocui.ErrQuit
	}
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return err
	}
	if err := g.SetKeybinding("", 'q', gocui.ModNone, quit); err != nil {
		return err
	}

	terminal := console.NewGui(g, terminalView)
	defer terminal.Close()
	status := console.NewGui(g, statusView)
	defer status.Close()

	opts.Echo = terminal
	sys := system.New(link, status, opts)

	done := make(chan error, 1)
	go func() {
		err := fn(ctx, sys)
		if err != nil && !errors.Is(err, system.ErrInterrupted) {
			log.WithError(err).Error("operation failed")
		}
		_ = status.WriteConsole("press q to quit")
		done <- err
	}()

	if err := g.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		cancel()
		<-done
		return err
	}
	cancel()
	return <-done
}

// gocui layout
func layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	statusHeight := 8
	if maxY < 2*statusHeight {
		statusHeight = maxY / 2
	}

	// up -> console output
	if v, err := g.SetView(terminalView, 0, 0, maxX-1, maxY-statusHeight-2); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Console"
		v.Autoscroll = true
		v.Wrap = true
	}

	// down -> status
	if v, err := g.SetView(statusView, 0, maxY-statusHeight-1, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Autoscroll = true
	}
	return nil
}
