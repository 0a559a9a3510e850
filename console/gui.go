package console

import (
	"fmt"
	"strings"

	"github.com/jroimartin/gocui"
)

// Gui console printing into a gocui view. gocui views may only be touched
// from the main loop, so every write is queued through Gui.Update.
type Gui struct {
	consoleOut chan string // lines waiting for the view
	g          *gocui.Gui
	view       string
	done       chan struct{}
}

// NewGui returns a console appending to the named view.
func NewGui(g *gocui.Gui, view string) *Gui {
	c := &Gui{
		consoleOut: make(chan string, 64),
		g:          g,
		view:       view,
		done:       make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Gui) run() {
	for {
		select {
		case s := <-c.consoleOut:
			c.g.Update(func(g *gocui.Gui) error {
				v, err := g.View(c.view)
				if err != nil {
					return err
				}
				fmt.Fprint(v, s)
				return nil
			})
		case <-c.done:
			return
		}
	}
}

// WriteConsole queues every non-empty line of msg.
func (c *Gui) WriteConsole(msg string) error {
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			c.consoleOut <- line + "\n"
		}
	}
	return nil
}

// Write appends raw console output, dropping carriage returns the view
// would print literally.
func (c *Gui) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\r", "")
	if s != "" {
		c.consoleOut <- s
	}
	return len(p), nil
}

// Close stops forwarding to the view.
func (c *Gui) Close() {
	close(c.done)
}
