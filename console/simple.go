package console

import (
	"io"
	"strings"
)

// Simple console writing to a terminal that may be in raw mode, so every
// line is ended with CR LF.
type Simple struct {
	out         io.Writer
	currentLine int // lines written so far
}

// NewSimple returns a console writing to out.
func NewSimple(out io.Writer) *Simple {
	return &Simple{out: out}
}

// WriteConsole writes every non-empty line of msg.
func (c *Simple) WriteConsole(msg string) error {
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if _, err := io.WriteString(c.out, line+"\r\n"); err != nil {
			return err
		}
		c.currentLine++
	}
	return nil
}

// Lines returns the number of lines written.
func (c *Simple) Lines() int { return c.currentLine }
