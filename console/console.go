// Package console shows status messages to the operator.
//
// Messages are written one line at a time. Simple writes them to a terminal,
// Gui appends them to the status view of the text user interface.
package console

// Console receives status messages.
type Console interface {
	WriteConsole(msg string) error
}
