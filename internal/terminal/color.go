package terminal

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Color is an ANSI SGR escape.
type Color string

const (
	Reset  Color = "\033[0m"
	Red    Color = "\033[31m"
	Yellow Color = "\033[33m"
	Green  Color = "\033[32m"
	Cyan   Color = "\033[36m"
)

// painter wraps text in colours when enabled.
type painter bool

func (p painter) paint(c Color, s string) string {
	if !p {
		return s
	}
	return string(c) + s + string(Reset)
}

// isTTY reports whether w is an interactive terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
