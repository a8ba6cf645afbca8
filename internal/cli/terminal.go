package cli

import (
	"log/slog"
	"sync"

	"golang.org/x/term"
)

// TerminalDetector reports whether a file descriptor is an interactive
// terminal and switches it into raw mode for single-key commands.
type TerminalDetector interface {
	IsTerminal(fd int) bool
	MakeRaw(fd int) (restore func() error, err error)
}

// DefaultTerminalDetector uses golang.org/x/term.
type DefaultTerminalDetector struct{}

func (d *DefaultTerminalDetector) IsTerminal(fd int) bool {
	isTerminal := term.IsTerminal(fd)
	slog.Debug("terminal detection result", "fd", fd, "is_terminal", isTerminal)
	return isTerminal
}

// MakeRaw puts fd into raw mode. The returned func restores the previous
// state.
func (d *DefaultTerminalDetector) MakeRaw(fd int) (func() error, error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(fd, state) }, nil
}

func (c *CLI) isInteractiveTerminal(fd int) bool {
	if c.terminalDetector == nil {
		c.terminalDetector = &DefaultTerminalDetector{}
	}
	return c.terminalDetector.IsTerminal(fd)
}

// fdReader is implemented by *os.File.
type fdReader interface {
	Fd() uintptr
}

// terminalFd returns the descriptor behind r when r is an interactive
// terminal.
func (c *CLI) terminalFd(r any) (int, bool) {
	f, ok := r.(fdReader)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, c.isInteractiveTerminal(fd)
}

// enterRawMode switches r into raw mode when it is an interactive terminal.
// The returned func restores the previous mode and is safe to call more
// than once.
func (c *CLI) enterRawMode(r any) func() {
	fd, ok := c.terminalFd(r)
	if !ok {
		return func() {}
	}
	restore, err := c.terminalDetector.MakeRaw(fd)
	if err != nil {
		slog.Warn("failed to enable raw terminal mode", "error", err)
		return func() {}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := restore(); err != nil {
				slog.Warn("failed to restore terminal mode", "error", err)
			}
		})
	}
}
