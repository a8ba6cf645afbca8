package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"wrapbeep.click/internal/widget"
)

type keyAction int

const (
	keyNone keyAction = iota
	keyToggle
	keySuspend
	keyStatus
	keyQuit
)

const keyHelp = "keys: [space/t] toggle audio  [s] suspend  [?] status  [q] quit\r\n"

func parseKey(b byte) keyAction {
	switch b {
	case ' ', 't', 'T':
		return keyToggle
	case 's', 'S':
		return keySuspend
	case '?', 'i':
		return keyStatus
	case 'q', 'Q', 0x03, 0x04: // Ctrl-C and Ctrl-D arrive as bytes in raw mode
		return keyQuit
	}
	return keyNone
}

// runKeys handles single-key commands read from in until the user quits, in
// is exhausted or ctx ends. It reports whether the user asked to quit.
// The caller owns the terminal mode of in.
func (c *CLI) runKeys(ctx context.Context, in io.Reader, out io.Writer, w *widget.Widget) bool {
	fmt.Fprint(out, keyHelp)
	buf := make([]byte, 1)
	for ctx.Err() == nil {
		n, err := in.Read(buf)
		if n == 1 {
			switch parseKey(buf[0]) {
			case keyToggle:
				w.Toggle(ctx, !w.Enabled())
				printStatus(out, w)
			case keySuspend:
				if err := w.Suspend(); err != nil {
					fmt.Fprintf(out, "suspend failed: %v\r\n", err)
				} else {
					fmt.Fprint(out, "audio suspended until the next beep\r\n")
				}
			case keyStatus:
				printStatus(out, w)
			case keyQuit:
				return true
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("keyboard input failed", "error", err)
			}
			return false
		}
	}
	return false
}

func printStatus(out io.Writer, w *widget.Widget) {
	switch {
	case w.Armed():
		fmt.Fprint(out, "audio on\r\n")
	case w.Enabled() && w.LastError() != nil:
		fmt.Fprintf(out, "audio unavailable: %v\r\n", w.LastError())
	case w.Enabled():
		fmt.Fprint(out, "audio enabling\r\n")
	default:
		fmt.Fprint(out, "audio off\r\n")
	}
}
