// Package console is a raw-mode terminal console used by the CLI's
// interactive stuck-loop/trace prompt: when engine.Engine panics with
// rerrors.ErrStuckLoop, the host drops into this console to let an
// operator inspect the shadow stack and decide whether to abort or
// continue. Grounded on the teacher's
// debugger/terminal/colorterm/easyterm package, which wraps the same
// github.com/pkg/term/termios primitives with friendlier names; this
// package needs only raw single-keypress reads, so it uses the
// simpler top-level github.com/pkg/term API instead of hand-rolling a
// termios wrapper of its own.
package console

import (
	"fmt"
	"os"

	term "github.com/pkg/term"

	"github.com/scanlime-collective/roboodyssey/rerrors"
)

// Console owns a raw-mode terminal handle opened against the
// process's controlling tty.
type Console struct {
	t *term.Term
}

// Open puts the controlling terminal into raw mode (one keypress per
// Read, no echo) for the duration of an interactive prompt session.
func Open() (*Console, error) {
	t, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return nil, rerrors.Errorf("diagnostics/console: open: %w", err)
	}
	return &Console{t: t}, nil
}

// Close restores the terminal's original mode.
func (c *Console) Close() error {
	if c.t == nil {
		return nil
	}
	if err := c.t.Restore(); err != nil {
		return rerrors.Errorf("diagnostics/console: restore: %w", err)
	}
	return c.t.Close()
}

// ReadKey blocks for a single keypress and returns it.
func (c *Console) ReadKey() (byte, error) {
	var buf [1]byte
	if _, err := c.t.Read(buf[:]); err != nil {
		return 0, rerrors.Errorf("diagnostics/console: read: %w", err)
	}
	return buf[0], nil
}

// Printf writes to standard error, bypassing the raw mode's
// lack of echo.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// StuckLoopPrompt is run when engine.Engine reports a stuck translated
// loop: it prints trace, reads a single key, and reports whether the
// operator chose to abort (any key other than 'c' for continue).
func (c *Console) StuckLoopPrompt(trace string) (abort bool, err error) {
	c.Printf("\r\nstuck loop detected:\r\n%s\r\n[c]ontinue, any other key aborts: ", trace)
	key, err := c.ReadKey()
	if err != nil {
		return true, err
	}
	c.Printf("\r\n")
	return key != 'c' && key != 'C', nil
}
