package main

import (
	"bufio"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/EscapistArcadia/Illinix391/internal/limits"
)

// hostConsole attaches the real controlling terminal as the keyboard
// and framebuffer of whichever terminal is currently shown, the way a development build lets a person
// sit at the simulated machine instead of driving it from a disk
// image's shipped commands alone. It only ever reaches the keyboard
// through Keyboard.InjectASCII and x/term's own raw-mode API — never
// golang.org/x/sys/unix directly — since x/sys is only an indirect
// dependency of this module.
type hostConsole struct {
	m        *machine
	fd       int
	oldState *term.State
	done     chan struct{}
}

func newHostConsole(m *machine) (*hostConsole, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errNotATTY
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &hostConsole{m: m, fd: fd, oldState: old, done: make(chan struct{})}, nil
}

// pump reads raw bytes from stdin and injects each one into the
// keyboard's currently shown terminal, one at a time, so every
// keystroke takes effect before the next is read.
func (c *hostConsole) pump() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			close(c.done)
			return
		}
		if buf[0] == 0x1b && c.trySwitchShown() {
			continue
		}
		c.m.keyboard.InjectASCII(buf[0])
	}
}

// trySwitchShown consumes the "ESC O <P|Q|R>" sequence xterm-family
// terminals send for F1/F2/F3 and switches the shown terminal, the
// host-console equivalent of Alt+F1/F2/F3 on real hardware (raw mode
// leaves a host window manager's own Alt+Fn bindings in the way, so an
// unmodified function key is the portable substitute). A byte pair that
// doesn't match is simply dropped along with the leading ESC, since a
// bare escape byte has no line-editor meaning of its own.
func (c *hostConsole) trySwitchShown() bool {
	one := make([]byte, 1)
	if n, err := os.Stdin.Read(one); err != nil || n == 0 || one[0] != 'O' {
		return false
	}
	if n, err := os.Stdin.Read(one); err != nil || n == 0 {
		return false
	}
	switch one[0] {
	case 'P':
		c.m.console.SwitchShown(0)
	case 'Q':
		c.m.console.SwitchShown(1)
	case 'R':
		c.m.console.SwitchShown(2)
	default:
		return false
	}
	return true
}

func (c *hostConsole) restore() {
	term.Restore(c.fd, c.oldState)
}

// render redraws the shown terminal's VGA page to stdout as plain
// text until the console is closed; raw mode means every line needs
// an explicit carriage return, so a bare "\n" is not enough to keep
// the grid square on a real terminal emulator.
func (c *hostConsole) render() {
	out := bufio.NewWriter(os.Stdout)
	ticker := time.NewTicker(time.Second / 10)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			shown := c.m.console.ShownTerm()
			cells := c.m.console.Terminal(shown).Snapshot()

			out.WriteString("\x1b[H\x1b[2J")
			for row := 0; row < limits.ScreenHeight; row++ {
				for col := 0; col < limits.ScreenWidth; col++ {
					ch := cells[2*(row*limits.ScreenWidth+col)]
					if ch == 0 {
						ch = ' '
					}
					out.WriteByte(ch)
				}
				out.WriteString("\r\n")
			}
			out.Flush()
		}
	}
}

type ttyError string

func (e ttyError) Error() string { return string(e) }

const errNotATTY = ttyError("stdin is not a terminal")
