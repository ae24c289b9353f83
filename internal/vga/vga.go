// Package vga implements the VGA text-mode console: a fixed 80x25 grid
// of (character, attribute) cells per virtual terminal, the cursor
// tracking and scrolling rules putc/scroll use, and terminal_write's
// write(2) surface over that grid.
package vga

import (
	"golang.org/x/text/encoding/charmap"

	"github.com/EscapistArcadia/Illinix391/internal/limits"
)

const (
	cols      = limits.ScreenWidth
	rows      = limits.ScreenHeight
	attrib    = 0x7
	tabStop   = 4
	cellCount = cols * rows
)

// cell is one (character, attribute) pair, the same layout as a VGA
// text-mode word: low byte glyph, high byte attribute.
type cell struct {
	ch   byte
	attr byte
}

// Terminal is one virtual terminal's video page and cursor position.
type Terminal struct {
	cells    [cellCount]cell
	cursorX  int
	cursorY  int
	vidmap   bool
}

func newTerminal() *Terminal {
	t := &Terminal{}
	t.clear()
	return t
}

func (t *Terminal) clear() {
	for i := range t.cells {
		t.cells[i] = cell{ch: ' ', attr: attrib}
	}
	t.cursorX, t.cursorY = 0, 0
}

func (t *Terminal) scroll() {
	copy(t.cells[:(rows-1)*cols], t.cells[cols:])
	for i := (rows - 1) * cols; i < cellCount; i++ {
		t.cells[i] = cell{ch: 0, attr: attrib}
	}
	t.cursorY--
}

// putc writes a single already-transliterated byte, honoring \n, \r,
// \b and \t exactly as the reference console's putc does.
func (t *Terminal) putc(c byte) {
	switch c {
	case '\n', '\r':
		t.cursorY++
		t.cursorX = 0
		if t.cursorY == rows {
			t.scroll()
		}
	case '\b':
		if t.cursorX > 0 {
			t.cursorX--
		} else if t.cursorY > 0 {
			t.cursorX = cols - 1
			t.cursorY--
		} else {
			return
		}
		t.cells[t.cursorY*cols+t.cursorX] = cell{ch: 0, attr: attrib}
	case '\t':
		n := tabStop - ((t.cursorY*cols + t.cursorX) & (tabStop - 1))
		for i := 0; i < n; i++ {
			t.cells[t.cursorY*cols+t.cursorX] = cell{ch: ' ', attr: attrib}
			t.cursorX++
			if t.cursorX == cols {
				t.cursorX = 0
				t.cursorY++
				if t.cursorY == rows {
					t.scroll()
				}
			}
		}
	default:
		t.cells[t.cursorY*cols+t.cursorX] = cell{ch: c, attr: attrib}
		t.cursorX++
		if t.cursorX == cols {
			t.cursorX = 0
			t.cursorY++
			if t.cursorY == rows {
				t.scroll()
			}
		}
	}
}

// Snapshot renders the terminal's cells into the raw VGA text-mode
// byte layout (glyph, attribute, glyph, attribute, ...).
func (t *Terminal) Snapshot() []byte {
	out := make([]byte, cellCount*2)
	for i, c := range t.cells {
		out[2*i] = c.ch
		out[2*i+1] = c.attr
	}
	return out
}

// Cursor returns the terminal's current cursor position.
func (t *Terminal) Cursor() (x, y int) {
	return t.cursorX, t.cursorY
}

// Console owns every virtual terminal's video page plus which one is
// shown on the simulated display and which one is the scheduler's
// active (running) terminal.
type Console struct {
	terms      [limits.TerminalCount]*Terminal
	shownTerm  int
	activeTerm int
	codec      *charmap.Charmap
}

// New returns a Console with all terminals cleared.
func New() *Console {
	c := &Console{codec: charmap.CodePage437}
	for i := range c.terms {
		c.terms[i] = newTerminal()
	}
	return c
}

// Terminal returns the given virtual terminal's video page, for tests
// and for cmd/illinix's rendering loop.
func (c *Console) Terminal(id int) *Terminal {
	return c.terms[id]
}

// ShownTerm and ActiveTerm report which terminal is displayed and
// which is the scheduler's running terminal.
func (c *Console) ShownTerm() int  { return c.shownTerm }
func (c *Console) ActiveTerm() int { return c.activeTerm }

// SetActiveTerm updates which terminal the scheduler is currently
// running, independent of what is shown on screen.
func (c *Console) SetActiveTerm(id int) { c.activeTerm = id }

// SwitchShown changes which terminal's video page is rendered; each
// terminal keeps its own independent buffer, so there is no
// background-page copy to perform here.
func (c *Console) SwitchShown(next int) {
	c.shownTerm = next
}

// transliterate maps each UTF-8 rune in s to its nearest code-page-437
// glyph, the same degrade-gracefully behavior the real VGA text-mode
// font ROM exhibits for characters outside its font.
func (c *Console) transliterate(s []byte) []byte {
	out, _ := c.codec.NewEncoder().Bytes(s)
	if out == nil {
		return s
	}
	return out
}

// Write appends count bytes of buf to the given terminal's page,
// transliterating through code page 437 first. It always consumes
// exactly count bytes, matching the write(2) contract of this kernel's
// terminal files.
func (c *Console) Write(term int, buf []byte, count int) int {
	if count > len(buf) {
		count = len(buf)
	}
	t := c.terms[term]
	data := c.transliterate(buf[:count])
	for _, b := range data {
		t.putc(b)
	}
	return count
}

// Clear wipes the given terminal's video page and homes its cursor.
func (c *Console) Clear(term int) {
	c.terms[term].clear()
}
