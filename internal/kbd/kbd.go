// Package kbd turns PS/2 scancodes into line-edited input on the shown
// terminal: a modifier bitmap, the shifted/unshifted printable tables,
// and the backspace/tab/enter/Ctrl+L/Ctrl+C line-editor rules.
package kbd

import (
	"github.com/EscapistArcadia/Illinix391/internal/ioport"
	"github.com/EscapistArcadia/Illinix391/internal/limits"
	"github.com/EscapistArcadia/Illinix391/internal/pic"
	"github.com/EscapistArcadia/Illinix391/internal/vga"
)

const (
	dataPort = 0x60
	irqLine  = 1
)

const (
	scEscape         = 0x01
	scBackspace      = 0x0E
	scTab            = 0x0F
	scEnter          = 0x1C
	scLeftControl    = 0x1D
	scLeftShift      = 0x2A
	scRightShift     = 0x36
	scLeftAlt        = 0x38
	scCapsLock       = 0x3A
	scCtrlL          = 0x26
	scCtrlC          = 0x2E
	scF1             = 0x3B
	scF2             = 0x3C
	scF3             = 0x3D

	scLeftControlRel = 0x9D
	scLeftShiftRel   = 0xAA
	scRightShiftRel  = 0xB6
	scLeftAltRel     = 0xB8
)

const (
	flagLeftShift uint32 = 1 << iota
	flagRightShift
	flagAlt
	flagCapsLock
	flagControl
)

// visible and visibleShifted are the printable-scancode lookup tables,
// indexed directly by scancode; 0 means "not a printable key".
var visible = [...]byte{
	0, 0, '1', '2', '3', '4', '5', '6',
	'7', '8', '9', '0', '-', '=', 0, 0,
	'q', 'w', 'e', 'r', 't', 'y', 'u', 'i',
	'o', 'p', '[', ']', 0, 0, 'a', 's',
	'd', 'f', 'g', 'h', 'j', 'k', 'l', ';',
	'\'', '`', 0, '\\', 'z', 'x', 'c', 'v',
	'b', 'n', 'm', ',', '.', '/', 0, 0,
	0, ' ',
}

var visibleShifted = [...]byte{
	0, 0, '!', '@', '#', '$', '%', '^',
	'&', '*', '(', ')', '_', '+', 0, 0,
	'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I',
	'O', 'P', '[', ']', 0, 0, 'A', 'S',
	'D', 'F', 'G', 'H', 'J', 'K', 'L', ':',
	'"', '~', 0, '|', 'Z', 'X', 'C', 'V',
	'B', 'N', 'M', '<', '>', '?', 0, 0,
	0, ' ',
}

// Line is one terminal's input line: the buffered bytes not yet
// consumed by terminal_read, and the two cooperative-scheduling flags
// spec.md's terminal struct carries alongside them.
type Line struct {
	Buf        [limits.MaxLineLen]byte
	Length     int
	InProgress bool
	ToBeHalt   bool

	// Armed is set by terminal_read on its first poll of a read and
	// cleared once that read has copied the completed line back out;
	// it disambiguates "no read has been armed yet" from "Enter fired
	// and a read is waiting to collect its line" without needing a
	// literal busy-wait inside the syscall.
	Armed bool
}

// Keyboard owns the modifier bitmap and every terminal's input line;
// it always edits and echoes to whichever terminal is currently shown
// on the VGA page, matching "keystrokes appear only on the shown
// terminal".
type Keyboard struct {
	bus     ioport.Bus
	pic     *pic.PIC
	console *vga.Console
	lines   [limits.TerminalCount]*Line
	bitmap  uint32
}

// New unmasks IRQ1 and returns a Keyboard with every terminal's line
// buffer ready for input.
func New(bus ioport.Bus, controller *pic.PIC, console *vga.Console) *Keyboard {
	k := &Keyboard{bus: bus, pic: controller, console: console}
	for i := range k.lines {
		k.lines[i] = &Line{}
	}
	controller.Enable(irqLine)
	return k
}

// Line returns the given terminal's input line, for terminal_read to
// drain and for the scheduler to inspect ToBeHalt.
func (k *Keyboard) Line(term int) *Line {
	return k.lines[term]
}

// Handler reads one scancode from the data port and applies it to the
// shown terminal's line editor.
func (k *Keyboard) Handler() {
	scancode := k.bus.Inb(dataPort)
	k.apply(scancode)
	k.pic.EOI(irqLine)
}

// InjectASCII applies one already-decoded ASCII byte from a real host
// terminal (running in raw mode) to the shown terminal's line editor.
// It exists alongside apply/Handler rather than routing host bytes
// through a fabricated PS/2 scancode, since a host TTY already hands
// over case-correct, shift-resolved bytes — reconstructing make/break
// codes from them would only throw that information away and then
// immediately reconstruct it.
func (k *Keyboard) InjectASCII(ch byte) {
	term := k.console.ShownTerm()
	line := k.lines[term]

	switch ch {
	case '\r', '\n':
		k.console.Write(term, []byte{'\n'}, 1)
		line.InProgress = false
	case 0x7F, 0x08:
		if line.Length > 0 {
			k.console.Write(term, []byte{'\b'}, 1)
			line.Length--
			line.Buf[line.Length] = 0
		}
	case 0x0C: // Ctrl+L
		k.console.Clear(term)
	case 0x03: // Ctrl+C
		line.ToBeHalt = true
	default:
		if ch < 0x20 || ch >= 0x7F {
			return
		}
		k.console.Write(term, []byte{ch}, 1)
		if line.Length < len(line.Buf) {
			line.Buf[line.Length] = ch
			line.Length++
		}
	}
}

// apply decodes one raw scancode against the current modifier bitmap
// and either edits the shown terminal's line or, for Alt+F1/F2/F3,
// switches which terminal is shown without touching any line buffer.
func (k *Keyboard) apply(scancode uint8) {
	term := k.console.ShownTerm()
	line := k.lines[term]

	switch scancode {
	case scLeftShift:
		k.bitmap |= flagLeftShift
	case scRightShift:
		k.bitmap |= flagRightShift
	case scLeftShiftRel, scRightShiftRel:
		k.bitmap &^= flagLeftShift | flagRightShift
	case scCapsLock:
		k.bitmap &^= flagCapsLock
	case scLeftControl:
		k.bitmap |= flagControl
	case scLeftControlRel:
		k.bitmap &^= flagControl
	case scLeftAlt:
		k.bitmap |= flagAlt
	case scLeftAltRel:
		k.bitmap &^= flagAlt
	case scF1, scF2, scF3:
		if k.bitmap&flagAlt != 0 {
			k.console.SwitchShown(int(scancode - scF1))
		}
	case scTab:
		k.console.Write(term, []byte{'\t'}, 1)
		if line.Length < len(line.Buf) {
			line.Buf[line.Length] = '\t'
			line.Length++
		}
	case scBackspace:
		if line.Length > 0 {
			k.console.Write(term, []byte{'\b'}, 1)
			line.Length--
			line.Buf[line.Length] = 0
		}
	case scEnter:
		k.console.Write(term, []byte{'\n'}, 1)
		line.InProgress = false
	default:
		if int(scancode) >= len(visible) || visible[scancode] == 0 {
			return
		}
		if k.bitmap&flagControl != 0 {
			switch scancode {
			case scCtrlL:
				k.console.Clear(term)
			case scCtrlC:
				line.ToBeHalt = true
			}
			return
		}
		table := &visible
		if k.bitmap&(flagLeftShift|flagRightShift) != 0 {
			table = &visibleShifted
		}
		ch := table[scancode]
		k.console.Write(term, []byte{ch}, 1)
		if line.Length < len(line.Buf) {
			line.Buf[line.Length] = ch
			line.Length++
		}
	}
}
