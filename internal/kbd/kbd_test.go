package kbd

import (
	"testing"

	"github.com/EscapistArcadia/Illinix391/internal/pic"
	"github.com/EscapistArcadia/Illinix391/internal/vga"
)

type fakeBus struct {
	next uint8
}

func (b *fakeBus) Inb(port uint16) uint8        { return b.next }
func (b *fakeBus) Outb(port uint16, val uint8)  {}
func (b *fakeBus) Inw(port uint16) uint16       { return 0 }
func (b *fakeBus) Outw(port uint16, val uint16) {}

func newKbd() (*Keyboard, *fakeBus) {
	bus := &fakeBus{}
	controller := pic.New(bus)
	console := vga.New()
	return New(bus, controller, console), bus
}

func TestTypedLetterAppendsToLine(t *testing.T) {
	k, bus := newKbd()
	bus.next = 0x1E // 'a'
	k.Handler()
	line := k.Line(0)
	if line.Length != 1 || line.Buf[0] != 'a' {
		t.Fatalf("line = %q (len %d), want \"a\"", line.Buf[:line.Length], line.Length)
	}
}

func TestShiftUppercasesLetter(t *testing.T) {
	k, bus := newKbd()
	bus.next = scLeftShift
	k.Handler()
	bus.next = 0x1E // 'a'
	k.Handler()
	line := k.Line(0)
	if line.Buf[0] != 'A' {
		t.Fatalf("shifted char = %q, want A", line.Buf[0])
	}
}

func TestBackspaceRemovesLastChar(t *testing.T) {
	k, bus := newKbd()
	bus.next = 0x1E
	k.Handler()
	bus.next = scBackspace
	k.Handler()
	if k.Line(0).Length != 0 {
		t.Fatalf("length after backspace = %d, want 0", k.Line(0).Length)
	}
}

func TestEnterClearsInProgress(t *testing.T) {
	k, bus := newKbd()
	k.Line(0).InProgress = true
	bus.next = scEnter
	k.Handler()
	if k.Line(0).InProgress {
		t.Fatal("Enter should clear InProgress")
	}
}

func TestCtrlCSetsToBeHalt(t *testing.T) {
	k, bus := newKbd()
	bus.next = scLeftControl
	k.Handler()
	bus.next = scCtrlC
	k.Handler()
	if !k.Line(0).ToBeHalt {
		t.Fatal("Ctrl+C should set ToBeHalt")
	}
}

func TestCtrlLClearsScreenWithoutTouchingLine(t *testing.T) {
	k, bus := newKbd()
	bus.next = 0x1E
	k.Handler()
	bus.next = scLeftControl
	k.Handler()
	bus.next = scCtrlL
	k.Handler()
	if k.Line(0).Length != 1 {
		t.Fatalf("Ctrl+L should not touch the line buffer, length = %d", k.Line(0).Length)
	}
}

func TestAltF2SwitchesShownTerminal(t *testing.T) {
	k, bus := newKbd()
	bus.next = scLeftAlt
	k.Handler()
	bus.next = scF2
	k.Handler()
	if got := k.console.ShownTerm(); got != 1 {
		t.Fatalf("shown terminal after Alt+F2 = %d, want 1", got)
	}
	bus.next = scLeftAltRel
	k.Handler()
	bus.next = scF3
	k.Handler()
	if got := k.console.ShownTerm(); got != 1 {
		t.Fatalf("F3 without Alt held should not switch terminals, shown = %d", got)
	}
}

func TestAltF1SwitchesBackToFirstTerminal(t *testing.T) {
	k, bus := newKbd()
	bus.next = scLeftAlt
	k.Handler()
	bus.next = scF3
	k.Handler()
	if got := k.console.ShownTerm(); got != 2 {
		t.Fatalf("shown terminal after Alt+F3 = %d, want 2", got)
	}
	bus.next = scF1
	k.Handler()
	if got := k.console.ShownTerm(); got != 0 {
		t.Fatalf("shown terminal after Alt+F1 = %d, want 0", got)
	}
}
