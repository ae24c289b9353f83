// Package pit programs the 8254 programmable interval timer that
// drives the round-robin scheduler's quantum, channel 0 wired to IRQ0.
package pit

import (
	"github.com/EscapistArcadia/Illinix391/internal/ioport"
	"github.com/EscapistArcadia/Illinix391/internal/pic"
)

const (
	baseFrequency = 1193182
	squareWaveCmd = 0x36

	channel0 = 0x40
	command  = 0x43

	irqLine = 0
)

// PIT wraps the bus ports used to program the timer's divisor.
type PIT struct {
	bus ioport.Bus
	pic *pic.PIC
}

// New programs channel 0 for square-wave mode at the given frequency
// in Hz and unmasks IRQ0 on the given controller.
func New(bus ioport.Bus, controller *pic.PIC, frequencyHz int) *PIT {
	p := &PIT{bus: bus, pic: controller}
	p.reprogram(frequencyHz)
	controller.Enable(irqLine)
	return p
}

// Reprogram changes the timer's divisor without touching IRQ masking.
func (p *PIT) Reprogram(frequencyHz int) {
	p.reprogram(frequencyHz)
}

func (p *PIT) reprogram(frequencyHz int) {
	divisor := uint16(baseFrequency / frequencyHz)
	p.bus.Outb(command, squareWaveCmd)
	p.bus.Outb(channel0, uint8(divisor&0xFF))
	p.bus.Outb(channel0, uint8((divisor>>8)&0xFF))
}

// EOI acknowledges the timer interrupt on the underlying controller.
func (p *PIT) EOI() {
	p.pic.EOI(irqLine)
}
