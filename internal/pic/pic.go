// Package pic drives a simulated 8259 programmable interrupt controller
// pair (master + slave, cascaded on IRQ2), attached to an ioport.Bus the
// way every other device package attaches.
package pic

import "github.com/EscapistArcadia/Illinix391/internal/ioport"

const (
	masterCommand = 0x20
	masterData    = 0x21
	slaveCommand  = 0xA0
	slaveData     = 0xA1

	icw1       = 0x11
	icw2Master = 0x20
	icw2Slave  = 0x28
	icw3Master = 0x04
	icw3Slave  = 0x02
	icw4       = 0x01

	eoi = 0x60

	// IRQMin and IRQMax bound the valid IRQ line range across both PICs.
	IRQMin       = 0
	SlaveIRQ     = 2
	IRQMasterMax = 7
	IRQMax       = 15
)

// PIC is the two-chip cascaded 8259 pair, masked independently per chip.
type PIC struct {
	bus ioport.Bus

	masterMask uint8
	slaveMask  uint8
}

// New attaches a PIC to bus and performs the standard three-ICW
// initialization sequence, masking every line except the cascade input.
func New(bus ioport.Bus) *PIC {
	p := &PIC{bus: bus, masterMask: 0xFB, slaveMask: 0xFF}

	bus.Outb(masterData, 0xFF)
	bus.Outb(slaveData, 0xFF)

	bus.Outb(masterCommand, icw1)
	bus.Outb(slaveCommand, icw1)

	bus.Outb(masterData, icw2Master)
	bus.Outb(slaveData, icw2Slave)

	bus.Outb(masterData, icw3Master)
	bus.Outb(slaveData, icw3Slave)

	bus.Outb(masterData, icw4)
	bus.Outb(slaveData, icw4)

	bus.Outb(masterData, p.masterMask)
	bus.Outb(slaveData, p.slaveMask)

	return p
}

// Enable unmasks irq, routing it through whichever chip owns it.
func (p *PIC) Enable(irq int) {
	if irq < IRQMin || irq > IRQMax {
		return
	}
	if irq <= IRQMasterMax {
		p.masterMask &^= 1 << uint(irq)
		p.bus.Outb(masterData, p.masterMask)
	} else {
		p.slaveMask &^= 1 << uint(irq-8)
		p.bus.Outb(slaveData, p.slaveMask)
	}
}

// Disable masks irq.
func (p *PIC) Disable(irq int) {
	if irq < IRQMin || irq > IRQMax {
		return
	}
	if irq <= IRQMasterMax {
		p.masterMask |= 1 << uint(irq)
		p.bus.Outb(masterData, p.masterMask)
	} else {
		p.slaveMask |= 1 << uint(irq-8)
		p.bus.Outb(slaveData, p.slaveMask)
	}
}

// EOI sends end-of-interrupt for irq, cascading to the master chip too
// when the interrupt came off the slave.
func (p *PIC) EOI(irq int) {
	if irq < IRQMin || irq > IRQMax {
		return
	}
	if irq > IRQMasterMax {
		p.bus.Outb(slaveCommand, eoi|uint8(irq-8))
		p.bus.Outb(masterCommand, eoi|SlaveIRQ)
	} else {
		p.bus.Outb(masterCommand, eoi|uint8(irq))
	}
}

// Masked reports whether irq is currently masked off.
func (p *PIC) Masked(irq int) bool {
	if irq <= IRQMasterMax {
		return p.masterMask&(1<<uint(irq)) != 0
	}
	return p.slaveMask&(1<<uint(irq-8)) != 0
}
