// Package rtc virtualizes the real-time clock: the periodic-interrupt
// enable sequence, the per-process frequency divider state rtc_open/
// rtc_read/rtc_write manipulate, and the interrupt handler that fires
// every process currently waiting on its own virtual rate.
package rtc

import (
	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/ioport"
	"github.com/EscapistArcadia/Illinix391/internal/limits"
	"github.com/EscapistArcadia/Illinix391/internal/pic"
	"github.com/EscapistArcadia/Illinix391/internal/util"
)

const (
	regCommand = 0x70
	regData    = 0x71

	regA       = 0x0A
	regB       = 0x0B
	regC       = 0x0C
	disableNMI = 0x80

	irqLine = 8

	minRate = 2
	maxRate = 15
)

// state is one process's virtual RTC subscription.
type state struct {
	enabled bool
	fired   int
	curr    int
	rate    int
}

// Controller owns the hardware RTC's register programming and every
// process's virtual frequency-divider state.
type Controller struct {
	bus   ioport.Bus
	pic   *pic.PIC
	procs [limits.MaxProcess]state
}

// New programs the real RTC's periodic-interrupt-enable bit, sets the
// slowest hardware rate, and unmasks its IRQ line.
func New(bus ioport.Bus, controller *pic.PIC) *Controller {
	c := &Controller{bus: bus, pic: controller}
	c.setHardwareRate(minRate)

	bus.Outb(regCommand, disableNMI|regB)
	b := bus.Inb(regData)
	bus.Outb(regCommand, disableNMI|regB)
	bus.Outb(regData, b|0x40)

	controller.Enable(irqLine)
	return c
}

func (c *Controller) setHardwareRate(rate uint8) {
	if rate < minRate || rate > maxRate {
		return
	}
	c.bus.Outb(regCommand, disableNMI|regA)
	a := c.bus.Inb(regData)
	c.bus.Outb(regCommand, disableNMI|regA)
	c.bus.Outb(regData, (a&0xF0)|rate)
}

// Handler services the periodic-interrupt, draining register C to
// re-arm it, then ticks down every process currently waiting on its
// own virtual frequency. Unlike the reference handler's hardcoded
// pid 3..5 sweep, this iterates every process slot so a terminal's
// root shell (pids 0..2), not just the descendant pids, can hold an
// open RTC file.
func (c *Controller) Handler() {
	c.bus.Outb(regCommand, regC)
	c.bus.Inb(regData)

	for pid := range c.procs {
		p := &c.procs[pid]
		if !p.enabled || p.fired > 0 {
			continue
		}
		if p.curr <= 1 {
			p.fired++
		} else {
			p.curr--
		}
	}

	c.pic.EOI(irqLine)
}

// Open subscribes pid at the slowest virtual rate (512Hz/256 = 2Hz
// divider count), matching rtc_open's reset-to-maximum-interval start.
func (c *Controller) Open(pid int) defs.Err {
	p := &c.procs[pid]
	p.enabled = true
	p.fired = 0
	p.curr = limits.RTCMaxFreq / limits.RTCMinFreq
	p.rate = p.curr
	return defs.EOK
}

// Close unsubscribes pid from periodic ticking.
func (c *Controller) Close(pid int) defs.Err {
	c.procs[pid].enabled = false
	return defs.EOK
}

// Read reports whether pid's next virtual tick has fired. The
// reference kernel busy-waits inside rtc_read until this condition
// holds; this package instead returns EBUSY so the syscall layer can
// retry across scheduler quanta rather than spinning with interrupts
// disabled.
func (c *Controller) Read(pid int) defs.Err {
	p := &c.procs[pid]
	if !p.enabled {
		return defs.EINVAL
	}
	if p.fired == 0 {
		return defs.EBUSY
	}
	p.fired--
	p.curr = p.rate
	return defs.EOK
}

// SetFrequency validates and installs a new virtual frequency in Hz,
// rejecting anything outside [RTCMinFreq, RTCMaxFreq] or not a power
// of two.
func (c *Controller) SetFrequency(pid int, freq int) defs.Err {
	if freq < limits.RTCMinFreq || freq > limits.RTCMaxFreq || freq&(freq-1) != 0 {
		return defs.EINVAL
	}
	p := &c.procs[pid]
	if !p.enabled {
		return defs.EINVAL
	}
	p.curr = limits.RTCMaxFreq / freq
	p.rate = p.curr
	return defs.EOK
}

// Ops adapts Controller to fdops.Ops, so an RTC file descriptor is
// dispatched through the same {open,close,read,write} boundary as
// every other file type. inode and pos are unused: the RTC has
// neither.
type Ops struct {
	Controller *Controller
}

func (o *Ops) Open(pid int, name string) defs.Err { return o.Controller.Open(pid) }
func (o *Ops) Close(pid int) defs.Err             { return o.Controller.Close(pid) }

func (o *Ops) Read(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	if err := o.Controller.Read(pid); err != defs.EOK {
		return -1, err
	}
	return 0, defs.EOK
}

// Write expects a 4-byte little-endian frequency in Hz, matching
// rtc_write's int-sized argument.
func (o *Ops) Write(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	if len(buf) != 4 {
		return -1, defs.EINVAL
	}
	freq := util.Readn(buf, 4, 0)
	if err := o.Controller.SetFrequency(pid, freq); err != defs.EOK {
		return -1, err
	}
	return len(buf), defs.EOK
}
