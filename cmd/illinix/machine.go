package main

import (
	"fmt"
	"os"

	"github.com/EscapistArcadia/Illinix391/internal/ata"
	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
	"github.com/EscapistArcadia/Illinix391/internal/idt"
	"github.com/EscapistArcadia/Illinix391/internal/ioport"
	"github.com/EscapistArcadia/Illinix391/internal/kbd"
	"github.com/EscapistArcadia/Illinix391/internal/klog"
	"github.com/EscapistArcadia/Illinix391/internal/kmetrics"
	"github.com/EscapistArcadia/Illinix391/internal/limits"
	"github.com/EscapistArcadia/Illinix391/internal/paging"
	"github.com/EscapistArcadia/Illinix391/internal/pic"
	"github.com/EscapistArcadia/Illinix391/internal/pit"
	"github.com/EscapistArcadia/Illinix391/internal/proc"
	"github.com/EscapistArcadia/Illinix391/internal/rtc"
	"github.com/EscapistArcadia/Illinix391/internal/vga"
)

// machine bundles every simulated device plus the scheduler and
// interrupt dispatcher that sit on top of them, the composition root
// a running illinix process assembles exactly once.
type machine struct {
	disk     *ata.Disk
	image    *fsimg.Image
	bus      *kbdBus
	pic      *pic.PIC
	pitDev   *pit.PIT
	rtcCtl   *rtc.Controller
	console  *vga.Console
	keyboard *kbd.Keyboard
	dir      *paging.Directory
	sched    *proc.Scheduler
	dispatch *idt.Dispatcher
	metrics  *kmetrics.Registry
	log      klog.Logger
}

// newMachine loads diskPath into memory and wires every device onto a
// single simulated bus, matching the boot-time device init order the
// reference kernel's kernel.c follows: PIC first, then PIT/RTC/
// keyboard, then paging and the process table.
//
// A syscall trap gate is deliberately not registered on the
// dispatcher: nothing in this hosted build ever decodes or executes a
// loaded program's instructions, so no int 0x80 is ever actually
// raised. internal/syscall's Table is the syscall surface's home and
// is exercised directly by its own tests instead.
func newMachine(diskPath string, log klog.Logger) (*machine, error) {
	raw, err := os.ReadFile(diskPath)
	if err != nil {
		return nil, fmt.Errorf("reading disk image: %w", err)
	}

	disk := ata.New(raw)
	bus := &kbdBus{SimBus: ioport.NewSimBus()}
	bus.Attach(disk)

	p := pic.New(bus)
	pitDev := pit.New(bus, p, limits.PITFrequencyHz)
	rtcCtl := rtc.New(bus, p)
	console := vga.New()
	keyboard := kbd.New(bus, p, console)

	image, err := fsimg.Mount(disk)
	if err != nil {
		return nil, fmt.Errorf("mounting file system: %w", err)
	}

	dir := paging.New()
	sched := proc.New(dir, console, keyboard, rtcCtl, image)
	if err := sched.InitTerminals(); err != defs.EOK {
		return nil, fmt.Errorf("loading terminal shells: %v", err)
	}

	dispatch := idt.New(log)
	dispatch.RegisterIRQ(idt.VectorPIT, func() {
		pitDev.EOI()
		sched.Tick()
	})
	dispatch.RegisterIRQ(idt.VectorKbd, keyboard.Handler)
	dispatch.RegisterIRQ(idt.VectorRTC, rtcCtl.Handler)
	dispatch.OnException = func(vector int) {
		sched.Halt(sched.CurrentPid(), 255)
	}

	return &machine{
		disk:     disk,
		image:    image,
		bus:      bus,
		pic:      p,
		pitDev:   pitDev,
		rtcCtl:   rtcCtl,
		console:  console,
		keyboard: keyboard,
		dir:      dir,
		sched:    sched,
		dispatch: dispatch,
		metrics:  kmetrics.New(),
		log:      log,
	}, nil
}

// kbdBus wraps a SimBus and answers an Inb of the keyboard data port
// with pending instead of a device Registered on the bus (there is no
// hardware behind 0x60 to answer it otherwise). Nothing in this
// package sets pending; host keystrokes reach the keyboard through
// Keyboard.InjectASCII, not through this port.
type kbdBus struct {
	*ioport.SimBus
	pending uint8
}

func (b *kbdBus) Inb(port uint16) uint8 {
	if port == kbdDataPort {
		return b.pending
	}
	return b.SimBus.Inb(port)
}

const kbdDataPort = 0x60
