// Package idt models the interrupt descriptor table's logical
// contract: the 20 CPU-exception vectors, the hardware-interrupt
// vectors for PIT/keyboard/RTC, and the single 0x80 syscall trap gate,
// each dispatched through a registered handler rather than a literal
// 256-entry descriptor array, since this kernel runs hosted rather
// than installing a real IDTR.
package idt

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/klog"
)

// Vector numbers for the three non-exception gates this kernel installs.
const (
	VectorPIT  = 0x20
	VectorKbd  = 0x21
	VectorRTC  = 0x28
	VectorCall = 0x80
)

// exceptionMessages is indexed by vector 0x00..0x13, copied from the
// reference handler's printf strings.
var exceptionMessages = [...]string{
	0x00: "Divide By Zero",
	0x01: "Debug",
	0x02: "Non-maskable interrupt",
	0x03: "Breakpoint",
	0x04: "Overflow",
	0x05: "Bound Range Exceeded",
	0x06: "Invalid Opcode",
	0x07: "Device Not Available",
	0x08: "Double Fault",
	0x09: "Coprocessor Segment Overrun",
	0x0A: "Invalid TSS",
	0x0B: "Segment Not Present",
	0x0C: "Stack-Segment Fault",
	0x0D: "General Protection",
	0x0E: "Page Fault",
	0x0F: "Reserved",
	0x10: "x87 FPU Floating-Point Error",
	0x11: "Alignment Check",
	0x12: "Machine Check",
	0x13: "SIMD Floating-Point",
}

// ExceptionCount is the number of CPU-exception vectors this IDT
// installs (0x00..0x13 inclusive).
const ExceptionCount = len(exceptionMessages)

// SyscallFunc services one syscall number with up to three
// register-passed arguments, returning the accumulator value.
type SyscallFunc func(a1, a2, a3 uint32) (int32, defs.Err)

// Dispatcher is the kernel's interrupt/exception/syscall entry point.
// It holds no hardware IDTR state; it is the logical table a single
// event loop consults to route one event at a time.
type Dispatcher struct {
	log      klog.Logger
	irq      map[int]func()
	syscalls map[defs.Syscall]SyscallFunc

	// OnException is invoked after an exception is logged; the
	// reference kernel's halt(255)-on-exception behavior lives one
	// layer up (internal/proc), wired in here by the caller so idt
	// itself has no dependency on the process table.
	OnException func(vector int)
}

// New returns an empty dispatcher; RegisterIRQ/RegisterSyscall install
// handlers before the event loop starts delivering interrupts.
func New(log klog.Logger) *Dispatcher {
	if log == nil {
		log = klog.Nop()
	}
	return &Dispatcher{
		log:      log,
		irq:      make(map[int]func()),
		syscalls: make(map[defs.Syscall]SyscallFunc),
	}
}

// RegisterIRQ installs the handler invoked for a hardware-interrupt vector.
func (d *Dispatcher) RegisterIRQ(vector int, handler func()) {
	d.irq[vector] = handler
}

// RegisterSyscall installs the handler for one syscall number.
func (d *Dispatcher) RegisterSyscall(num defs.Syscall, fn SyscallFunc) {
	d.syscalls[num] = fn
}

// DispatchIRQ routes a hardware-interrupt vector to its registered
// handler. Unregistered vectors are silently ignored, matching an
// IDT entry left non-present.
func (d *Dispatcher) DispatchIRQ(vector int) {
	if h, ok := d.irq[vector]; ok {
		h()
	}
}

// RaiseException logs the human-readable message for a CPU exception
// and, when the instruction bytes at the faulting EIP are available,
// decodes and appends its mnemonic. faultAddr is only meaningful for
// vector 0x0E (Page Fault), where it is CR2. It then invokes
// OnException, which substitutes the process-level halt(255) behavior.
func (d *Dispatcher) RaiseException(vector int, faultAddr uint32, opcodeBytes []byte) {
	msg := "Reserved"
	if vector >= 0 && vector < ExceptionCount {
		msg = exceptionMessages[vector]
	}

	fields := []interface{}{"vector", fmt.Sprintf("0x%02X", vector), "message", msg}
	if vector == 0x0E {
		fields = append(fields, "addr", fmt.Sprintf("0x%08X", faultAddr))
	}
	if len(opcodeBytes) > 0 {
		if inst, err := x86asm.Decode(opcodeBytes, 32); err == nil {
			fields = append(fields, "opcode", inst.String())
		}
	}
	d.log.Errorw("cpu exception", fields...)

	if d.OnException != nil {
		d.OnException(vector)
	}
}

// Syscall validates num is in [SyscallMin, SyscallMax] and dispatches
// to its registered handler, matching the reference wrapper's
// validate-then-index-then-call sequence.
func (d *Dispatcher) Syscall(num defs.Syscall, a1, a2, a3 uint32) (int32, defs.Err) {
	if num < defs.SyscallMin || num > defs.SyscallMax {
		return -1, defs.EINVAL
	}
	fn, ok := d.syscalls[num]
	if !ok {
		return -1, defs.EINVAL
	}
	return fn(a1, a2, a3)
}
