package idt

import (
	"testing"

	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/klog"
)

func TestSyscallRejectsOutOfRangeNumber(t *testing.T) {
	d := New(klog.Nop())
	_, err := d.Syscall(0, 0, 0, 0)
	if err != defs.EINVAL {
		t.Fatalf("Syscall(0) = %v, want EINVAL", err)
	}
	_, err = d.Syscall(defs.SyscallMax+1, 0, 0, 0)
	if err != defs.EINVAL {
		t.Fatalf("Syscall(max+1) = %v, want EINVAL", err)
	}
}

func TestSyscallDispatchesToRegisteredHandler(t *testing.T) {
	d := New(klog.Nop())
	d.RegisterSyscall(defs.SysHalt, func(a1, a2, a3 uint32) (int32, defs.Err) {
		return int32(a1), defs.EOK
	})
	got, err := d.Syscall(defs.SysHalt, 42, 0, 0)
	if err != defs.EOK || got != 42 {
		t.Fatalf("Syscall(SysHalt, 42) = (%d, %v), want (42, EOK)", got, err)
	}
}

func TestDispatchIRQInvokesRegisteredHandler(t *testing.T) {
	d := New(klog.Nop())
	fired := false
	d.RegisterIRQ(VectorPIT, func() { fired = true })
	d.DispatchIRQ(VectorPIT)
	if !fired {
		t.Fatal("DispatchIRQ should invoke the registered handler")
	}
}

func TestDispatchIRQUnregisteredIsNoop(t *testing.T) {
	d := New(klog.Nop())
	d.DispatchIRQ(VectorKbd) // must not panic
}

func TestRaiseExceptionInvokesOnException(t *testing.T) {
	d := New(klog.Nop())
	var got int = -1
	d.OnException = func(vector int) { got = vector }
	d.RaiseException(0x0E, 0xDEADBEEF, nil)
	if got != 0x0E {
		t.Fatalf("OnException vector = %d, want 0x0E", got)
	}
}
