package proc

import (
	"testing"

	"github.com/EscapistArcadia/Illinix391/internal/accnt"
	"github.com/EscapistArcadia/Illinix391/internal/ata"
	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
	"github.com/EscapistArcadia/Illinix391/internal/kbd"
	"github.com/EscapistArcadia/Illinix391/internal/limits"
	"github.com/EscapistArcadia/Illinix391/internal/paging"
	"github.com/EscapistArcadia/Illinix391/internal/pic"
	"github.com/EscapistArcadia/Illinix391/internal/rtc"
	"github.com/EscapistArcadia/Illinix391/internal/util"
	"github.com/EscapistArcadia/Illinix391/internal/vga"
)

type fakeBus struct{}

func (fakeBus) Inb(port uint16) uint8          { return 0 }
func (fakeBus) Outb(port uint16, val uint8)    {}
func (fakeBus) Inw(port uint16) uint16         { return 0 }
func (fakeBus) Outw(port uint16, val uint16)   {}

// buildImage lays out a boot block with a "shell" executable (dentry 0,
// inode 0) and a second regular file "hi" (dentry 1, inode 1) holding
// non-executable payload, enough to exercise execute's magic-number
// check both ways.
func buildImage(t *testing.T) *ata.Disk {
	t.Helper()
	const inodeCount = 2
	const dataBlockCount = 2
	image := make([]byte, fsimg.BlockSize*(1+inodeCount+dataBlockCount))

	boot := image[0:fsimg.BlockSize]
	util.Writen(boot, 4, 0, 2)
	util.Writen(boot, 4, 4, inodeCount)
	util.Writen(boot, 4, 8, dataBlockCount)

	d0 := boot[64 : 64+64]
	copy(d0[:fsimg.NameLen], "shell")
	util.Writen(d0, 4, 32, fsimg.TypeReg)
	util.Writen(d0, 4, 36, 0)

	d1 := boot[128 : 128+64]
	copy(d1[:fsimg.NameLen], "hi")
	util.Writen(d1, 4, 32, fsimg.TypeReg)
	util.Writen(d1, 4, 36, 1)

	inode0 := image[fsimg.BlockSize : 2*fsimg.BlockSize]
	payload0 := append([]byte{0x7F, 'E', 'L', 'F'}, "shell code"...)
	util.Writen(inode0, 4, 0, len(payload0))
	util.Writen(inode0, 4, 4, 0)

	inode1 := image[2*fsimg.BlockSize : 3*fsimg.BlockSize]
	payload1 := []byte("not an executable")
	util.Writen(inode1, 4, 0, len(payload1))
	util.Writen(inode1, 4, 4, 1)

	data0 := image[3*fsimg.BlockSize : 4*fsimg.BlockSize]
	copy(data0, payload0)
	data1 := image[4*fsimg.BlockSize : 5*fsimg.BlockSize]
	copy(data1, payload1)

	return ata.New(image)
}

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	disk := buildImage(t)
	img, err := fsimg.Mount(disk)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	bus := fakeBus{}
	p := pic.New(bus)
	console := vga.New()
	keyboard := kbd.New(bus, p, console)
	rtcCtl := rtc.New(bus, p)
	dir := paging.New()

	s := New(dir, console, keyboard, rtcCtl, img)
	if err := s.InitTerminals(); err != defs.EOK {
		t.Fatalf("InitTerminals: %v", err)
	}
	return s
}

func TestInitTerminalsInstallsThreeRootShells(t *testing.T) {
	s := newScheduler(t)
	for term := 0; term < limits.TerminalCount; term++ {
		pcb := s.PCB(term)
		if !pcb.Present || pcb.HasParent {
			t.Fatalf("terminal %d root pcb = %+v, want present root", term, pcb)
		}
		if s.termLeaf[term] != term {
			t.Fatalf("terminal %d leaf = %d, want %d", term, s.termLeaf[term], term)
		}
	}
	if s.CurrentPid() != 0 {
		t.Fatalf("CurrentPid = %d, want 0", s.CurrentPid())
	}
	if s.ESP0() != s.PCB(0).ESP0 {
		t.Fatalf("tss.esp0 = %#x, want current pcb's esp0 %#x", s.ESP0(), s.PCB(0).ESP0)
	}
}

func TestExecuteRejectsNonExecutableMagic(t *testing.T) {
	s := newScheduler(t)
	if _, err := s.Execute(0, "hi"); err != defs.ENOENT {
		t.Fatalf("Execute(hi) = %v, want ENOENT", err)
	}
}

func TestExecuteRejectsUnknownName(t *testing.T) {
	s := newScheduler(t)
	if _, err := s.Execute(0, "nope"); err != defs.ENOENT {
		t.Fatalf("Execute(nope) = %v, want ENOENT", err)
	}
}

func TestExecuteThenHaltReturnsStatusToParent(t *testing.T) {
	s := newScheduler(t)
	child, err := s.Execute(0, "shell arg1")
	if err != defs.EOK {
		t.Fatalf("Execute(shell): %v", err)
	}
	if child < limits.TerminalCount {
		t.Fatalf("child pid %d should be a descendant slot", child)
	}
	if s.termLeaf[0] != child {
		t.Fatalf("terminal 0 leaf = %d, want %d", s.termLeaf[0], child)
	}
	childPCB := s.PCB(child)
	if string(childPCB.Argv[:childPCB.ArgvLen]) != "arg1" {
		t.Fatalf("child argv = %q, want %q", childPCB.Argv[:childPCB.ArgvLen], "arg1")
	}

	if err := s.Halt(child, 7); err != defs.EOK {
		t.Fatalf("Halt: %v", err)
	}
	if s.PCB(child).Present {
		t.Fatal("halted child should no longer be present")
	}
	if s.termLeaf[0] != 0 {
		t.Fatalf("terminal 0 leaf after halt = %d, want back to root 0", s.termLeaf[0])
	}
	if s.PCB(0).LastExecStatus != 7 {
		t.Fatalf("parent LastExecStatus = %d, want 7", s.PCB(0).LastExecStatus)
	}
}

func TestHaltSubstitutes256OnException(t *testing.T) {
	s := newScheduler(t)
	child, _ := s.Execute(0, "shell")
	s.PCB(child).ExceptionOccurred = true
	s.Halt(child, 0)
	if s.PCB(0).LastExecStatus != 256 {
		t.Fatalf("LastExecStatus = %d, want 256 on exception", s.PCB(0).LastExecStatus)
	}
}

func TestHaltingTerminalRootReloadsFreshShell(t *testing.T) {
	s := newScheduler(t)
	root := s.PCB(0)
	root.Vidmap = true // mutate state that a fresh load must reset

	if err := s.Halt(0, 5); err != defs.EOK {
		t.Fatalf("Halt(root): %v", err)
	}
	if !s.PCB(0).Present || s.PCB(0).Vidmap {
		t.Fatalf("root shell after halt = %+v, want present and vidmap cleared", s.PCB(0))
	}
	if s.termLeaf[0] != 0 {
		t.Fatalf("terminal 0 leaf = %d, want 0", s.termLeaf[0])
	}
}

func TestTickRoundRobinsAcrossTerminals(t *testing.T) {
	s := newScheduler(t)
	if s.activeTerm != 0 {
		t.Fatalf("activeTerm = %d, want 0", s.activeTerm)
	}
	s.Tick()
	if s.activeTerm != 1 {
		t.Fatalf("after one Tick activeTerm = %d, want 1", s.activeTerm)
	}
	s.Tick()
	if s.activeTerm != 2 {
		t.Fatalf("after two Ticks activeTerm = %d, want 2", s.activeTerm)
	}
	s.Tick()
	if s.activeTerm != 0 {
		t.Fatalf("after three Ticks activeTerm = %d, want back to 0", s.activeTerm)
	}
	if s.ESP0() != s.PCB(s.CurrentPid()).ESP0 {
		t.Fatal("tss.esp0 must track the newly scheduled pcb's esp0")
	}
}

func TestTickHonorsPendingCtrlCHalt(t *testing.T) {
	s := newScheduler(t)
	s.kbd.Line(1).ToBeHalt = true

	s.Tick() // switches into terminal 1, observes ToBeHalt

	if s.kbd.Line(1).ToBeHalt {
		t.Fatal("ToBeHalt should be consumed by Tick")
	}
	if !s.PCB(1).Present {
		t.Fatal("terminal root shell must be reloaded, never left absent")
	}
}

func TestSingleRunnableProcessPerTerminal(t *testing.T) {
	s := newScheduler(t)
	child, _ := s.Execute(0, "shell")
	count := 0
	for pid := 0; pid < limits.MaxProcess; pid++ {
		if s.PCB(pid).Present && s.PCB(pid).TermID == 0 {
			count++
		}
	}
	if count != 2 { // the root and its one live descendant
		t.Fatalf("present pcbs on terminal 0 = %d, want 2", count)
	}
	if s.termLeaf[0] != child {
		t.Fatalf("only the deepest descendant should be the schedulable leaf")
	}
}

func TestTickReportsToAnInstalledRecorder(t *testing.T) {
	s := newScheduler(t)
	rec := accnt.New()
	s.SetAccounting(rec)

	s.Tick()
	s.Tick()

	found := false
	for _, sample := range rec.Snapshot() {
		if sample.Pid == 1 {
			found = true
			if sample.Ticks != 1 {
				t.Fatalf("pid 1 ticks = %d, want 1", sample.Ticks)
			}
		}
	}
	if !found {
		t.Fatal("expected an accounting sample for pid 1 after scheduling into terminal 1")
	}
}

func TestTickWithNoRecorderInstalledIsSafe(t *testing.T) {
	s := newScheduler(t)
	s.Tick() // accnt is nil; must not panic
}

func TestInodeOpenReflectsAnOpenFd(t *testing.T) {
	s := newScheduler(t)
	if s.InodeOpen(1) {
		t.Fatal("inode 1 should not be open before any open() call")
	}

	pcb := s.PCB(0)
	if _, err := pcb.Files.Alloc(s.FileOps(), 1); err != defs.EOK {
		t.Fatalf("Files.Alloc: %v", err)
	}
	if !s.InodeOpen(1) {
		t.Fatal("inode 1 should be open after a live fd references it")
	}

	if err := s.FS().Delete("hi"); err != fsimg.ErrBusy {
		t.Fatalf("Delete on an open inode = %v, want fsimg.ErrBusy", err)
	}
}
