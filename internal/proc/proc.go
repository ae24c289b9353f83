// Package proc owns the PCB pool and the round-robin scheduler that
// ticks it: three fixed terminal-root slots plus three descendant
// slots, and the eight-step context switch the PIT handler drives.
//
// The reference kernel recovers "the current PCB" from ESP by masking
// off the low bits of the kernel stack pointer, since every PCB lives
// at the top of its own 8KiB kernel stack. That trick has no Go
// equivalent (there is no raw stack pointer to mask), so this package
// tracks "current" explicitly instead: Scheduler.termLeaf[activeTerm]
// names the pid now owning the CPU, which is exactly the value ESP
// masking would have produced.
package proc

import (
	"github.com/EscapistArcadia/Illinix391/internal/accnt"
	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/fd"
	"github.com/EscapistArcadia/Illinix391/internal/fdops"
	"github.com/EscapistArcadia/Illinix391/internal/fs"
	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
	"github.com/EscapistArcadia/Illinix391/internal/kbd"
	"github.com/EscapistArcadia/Illinix391/internal/limits"
	"github.com/EscapistArcadia/Illinix391/internal/paging"
	"github.com/EscapistArcadia/Illinix391/internal/rtc"
	"github.com/EscapistArcadia/Illinix391/internal/ustr"
	"github.com/EscapistArcadia/Illinix391/internal/vga"
)

// PCB is one process control block: pids 0..TerminalCount-1 are the
// fixed terminal-root shells, pids TerminalCount..MaxProcess-1 are
// ordinary descendants allocated by execute.
type PCB struct {
	Present           bool
	Pid               int
	HasParent         bool
	ParentPid         int
	TermID            int
	Vidmap            bool
	ExceptionOccurred bool

	Argv    [limits.MaxArgLen]byte
	ArgvLen int

	Files fd.Table

	// ESP0 is the kernel-stack top this PCB's TSS entry points at
	// while its process runs in user mode; the scheduler copies it
	// into Scheduler.tssESP0 on every switch.
	ESP0 uint32

	// LastExecStatus records the value a child's halt() most
	// recently reported to this PCB, standing in for execute()'s
	// normal "return value once the child halts" path: this hosted
	// kernel has no suspended user-mode call frame to resume into, so
	// a test (or a future instruction-level front end) reads this
	// field instead of blocking on execute's return.
	LastExecStatus int32
}

// termStdin/termStdout adapt the per-terminal keyboard line and VGA
// console to fdops.Ops, so fd 0/1 dispatch through the same boundary
// as every other open file.
type termStdin struct{ sched *Scheduler }
type termStdout struct{ sched *Scheduler }

func (t *termStdin) Open(pid int, name string) defs.Err { return defs.EOK }
func (t *termStdin) Close(pid int) defs.Err             { return defs.EOK }
func (t *termStdin) Write(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	return -1, defs.EINVAL
}

// Read implements terminal_read's arm/spin/collect protocol without a
// literal busy-wait: the first call arms the line and reports EBUSY;
// Enter (serviced by the keyboard interrupt handler, not this call)
// clears InProgress; the next call observes that and copies the
// completed line, then re-arms for the following read exactly as the
// reference terminal_read does at its own tail.
func (t *termStdin) Read(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	pcb := t.sched.pcb(pid)
	line := t.sched.kbd.Line(pcb.TermID)

	if !line.Armed {
		line.Armed = true
		line.InProgress = true
		return -1, defs.EBUSY
	}
	if line.InProgress {
		return -1, defs.EBUSY
	}

	n := copy(buf, line.Buf[:line.Length])
	if n < len(buf) {
		buf[n] = 0
	}
	line.Length = 0
	line.Armed = false
	line.InProgress = true
	return n, defs.EOK
}

func (t *termStdout) Open(pid int, name string) defs.Err { return defs.EOK }
func (t *termStdout) Close(pid int) defs.Err             { return defs.EOK }
func (t *termStdout) Read(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	return -1, defs.EINVAL
}

// Write echoes buf to the caller's terminal and clears its pending
// input line, matching terminal_write's end-of-call reset.
func (t *termStdout) Write(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	pcb := t.sched.pcb(pid)
	n := t.sched.console.Write(pcb.TermID, buf, len(buf))
	line := t.sched.kbd.Line(pcb.TermID)
	line.Length = 0
	return n, defs.EOK
}

// Scheduler owns the PCB pool, the three terminals' currently
// scheduled leaf pid, and the devices a context switch touches.
type Scheduler struct {
	pcbs     [limits.MaxProcess]PCB
	termLeaf [limits.TerminalCount]int
	activeTerm int
	tssESP0  uint32

	dir     *paging.Directory
	console *vga.Console
	kbd     *kbd.Keyboard
	rtcCtl  *rtc.Controller
	image   *fsimg.Image

	fileOps  *fs.FileOps
	dirOps   *fs.DirOps
	rtcOps   *rtc.Ops
	stdinOps fdops.Ops
	stdoutOps fdops.Ops

	// accnt is optional scheduling-accounting storage; a nil value
	// (the default) costs Tick nothing.
	accnt *accnt.Recorder
}

// SetAccounting installs (or clears, with nil) the recorder Tick
// reports every context switch into.
func (s *Scheduler) SetAccounting(r *accnt.Recorder) { s.accnt = r }

// New wires a Scheduler to the device and file-system handles it must
// drive every context switch and syscall. Call InitTerminals before
// the first Tick.
func New(dir *paging.Directory, console *vga.Console, keyboard *kbd.Keyboard, rtcCtl *rtc.Controller, image *fsimg.Image) *Scheduler {
	s := &Scheduler{
		dir:     dir,
		console: console,
		kbd:     keyboard,
		rtcCtl:  rtcCtl,
		image:   image,
		fileOps: &fs.FileOps{Image: image},
		dirOps:  &fs.DirOps{Image: image},
		rtcOps:  &rtc.Ops{Controller: rtcCtl},
	}
	s.stdinOps = &termStdin{sched: s}
	s.stdoutOps = &termStdout{sched: s}
	for i := range s.pcbs {
		s.pcbs[i].Pid = i
	}
	for i := range s.termLeaf {
		s.termLeaf[i] = -1
	}
	image.SetOpenChecker(s)
	return s
}

// InodeOpen reports whether any present PCB's file-descriptor table
// still holds a slot naming inum, the refusal check fsimg.Image.Create
// and Delete consult before mutating an inode out from under a reader.
func (s *Scheduler) InodeOpen(inum uint32) bool {
	for i := range s.pcbs {
		if !s.pcbs[i].Present {
			continue
		}
		for _, e := range s.pcbs[i].Files.Entries {
			if e.Present && e.Inode == inum {
				return true
			}
		}
	}
	return false
}

func (s *Scheduler) pcb(pid int) *PCB { return &s.pcbs[pid] }

// CurrentPid reports the pid now owning the CPU: the active
// terminal's leaf process.
func (s *Scheduler) CurrentPid() int { return s.termLeaf[s.activeTerm] }

// Current returns the PCB now owning the CPU.
func (s *Scheduler) Current() *PCB { return s.pcb(s.CurrentPid()) }

// PCB exposes the PCB for pid, for the syscall layer and tests. It
// panics if pid is out of range, the same contract every other
// pid-indexed lookup in this kernel relies on.
func (s *Scheduler) PCB(pid int) *PCB { return s.pcb(pid) }

// Dir, Console, Keyboard, FS expose the devices this scheduler wires,
// for the syscall layer to share instead of re-deriving them.
func (s *Scheduler) Dir() *paging.Directory { return s.dir }
func (s *Scheduler) Console() *vga.Console  { return s.console }
func (s *Scheduler) Keyboard() *kbd.Keyboard { return s.kbd }
func (s *Scheduler) FS() *fsimg.Image        { return s.image }

// StdinOps/StdoutOps/RTCOps/FileOps/DirOps expose the shared vtables
// open() dispatches to by dentry/descriptor type.
func (s *Scheduler) StdinOps() fdops.Ops  { return s.stdinOps }
func (s *Scheduler) StdoutOps() fdops.Ops { return s.stdoutOps }
func (s *Scheduler) RTCOps() fdops.Ops    { return s.rtcOps }
func (s *Scheduler) FileOps() fdops.Ops   { return s.fileOps }
func (s *Scheduler) DirOps() fdops.Ops    { return s.dirOps }

func espTop(pid int) uint32 {
	return limits.KernelStackTop - uint32(pid+1)*limits.KernelStackSize
}

// loadRootShell (re)installs a fresh "shell" process into terminal
// term's root pid slot, used both at boot and whenever a root shell
// halts and must be immediately re-executed, never allowed to die.
func (s *Scheduler) loadRootShell(term int) defs.Err {
	if _, err := s.image.ReadDentryByName("shell"); err != nil {
		return defs.ENOENT
	}
	pcb := s.pcb(term)
	*pcb = PCB{Pid: term}
	pcb.Present = true
	pcb.HasParent = false
	pcb.ParentPid = int(defs.NoPid)
	pcb.TermID = term
	pcb.Files.Reset()
	pcb.Files.InstallStd(s.stdinOps, s.stdoutOps)
	pcb.ESP0 = espTop(term)

	s.termLeaf[term] = term
	s.dir.ActivateUser(term)
	return defs.EOK
}

// InitTerminals loads a root shell into every virtual terminal, the
// way the boot sequence spawns the three initial shells before the
// scheduler's first tick, lowest-numbered terminal last so it ends up
// both active and shown.
func (s *Scheduler) InitTerminals() defs.Err {
	for term := limits.TerminalCount - 1; term >= 0; term-- {
		if err := s.loadRootShell(term); err != defs.EOK {
			return err
		}
	}
	s.activeTerm = 0
	s.tssESP0 = s.pcb(0).ESP0
	s.dir.ActivateUser(0)
	s.dir.SetVidmap(s.pcb(0).Vidmap)
	return defs.EOK
}

func (s *Scheduler) freeSlot() int {
	for i := limits.TerminalCount; i < limits.MaxProcess; i++ {
		if !s.pcbs[i].Present {
			return i
		}
	}
	return -1
}

// Execute validates the named executable, allocates a PCB, wires its
// file descriptor table and argument buffer, repoints the user image
// page directory entry at its frame, and installs it as its
// terminal's new leaf process. It does not itself run any
// instructions: this kernel core has no CPU to run the loaded image
// on, so "running" is simply "present, scheduled, and waiting for its
// own syscalls/halt."
func (s *Scheduler) Execute(pid int, cmdline string) (int, defs.Err) {
	name, arg := ustr.SplitCommand(cmdline, limits.MaxCommandLen, limits.MaxArgLen)
	if name == "" {
		return -1, defs.EINVAL
	}
	dentry, err := s.image.ReadDentryByName(name)
	if err != nil || dentry.Type != fsimg.TypeReg {
		return -1, defs.ENOENT
	}
	var magic [4]byte
	n, rerr := s.image.ReadData(dentry.InodeNum, 0, magic[:])
	if rerr != nil || n < 4 || magic != defs.ExecMagic {
		return -1, defs.ENOENT
	}

	slot := s.freeSlot()
	if slot < 0 {
		return -1, defs.ENOMEM
	}

	parent := s.pcb(pid)
	child := s.pcb(slot)
	*child = PCB{Pid: slot}
	child.Present = true
	child.HasParent = true
	child.ParentPid = pid
	child.TermID = parent.TermID
	child.Files.Reset()
	child.Files.InstallStd(s.stdinOps, s.stdoutOps)
	child.ArgvLen = copy(child.Argv[:], arg)
	child.ESP0 = espTop(slot)

	s.dir.ActivateUser(slot)
	s.termLeaf[child.TermID] = slot
	if child.TermID == s.activeTerm {
		s.tssESP0 = child.ESP0
	}
	return slot, defs.EOK
}

// Halt tears down pid's open descriptors and, if it has a parent,
// hands control back to it recording status (substituting 256 when
// ExceptionOccurred is set, per the exception-triggered halt path).
// A terminal-root shell never actually dies: it is immediately
// reloaded fresh instead, matching "halt never returns to nothing".
func (s *Scheduler) Halt(pid int, status int32) defs.Err {
	pcb := s.pcb(pid)
	for f := limits.FirstUserFd; f < limits.MaxOpenFiles; f++ {
		if entry, ok := pcb.Files.Get(f); ok {
			entry.Ops.Close(pid)
			pcb.Files.Free(f)
		}
	}

	term := pcb.TermID
	if !pcb.HasParent {
		return s.loadRootShell(term)
	}

	reported := status
	if pcb.ExceptionOccurred {
		reported = 256
	}
	parent := s.pcb(pcb.ParentPid)
	parent.LastExecStatus = reported

	pcb.Present = false
	s.termLeaf[term] = pcb.ParentPid
	s.dir.ActivateUser(pcb.ParentPid)
	if term == s.activeTerm {
		s.tssESP0 = parent.ESP0
	}
	return defs.EOK
}

// Tick runs one PIT-driven context switch: round-robin to the next
// terminal, repoint the user image PDE and vidmap PTE at its leaf
// process, and if that terminal's line editor has a pending Ctrl+C,
// halt it with status 6 instead of letting it resume. Per-terminal
// video output needs no explicit repointing step here: each terminal
// already owns an independent VGA backing buffer (internal/vga), so
// there is no shared page to retarget.
func (s *Scheduler) Tick() {
	cur := s.pcb(s.CurrentPid())
	cur.ESP0 = s.tssESP0

	next := (s.activeTerm + 1) % limits.TerminalCount
	s.console.SetActiveTerm(next)
	nextPid := s.termLeaf[next]
	if nextPid < 0 {
		s.activeTerm = next
		return
	}
	nextPCB := s.pcb(nextPid)

	s.dir.ActivateUser(nextPid)
	s.dir.SetVidmap(nextPCB.Vidmap)
	s.tssESP0 = nextPCB.ESP0
	s.activeTerm = next
	s.accnt.Tick(nextPid, next)

	line := s.kbd.Line(next)
	if line.ToBeHalt {
		line.ToBeHalt = false
		s.Halt(nextPid, 6)
	}
}

// ESP0 reports the scheduler's current TSS esp0 value, for the
// tss.esp0 == current_pcb.esp0 invariant.
func (s *Scheduler) ESP0() uint32 { return s.tssESP0 }
