// Package syscall implements the twelve-call ABI every user process
// traps into through vector 0x80: halt, execute, read, write, open,
// close, getargs, vidmap, set_handler, sigreturn, create and delete.
//
// Each handler here takes typed Go arguments (a []byte buffer, a
// string name) rather than the three raw uint32 registers the
// reference ABI passes, since this kernel core never loads real user
// memory behind a raw pointer: the register-width marshalling is
// exactly the assembly-adjacent boundary this hosted rework isolates
// away, leaving the logical operation itself as ordinary typed code.
// A caller wiring this onto internal/idt's register-width
// SyscallFunc only needs to translate a uintptr/length pair into a
// []byte slice at that one boundary.
package syscall

import (
	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/fdops"
	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
	"github.com/EscapistArcadia/Illinix391/internal/limits"
	"github.com/EscapistArcadia/Illinix391/internal/paging"
	"github.com/EscapistArcadia/Illinix391/internal/proc"
)

// Table binds the twelve syscall handlers to a scheduler; every
// method operates on whichever pid the caller names (normally
// sched.CurrentPid(), but tests may pass any pid directly).
type Table struct {
	sched *proc.Scheduler
}

// New returns a Table dispatching onto sched.
func New(sched *proc.Scheduler) *Table {
	return &Table{sched: sched}
}

// Halt implements halt(status): only the low byte of status is kept,
// matching the reference ABI's al-sized return value.
func (t *Table) Halt(pid int, status uint8) defs.Err {
	return t.sched.Halt(pid, int32(status))
}

// Execute implements execute(command): parse, validate, load, and
// install the named program as pid's terminal's new leaf process.
func (t *Table) Execute(pid int, command string) (int32, defs.Err) {
	child, err := t.sched.Execute(pid, command)
	if err != defs.EOK {
		return -1, err
	}
	return int32(child), defs.EOK
}

// Read implements read(fd, buf): dispatched to fd's ops vtable with
// the descriptor's own inode and file position, which it advances by
// however many bytes the operation actually returns.
func (t *Table) Read(pid int, fd int, buf []byte) (int32, defs.Err) {
	pcb := t.sched.PCB(pid)
	entry, ok := pcb.Files.Get(fd)
	if !ok {
		return -1, defs.EBADF
	}
	n, err := entry.Ops.Read(pid, entry.Inode, entry.FilePos, buf)
	if err != defs.EOK {
		return -1, err
	}
	entry.FilePos += uint32(n)
	return int32(n), defs.EOK
}

// Write implements write(fd, buf).
func (t *Table) Write(pid int, fd int, buf []byte) (int32, defs.Err) {
	pcb := t.sched.PCB(pid)
	entry, ok := pcb.Files.Get(fd)
	if !ok {
		return -1, defs.EBADF
	}
	n, err := entry.Ops.Write(pid, entry.Inode, entry.FilePos, buf)
	if err != defs.EOK {
		return -1, err
	}
	entry.FilePos += uint32(n)
	return int32(n), defs.EOK
}

// Open implements open(name): looks the name up, picks the ops
// vtable by dentry type, and allocates the lowest free fd in
// [FirstUserFd, MaxOpenFiles).
func (t *Table) Open(pid int, name string) (int32, defs.Err) {
	dentry, ferr := t.sched.FS().ReadDentryByName(name)
	if ferr != nil {
		return -1, defs.ENOENT
	}

	var ops fdops.Ops
	switch dentry.Type {
	case fsimg.TypeRTC:
		ops = t.sched.RTCOps()
	case fsimg.TypeDir:
		ops = t.sched.DirOps()
	default:
		ops = t.sched.FileOps()
	}

	pcb := t.sched.PCB(pid)
	if err := ops.Open(pid, name); err != defs.EOK {
		return -1, err
	}
	fdNum, err := pcb.Files.Alloc(ops, dentry.InodeNum)
	if err != defs.EOK {
		return -1, err
	}
	return int32(fdNum), defs.EOK
}

// Close implements close(fd): fds 0/1 may never be closed this way,
// matching fd.Table.Free's own guard.
func (t *Table) Close(pid int, fd int) defs.Err {
	pcb := t.sched.PCB(pid)
	entry, ok := pcb.Files.Get(fd)
	if !ok {
		return defs.EBADF
	}
	entry.Ops.Close(pid)
	return pcb.Files.Free(fd)
}

// Getargs implements getargs(buf, count): copies pid's captured
// argument string into buf, NUL-terminating within the count-byte
// bound rather than past it — the reference implementation's getargs
// copies argv into the caller's buffer without checking that the
// terminating NUL itself lands inside count, so a count equal to the
// argument's exact length silently overruns by one byte.
func (t *Table) Getargs(pid int, buf []byte, count int) defs.Err {
	if count <= 0 || count > len(buf) {
		return defs.EINVAL
	}
	pcb := t.sched.PCB(pid)
	if pcb.ArgvLen == 0 {
		return defs.ENOENT
	}
	if pcb.ArgvLen >= count {
		return defs.EINVAL
	}
	n := copy(buf[:count], pcb.Argv[:pcb.ArgvLen])
	buf[n] = 0
	return defs.EOK
}

// Vidmap implements vidmap(screenStartOut): validates the caller's
// output pointer lies inside its own user image, marks the PCB's
// vidmap flag and the shared video PTE present, and reports the fixed
// virtual address user code should dereference to reach the VGA page.
func (t *Table) Vidmap(pid int, screenStartVA uint32) (uint32, defs.Err) {
	if !paging.TranslateUser(screenStartVA, 4) {
		return 0, defs.EFAULT
	}
	pcb := t.sched.PCB(pid)
	pcb.Vidmap = true
	if pid == t.sched.CurrentPid() {
		t.sched.Dir().SetVidmap(true)
	}
	mapped := uint32(limits.VidmapPDE)<<22 | uint32(limits.VidmapPTE)<<12
	return mapped, defs.EOK
}

// SetHandler and Sigreturn are unimplemented signal-handling stubs:
// the reference kernel ships them returning -1 unconditionally since
// signal delivery was never wired up, a limitation this kernel
// preserves rather than invents support for.
func (t *Table) SetHandler(pid int, signum int32, handlerAddr uint32) (int32, defs.Err) {
	return -1, defs.EINVAL
}

func (t *Table) Sigreturn(pid int) (int32, defs.Err) {
	return -1, defs.EINVAL
}

// Create implements create(name).
func (t *Table) Create(pid int, name string) defs.Err {
	if len(name) == 0 || len(name) > fsimg.NameLen {
		return defs.ENAMETOOLONG
	}
	if _, err := t.sched.FS().ReadDentryByName(name); err == nil {
		return defs.EINVAL
	}
	if err := t.sched.FS().Create(name); err != nil {
		if err == fsimg.ErrBusy {
			return defs.EBUSY
		}
		return defs.ENOMEM
	}
	return defs.EOK
}

// Delete implements delete(name).
func (t *Table) Delete(pid int, name string) defs.Err {
	if err := t.sched.FS().Delete(name); err != nil {
		if err == fsimg.ErrBusy {
			return defs.EBUSY
		}
		return defs.ENOENT
	}
	return defs.EOK
}
