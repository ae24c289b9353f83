// Package fd implements the per-process file-descriptor table: eight
// slots, fd 0/1 reserved for the terminal, fds 2..7 allocated by open.
package fd

import (
	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/fdops"
	"github.com/EscapistArcadia/Illinix391/internal/limits"
)

// Entry is one file-descriptor table slot.
type Entry struct {
	Ops     fdops.Ops
	Inode   uint32
	FilePos uint32
	Present bool
}

// Table is a fixed-size file-descriptor table, one per PCB.
type Table struct {
	Entries [limits.MaxOpenFiles]Entry
}

// Reset clears every slot, used when a PCB is recycled.
func (t *Table) Reset() {
	for i := range t.Entries {
		t.Entries[i] = Entry{}
	}
}

// Alloc installs ops/inode into the lowest free slot in
// [limits.FirstUserFd, limits.MaxOpenFiles), matching open()'s
// fd-allocation order.
func (t *Table) Alloc(ops fdops.Ops, inode uint32) (int, defs.Err) {
	for i := limits.FirstUserFd; i < limits.MaxOpenFiles; i++ {
		if !t.Entries[i].Present {
			t.Entries[i] = Entry{Ops: ops, Inode: inode, Present: true}
			return i, defs.EOK
		}
	}
	return -1, defs.EMFILE
}

// Free closes and clears fd. Fds 0 and 1 (stdin/stdout) may never be
// closed through this path.
func (t *Table) Free(fd int) defs.Err {
	if fd < limits.FirstUserFd || fd >= limits.MaxOpenFiles || !t.Entries[fd].Present {
		return defs.EBADF
	}
	t.Entries[fd] = Entry{}
	return defs.EOK
}

// Get returns the entry at fd and whether it is a valid, open slot.
func (t *Table) Get(fd int) (*Entry, bool) {
	if fd < 0 || fd >= limits.MaxOpenFiles || !t.Entries[fd].Present {
		return nil, false
	}
	return &t.Entries[fd], true
}

// InstallStd wires fd 0 and 1 (stdin/stdout) to ops, called once by
// execute for every new process.
func (t *Table) InstallStd(stdin, stdout fdops.Ops) {
	t.Entries[limits.StdinFd] = Entry{Ops: stdin, Present: true}
	t.Entries[limits.StdoutFd] = Entry{Ops: stdout, Present: true}
}
