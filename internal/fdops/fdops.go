// Package fdops defines the capability-dispatched file-operations
// vtable every open file descriptor carries: the four-function
// {open, close, read, write} boundary the kernel's three file types
// (RTC, directory, regular file) and the terminal stdin/stdout
// descriptors all implement identically from the syscall layer's point
// of view.
package fdops

import "github.com/EscapistArcadia/Illinix391/internal/defs"

// Ops is implemented once per file type and shared by every open fd of
// that type; the fd table (not the Ops value) owns per-descriptor state
// such as the inode number and file position, so every call is handed
// whichever of those the operation needs.
type Ops interface {
	Open(pid int, name string) defs.Err
	Close(pid int) defs.Err
	Read(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err)
	Write(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err)
}

// Null is the permission-denied vtable used for descriptor slots that
// should never be reachable from a live process (e.g. a closed fd),
// grounded on the reference kernel's null_ops table.
var Null Ops = nullOps{}

type nullOps struct{}

func (nullOps) Open(int, string) defs.Err                        { return defs.EINVAL }
func (nullOps) Close(int) defs.Err                               { return defs.EINVAL }
func (nullOps) Read(int, uint32, uint32, []byte) (int, defs.Err)  { return -1, defs.EINVAL }
func (nullOps) Write(int, uint32, uint32, []byte) (int, defs.Err) { return -1, defs.EINVAL }
