// Package fs implements the directory and regular-file operations
// vtables over a mounted image, the capability-dispatch boundary the
// syscall layer's open/read/write/close go through.
package fs

import (
	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
)

// FileOps backs regular files (dentry type 2): read is a pass-through
// to the image's read_data, write is unimplemented (the reference file
// system is read-mostly outside of create/delete).
type FileOps struct {
	Image *fsimg.Image
}

func (f *FileOps) Open(pid int, name string) defs.Err { return defs.EOK }
func (f *FileOps) Close(pid int) defs.Err              { return defs.EOK }

func (f *FileOps) Read(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	n, err := f.Image.ReadData(inode, pos, buf)
	if err != nil {
		return -1, defs.EINVAL
	}
	return n, defs.EOK
}

func (f *FileOps) Write(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	return -1, defs.EINVAL
}

// DirOps backs directories (dentry type 1). dir_read in the reference
// kernel keeps a single module-scoped cursor shared by every open
// directory descriptor rather than one cursor per fd; that quirk is
// preserved here since the operation, not the bug list, documents it.
type DirOps struct {
	Image *fsimg.Image
	pos   int
}

func (d *DirOps) Open(pid int, name string) defs.Err { return defs.EOK }
func (d *DirOps) Close(pid int) defs.Err              { return defs.EOK }

func (d *DirOps) Read(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	if buf == nil || d.pos >= d.Image.DentryCount() {
		d.pos = 0
		return 0, defs.EOK
	}
	dentry, err := d.Image.ReadDentryByIndex(d.pos)
	if err != nil {
		d.pos = 0
		return 0, defs.EOK
	}
	d.pos++

	maxCount := fsimg.NameLen + 1
	count := len(buf)
	if count > maxCount {
		count = maxCount
	}
	n := copy(buf[:count], dentry.Name)
	return n, defs.EOK
}

func (d *DirOps) Write(pid int, inode uint32, pos uint32, buf []byte) (int, defs.Err) {
	return -1, defs.EINVAL
}
