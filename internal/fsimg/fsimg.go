// Package fsimg understands the on-disk layout of the file-system image:
// a boot block, a run of inode blocks, and a run of data blocks, each
// exactly BlockSize bytes, addressed through a block device. Field
// accessors read/write fixed byte offsets the way the teacher's own
// on-disk layout package does, rather than via struct tags.
package fsimg

import (
	"errors"

	"github.com/EscapistArcadia/Illinix391/internal/ata"
	"github.com/EscapistArcadia/Illinix391/internal/util"
)

// BlockSize is the size in bytes of every block the image is divided
// into: the boot block, each inode block and each data block.
const BlockSize = 4096

// MaxDentries is the number of directory-entry slots the boot block
// reserves, fixed by the boot block's own 4096-byte size.
const MaxDentries = 63

// NameLen is the maximum directory-entry name length; a name exactly
// this long carries no NUL terminator.
const NameLen = 32

// MaxDataBlocksPerInode is the number of data-block index slots an
// inode reserves, fixed by the inode's own 4096-byte size.
const MaxDataBlocksPerInode = 1023

// File type codes stored in a dentry.
const (
	TypeRTC = 0
	TypeDir = 1
	TypeReg = 2
)

var (
	// ErrNoSuchFile is returned when a name or index has no matching
	// dentry.
	ErrNoSuchFile = errors.New("fsimg: no such file")
	// ErrBadInode is returned when an inode number is out of range.
	ErrBadInode = errors.New("fsimg: inode number out of range")
	// ErrFull is returned when create finds no free dentry/inode slot.
	ErrFull = errors.New("fsimg: file system full")
	// ErrBusy is returned when create/delete would mutate an inode that
	// some process still has open.
	ErrBusy = errors.New("fsimg: inode is open")
)

// OpenChecker reports whether any process currently holds a file
// descriptor referencing inum, so Create/Delete can refuse to mutate
// an inode still in use instead of a reader observing zeroed-out data
// mid-read. The scheduler's PCB pool, not this package, is the only
// place that knowledge lives.
type OpenChecker interface {
	InodeOpen(inum uint32) bool
}

// Dentry is a single 64-byte directory entry.
type Dentry struct {
	Name     string
	Type     uint32
	InodeNum uint32
}

func decodeDentry(b []byte) Dentry {
	nameEnd := 0
	for nameEnd < NameLen && b[nameEnd] != 0 {
		nameEnd++
	}
	return Dentry{
		Name:     string(b[:nameEnd]),
		Type:     uint32(util.Readn(b, 4, 32)),
		InodeNum: uint32(util.Readn(b, 4, 36)),
	}
}

func encodeDentry(b []byte, d Dentry) {
	for i := range b {
		b[i] = 0
	}
	n := copy(b[:NameLen], d.Name)
	_ = n
	util.Writen(b, 4, 32, int(d.Type))
	util.Writen(b, 4, 36, int(d.InodeNum))
}

// Image is a mounted file-system image backed by a block device: block
// 0 is the boot block, blocks [1, inodeCount] are inode blocks, and the
// remainder are data blocks.
type Image struct {
	disk ata.Disk_i

	dentryCount    uint32
	inodeCount     uint32
	dataBlockCount uint32
	dentries       [MaxDentries][64]byte

	inodeBitmap [MaxDentries + 1]bool
	openCheck   OpenChecker
}

// SetOpenChecker installs the callback Create/Delete consult before
// mutating an inode; called once by the scheduler wiring this image in,
// after both exist. A nil checker (the default, and every standalone
// package test) skips the refusal entirely.
func (img *Image) SetOpenChecker(oc OpenChecker) {
	img.openCheck = oc
}

func (img *Image) inodeOpen(inum uint32) bool {
	return img.openCheck != nil && img.openCheck.InodeOpen(inum)
}

// Mount reads the boot block off disk and caches its fixed-size dentry
// table, populating the in-memory inode-allocation bitmap from it (the
// on-disk image carries no bitmap of its own, so create's "lowest free
// inode" search is reconstructed at mount time by scanning every
// existing dentry's inode number).
func Mount(disk ata.Disk_i) (*Image, error) {
	boot, err := disk.ReadBlock(0)
	if err != nil {
		return nil, err
	}
	img := &Image{disk: disk}
	img.dentryCount = uint32(util.Readn(boot, 4, 0))
	img.inodeCount = uint32(util.Readn(boot, 4, 4))
	img.dataBlockCount = uint32(util.Readn(boot, 4, 8))

	for i := 0; i < MaxDentries; i++ {
		off := 64 + i*64
		copy(img.dentries[i][:], boot[off:off+64])
	}
	for i := uint32(0); i < img.dentryCount; i++ {
		d := decodeDentry(img.dentries[i][:])
		if d.InodeNum < uint32(len(img.inodeBitmap)) {
			img.inodeBitmap[d.InodeNum] = true
		}
	}
	return img, nil
}

func (img *Image) flushBoot() error {
	boot := make([]byte, BlockSize)
	util.Writen(boot, 4, 0, int(img.dentryCount))
	util.Writen(boot, 4, 4, int(img.inodeCount))
	util.Writen(boot, 4, 8, int(img.dataBlockCount))
	for i := 0; i < MaxDentries; i++ {
		copy(boot[64+i*64:64+(i+1)*64], img.dentries[i][:])
	}
	return img.disk.WriteBlock(0, boot)
}

// DentryCount reports how many directory entries are in use.
func (img *Image) DentryCount() int { return int(img.dentryCount) }

// ReadDentryByIndex copies the dentry at index, matching the fixed
// semantics the kernel's directory read loop relies on: pos beyond the
// live dentry count is an error, and the result is a value copy, never
// a pointer into the cached table.
func (img *Image) ReadDentryByIndex(index int) (Dentry, error) {
	if index < 0 || uint32(index) >= img.dentryCount {
		return Dentry{}, ErrNoSuchFile
	}
	return decodeDentry(img.dentries[index][:]), nil
}

// ReadDentryByName performs the linear name-match scan: characters
// equal until either name runs out (in which case the candidate dentry
// must also terminate there, or be exactly NameLen long) or NameLen is
// reached.
func (img *Image) ReadDentryByName(name string) (Dentry, error) {
	nb := []byte(name)
	for i := 0; i < int(img.dentryCount); i++ {
		cand := img.dentries[i][:NameLen]
		j := 0
		for j < NameLen && j < len(nb) && nb[j] != 0 && cand[j] == nb[j] {
			j++
		}
		nameDone := j == len(nb) || nb[j] == 0
		candDone := j == NameLen || cand[j] == 0
		if nameDone && (candDone || j == NameLen) {
			return decodeDentry(img.dentries[i][:]), nil
		}
	}
	return Dentry{}, ErrNoSuchFile
}

// inodeBlock reads the raw 4096-byte block backing inode number inum
// (inode blocks occupy disk blocks [1, inodeCount]).
func (img *Image) inodeBlock(inum uint32) ([]byte, error) {
	if inum >= img.inodeCount {
		return nil, ErrBadInode
	}
	return img.disk.ReadBlock(int(1 + inum))
}

// InodeFileSize returns the byte length recorded in inode inum.
func (img *Image) InodeFileSize(inum uint32) (int, error) {
	b, err := img.inodeBlock(inum)
	if err != nil {
		return 0, err
	}
	return util.Readn(b, 4, 0), nil
}

// dataBlockDiskIndex resolves the blockIdx'th data-block pointer stored
// in inode inum to an absolute disk block number (data blocks start
// right after the inode region, at disk block inodeCount+1).
func (img *Image) dataBlockDiskIndex(inum uint32, blockIdx uint32) (int, error) {
	b, err := img.inodeBlock(inum)
	if err != nil {
		return 0, err
	}
	if blockIdx >= MaxDataBlocksPerInode {
		return 0, ErrBadInode
	}
	logical := util.Readn(b, 4, 4+int(blockIdx)*4)
	return int(1+img.inodeCount) + logical, nil
}

// ReadData implements the kernel's read_data: clamps len against the
// remaining file size, then copies starting at data-block index
// offset/BlockSize, stitching across as many blocks as needed.
func (img *Image) ReadData(inum uint32, offset uint32, buf []byte) (int, error) {
	if inum >= img.inodeCount {
		return 0, ErrBadInode
	}
	if len(buf) == 0 {
		return 0, nil
	}
	size, err := img.InodeFileSize(inum)
	if err != nil {
		return 0, err
	}
	if offset >= uint32(size) {
		return 0, nil
	}
	want := len(buf)
	remain := size - int(offset)
	if remain < want {
		want = remain
	}

	blockIdx := offset / BlockSize
	inBlock := offset % BlockSize
	got := 0
	for got < want {
		diskBlk, err := img.dataBlockDiskIndex(inum, blockIdx)
		if err != nil {
			return got, err
		}
		data, err := img.disk.ReadBlock(diskBlk)
		if err != nil {
			return got, err
		}
		n := copy(buf[got:want], data[inBlock:])
		got += n
		inBlock = 0
		blockIdx++
	}
	return got, nil
}

// Create allocates the lowest free inode, installs a new regular-file
// dentry for name, and appends it to the live dentry table. It fails if
// either table is already full, or if the chosen inode number is still
// referenced by an open fd (ErrBusy) — the only case it's reachable is
// reuse of an inode a caller never closed after its file was deleted.
func (img *Image) Create(name string) error {
	if int(img.dentryCount) >= MaxDentries {
		return ErrFull
	}
	inum := uint32(0)
	for ; inum < uint32(len(img.inodeBitmap)); inum++ {
		if !img.inodeBitmap[inum] {
			break
		}
	}
	if inum >= uint32(len(img.inodeBitmap)) {
		return ErrFull
	}
	if img.inodeOpen(inum) {
		return ErrBusy
	}

	zero := make([]byte, BlockSize)
	if err := img.disk.WriteBlock(int(1+inum), zero); err != nil {
		return err
	}

	idx := img.dentryCount
	encodeDentry(img.dentries[idx][:], Dentry{Name: name, Type: TypeReg, InodeNum: inum})
	img.dentryCount++
	img.inodeBitmap[inum] = true
	return img.flushBoot()
}

// Delete refuses with ErrBusy if any process still has the target
// inode open; otherwise it zeroes every data block the named file's
// inode references, frees the inode, and compacts the dentry table,
// closing the gap left by the removed entry. Unlike the reference
// implementation (which
// indexed its free-block bitmap by dentry sequence position instead of
// by the block's own number), the in-memory inode bitmap here is keyed
// by the real inode number throughout, so no block/position confusion
// is possible.
func (img *Image) Delete(name string) error {
	victim := -1
	for i := 0; i < int(img.dentryCount); i++ {
		d := decodeDentry(img.dentries[i][:])
		if d.Name == name {
			victim = i
			break
		}
	}
	if victim < 0 {
		return ErrNoSuchFile
	}
	d := decodeDentry(img.dentries[victim][:])
	if img.inodeOpen(d.InodeNum) {
		return ErrBusy
	}

	if d.Type == TypeReg {
		b, err := img.inodeBlock(d.InodeNum)
		if err != nil {
			return err
		}
		size := util.Readn(b, 4, 0)
		nblocks := (size + BlockSize - 1) / BlockSize
		zero := make([]byte, BlockSize)
		for i := 0; i < nblocks; i++ {
			diskBlk, err := img.dataBlockDiskIndex(d.InodeNum, uint32(i))
			if err != nil {
				return err
			}
			if err := img.disk.WriteBlock(diskBlk, zero); err != nil {
				return err
			}
		}
		if err := img.disk.WriteBlock(int(1+d.InodeNum), zero); err != nil {
			return err
		}
	}
	img.inodeBitmap[d.InodeNum] = false

	for i := victim; i < int(img.dentryCount)-1; i++ {
		img.dentries[i] = img.dentries[i+1]
	}
	img.dentryCount--
	return img.flushBoot()
}
