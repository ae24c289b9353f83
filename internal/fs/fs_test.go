package fs

import (
	"testing"

	"github.com/EscapistArcadia/Illinix391/internal/ata"
	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
	"github.com/EscapistArcadia/Illinix391/internal/util"
)

func mountTwoFileImage(t *testing.T) *fsimg.Image {
	t.Helper()
	const inodeCount = 2
	const dataBlockCount = 2
	image := make([]byte, fsimg.BlockSize*(1+inodeCount+dataBlockCount))

	boot := image[0:fsimg.BlockSize]
	util.Writen(boot, 4, 0, 2)
	util.Writen(boot, 4, 4, inodeCount)
	util.Writen(boot, 4, 8, dataBlockCount)

	d0 := boot[64:128]
	copy(d0[:fsimg.NameLen], "alpha")
	util.Writen(d0, 4, 32, fsimg.TypeReg)
	util.Writen(d0, 4, 36, 0)

	d1 := boot[128:192]
	copy(d1[:fsimg.NameLen], "beta")
	util.Writen(d1, 4, 32, fsimg.TypeReg)
	util.Writen(d1, 4, 36, 1)

	inode0 := image[fsimg.BlockSize : 2*fsimg.BlockSize]
	util.Writen(inode0, 4, 0, 5)
	util.Writen(inode0, 4, 4, 0)
	copy(image[3*fsimg.BlockSize:], "alpha")

	inode1 := image[2*fsimg.BlockSize : 3*fsimg.BlockSize]
	util.Writen(inode1, 4, 0, 4)
	util.Writen(inode1, 4, 4, 1)
	copy(image[4*fsimg.BlockSize:], "beta")

	disk := ata.New(image)
	img, err := fsimg.Mount(disk)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return img
}

func TestFileOpsReadByInode(t *testing.T) {
	img := mountTwoFileImage(t)
	fo := &FileOps{Image: img}

	buf := make([]byte, 16)
	n, err := fo.Read(0, 1, 0, buf)
	if err != 0 {
		t.Fatalf("Read err = %v", err)
	}
	if string(buf[:n]) != "beta" {
		t.Fatalf("Read got %q, want %q", buf[:n], "beta")
	}
}

func TestDirOpsRewindsAfterLastEntry(t *testing.T) {
	img := mountTwoFileImage(t)
	do := &DirOps{Image: img}

	var names []string
	buf := make([]byte, fsimg.NameLen+1)
	for {
		n, err := do.Read(0, 0, 0, buf)
		if err != 0 {
			t.Fatalf("Read err = %v", err)
		}
		if n == 0 {
			break
		}
		names = append(names, string(buf[:n]))
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "beta" {
		t.Fatalf("dir_read sequence = %v", names)
	}

	if do.pos != 0 {
		t.Fatal("dir_read must rewind to 0 after the last entry")
	}
	n, _ := do.Read(0, 0, 0, buf)
	if string(buf[:n]) != "alpha" {
		t.Fatal("dir_read should restart at the first entry after rewinding")
	}
}
