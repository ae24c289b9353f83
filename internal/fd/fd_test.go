package fd

import (
	"testing"

	"github.com/EscapistArcadia/Illinix391/internal/defs"
	"github.com/EscapistArcadia/Illinix391/internal/fdops"
)

func TestAllocStartsAtFirstUserFd(t *testing.T) {
	var tbl Table
	fdNum, err := tbl.Alloc(fdops.Null, 7)
	if err != defs.EOK {
		t.Fatalf("Alloc err = %v", err)
	}
	if fdNum != 2 {
		t.Fatalf("Alloc fd = %d, want 2", fdNum)
	}
}

func TestFreeRejectsStdStreams(t *testing.T) {
	var tbl Table
	tbl.InstallStd(fdops.Null, fdops.Null)
	if err := tbl.Free(0); err != defs.EBADF {
		t.Fatalf("Free(0) err = %v, want EBADF", err)
	}
	if err := tbl.Free(1); err != defs.EBADF {
		t.Fatalf("Free(1) err = %v, want EBADF", err)
	}
}

func TestTableFillsAndReportsEMFILE(t *testing.T) {
	var tbl Table
	for i := 0; i < 6; i++ {
		if _, err := tbl.Alloc(fdops.Null, uint32(i)); err != defs.EOK {
			t.Fatalf("Alloc #%d failed: %v", i, err)
		}
	}
	if _, err := tbl.Alloc(fdops.Null, 99); err != defs.EMFILE {
		t.Fatalf("expected EMFILE once full, got %v", err)
	}
}
