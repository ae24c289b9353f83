package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/EscapistArcadia/Illinix391/internal/ata"
	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
)

func TestBuildImageProducesAMountableImage(t *testing.T) {
	srcDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcDir, "hello"), []byte("hello, world"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	// A payload spanning more than one data block exercises the
	// multi-block stitching path both here and in fsimg.ReadData.
	big := make([]byte, fsimg.BlockSize+17)
	for i := range big {
		big[i] = byte(i)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "big"), big, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "disk.img")
	if err := buildImage(outPath, srcDir, "rtc", true); err != nil {
		t.Fatalf("buildImage: %v", err)
	}

	raw, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading built image: %v", err)
	}
	disk := ata.New(raw)
	img, err := fsimg.Mount(disk)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if img.DentryCount() != 4 { // ".", "rtc", "big", "hello"
		t.Fatalf("DentryCount = %d, want 4", img.DentryCount())
	}

	dot, err := img.ReadDentryByName(".")
	if err != nil || dot.Type != fsimg.TypeDir {
		t.Fatalf("ReadDentryByName(.) = %+v, %v", dot, err)
	}
	rtcEntry, err := img.ReadDentryByName("rtc")
	if err != nil || rtcEntry.Type != fsimg.TypeRTC {
		t.Fatalf("ReadDentryByName(rtc) = %+v, %v", rtcEntry, err)
	}

	hello, err := img.ReadDentryByName("hello")
	if err != nil {
		t.Fatalf("ReadDentryByName(hello): %v", err)
	}
	buf := make([]byte, 12)
	n, err := img.ReadData(hello.InodeNum, 0, buf)
	if err != nil || n != 12 || string(buf) != "hello, world" {
		t.Fatalf("ReadData(hello) = %q, %d, %v", buf, n, err)
	}

	bigEntry, err := img.ReadDentryByName("big")
	if err != nil {
		t.Fatalf("ReadDentryByName(big): %v", err)
	}
	gotBig := make([]byte, len(big))
	n, err = img.ReadData(bigEntry.InodeNum, 0, gotBig)
	if err != nil || n != len(big) {
		t.Fatalf("ReadData(big) n=%d err=%v, want %d", n, err, len(big))
	}
	for i := range big {
		if gotBig[i] != big[i] {
			t.Fatalf("big[%d] = %d, want %d", i, gotBig[i], big[i])
		}
	}
}

func TestBuildImageRejectsTooManyEntries(t *testing.T) {
	srcDir := t.TempDir()
	for i := 0; i < fsimg.MaxDentries+1; i++ {
		name := filepath.Join(srcDir, fmt.Sprintf("f%03d", i))
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}
	outPath := filepath.Join(t.TempDir(), "disk.img")
	if err := buildImage(outPath, srcDir, "", false); err == nil {
		t.Fatal("buildImage with too many entries should fail")
	}
}
