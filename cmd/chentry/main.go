// Command chentry patches the entry point recorded in a 32-bit ELF
// executable's header, the way the build of a user program destined
// for the file-system image fixes its entry up to the kernel's fixed
// load address (0x08048000) before the binary is embedded.
package main

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/EscapistArcadia/Illinix391/internal/limits"
)

func usage(me string) {
	fmt.Printf("%s <filename> [addr]\n\nPatch the ELF entry point of <filename>.\n"+
		"addr defaults to 0x%x, the fixed user program load address.\n", me, limits.ProgramImage)
	os.Exit(1)
}

// checkHeader verifies filename is the shape this kernel's loader
// expects: a little-endian 32-bit x86 executable.
func checkHeader(eh *elf.FileHeader) {
	// elf.NewFile has already rejected input without the ELF magic.
	if eh.Class != elf.ELFCLASS32 {
		log.Fatal("not a 32-bit elf")
	}
	if eh.Data != elf.ELFDATA2LSB {
		log.Fatal("not little-endian")
	}
	if eh.Type != elf.ET_EXEC {
		log.Fatal("not an executable elf")
	}
	if eh.Machine != elf.EM_386 {
		log.Fatal("not a 32-bit x86 elf")
	}
}

func parseAddr(s string) (uint32, error) {
	a, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(a), nil
}

func main() {
	if len(os.Args) != 2 && len(os.Args) != 3 {
		usage(os.Args[0])
	}
	fn := os.Args[1]
	addr := uint32(limits.ProgramImage)
	if len(os.Args) == 3 {
		a, err := parseAddr(os.Args[2])
		if err != nil {
			log.Fatal(err)
		}
		addr = a
	}

	f, err := os.OpenFile(fn, os.O_RDWR, 0)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	ef, err := elf.NewFile(f)
	if err != nil {
		log.Fatal(err)
	}
	checkHeader(&ef.FileHeader)
	fmt.Printf("patching entry to 0x%x\n", addr)

	// package elf's FileHeader widens e_entry to 64 bits regardless of
	// class, so the in-place patch writes straight to Elf32_Ehdr's own
	// 4-byte e_entry field at its fixed offset (16-byte e_ident plus
	// e_type/e_machine/e_version, each 2/2/4 bytes) rather than routing
	// through that widened in-memory struct.
	const e_entry_offset = 24
	var patched [4]byte
	binary.LittleEndian.PutUint32(patched[:], addr)
	if _, err := f.WriteAt(patched[:], e_entry_offset); err != nil {
		log.Fatal(err)
	}
}
