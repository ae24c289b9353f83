// Package paging implements the single 32-bit page directory this
// kernel runs under: a fixed identity map of the first 4MiB for kernel
// code/data and the VGA text page, one page directory entry repointed
// to each running process's 4MiB user image on every context switch,
// and a shared video-memory slot toggled on by vidmap.
package paging

import (
	"github.com/EscapistArcadia/Illinix391/internal/limits"
	"github.com/EscapistArcadia/Illinix391/internal/mem"
)

// Directory is the 1024-entry page directory plus the two fixed 4KiB
// page tables it references for the first 4MiB region (kernel-only and
// user-visible video windows).
type Directory struct {
	pd          mem.Pmap_t
	kernelVideo mem.Pmap_t
	userVideo   mem.Pmap_t
}

// New builds the directory in its boot-time configuration: PDE 0 maps
// the first 4MiB through kernelVideo (supervisor only, VGA page
// present), PDE 1 is a 4MiB supervisor page at the kernel's own load
// address, PDE 2..1023 are pre-seeded as not-present 4MiB pages (base
// set, present clear) ready to be claimed by execute, and PDE
// VidmemIndex maps userVideo (a 4KiB table whose one entry, index
// VidmemIndex, starts not-present until some process calls vidmap).
func New() *Directory {
	d := &Directory{}

	d.kernelVideo[limits.VidmemIndex] = mem.Pa_t(limits.VidmemIndex)<<12 | mem.PTE_P | mem.PTE_W
	d.userVideo[limits.VidmemIndex] = mem.Pa_t(limits.VidmemIndex)<<12 | mem.PTE_U | mem.PTE_W

	// The real kernel packs the kernel-video page table's physical
	// address into bits 12-31 of this PDE; the hosted simulation never
	// walks a directory entry down to a raw address (kernelVideo/
	// userVideo are reached directly as Go fields), so only the flag
	// bits meaningful to TranslateUser/VidmapPresent are set here.
	d.pd[0] = mem.PTE_P | mem.PTE_W

	const kernelFrame = 1
	d.pd[1] = mem.Pa_t(kernelFrame)<<22 | mem.PTE_P | mem.PTE_W | mem.PTE_PS

	for i := 2; i < len(d.pd); i++ {
		d.pd[i] = mem.Pa_t(i)<<22 | mem.PTE_PS
	}

	d.pd[limits.VidmapPDE] = mem.PTE_P | mem.PTE_U | mem.PTE_W

	return d
}

// ActivateUser repoints the user-image page directory entry at the 4MiB
// physical frame backing pid and marks it present/user/writable, the
// way execute and the scheduler's context switch both do.
func (d *Directory) ActivateUser(pid int) {
	d.pd[limits.UserImagePDE] = mem.UserFrame(pid) | mem.PTE_P | mem.PTE_U | mem.PTE_W | mem.PTE_PS
}

// UserFrame reports the physical frame currently backing the user
// image PDE, for tests and diagnostics.
func (d *Directory) UserFrame() mem.Pa_t {
	return mem.PTEAddr4M(d.pd[limits.UserImagePDE])
}

// SetVidmap toggles the present bit of the one video PTE inside the
// user-visible video page table, per vidmap()'s pcb.vidmap flag.
func (d *Directory) SetVidmap(present bool) {
	if present {
		d.userVideo[limits.VidmapPTE] |= mem.PTE_P
	} else {
		d.userVideo[limits.VidmapPTE] &^= mem.PTE_P
	}
}

// VidmapPresent reports whether the user-visible video PTE is present.
func (d *Directory) VidmapPresent() bool {
	return d.userVideo[limits.VidmapPTE]&mem.PTE_P != 0
}

// TranslateUser validates that a user-supplied virtual address va
// (and the count bytes following it) lies entirely within the current
// process's 4MiB user image window. The syscall layer runs this check
// on vidmap's output pointer; getargs, read and write take Go slices
// and do not call it.
func TranslateUser(va uint32, count int) bool {
	if count < 0 {
		return false
	}
	lo := uint32(limits.UserImagePDE) << 22
	hi := lo + limits.PageSize4M
	end := uint64(va) + uint64(count)
	return va >= lo && end <= uint64(hi)
}
