// Package mem defines the physical-address and page-table-entry types
// internal/paging builds its page directory from; no device package
// imports it.
package mem

import "github.com/EscapistArcadia/Illinix391/internal/limits"

// Pa_t is a physical address.
type Pa_t uintptr

// Bytepg_t is a byte-addressed 4KiB page.
type Bytepg_t [limits.PageSize4K]uint8

// Pmap_t is a 4KiB page of 32-bit page-table/page-directory entries.
type Pmap_t [limits.PageSize4K / 4]Pa_t

// Page-table/page-directory entry flag bits, in the position the x86
// MMU defines them.
const (
	PTE_P  Pa_t = 1 << 0 // present
	PTE_W  Pa_t = 1 << 1 // read/write
	PTE_U  Pa_t = 1 << 2 // user/supervisor
	PTE_PS Pa_t = 1 << 7 // page size (1 = 4MiB in a PDE)
	PTE_G  Pa_t = 1 << 8 // global

	pgOffset4K Pa_t = limits.PageSize4K - 1
	pgMask4K        = ^pgOffset4K

	pgOffset4M Pa_t = limits.PageSize4M - 1
	pgMask4M        = ^pgOffset4M
)

// PTEAddr4K extracts the 4KiB-aligned physical frame address from a PTE.
func PTEAddr4K(pte Pa_t) Pa_t { return pte & pgMask4K }

// PTEAddr4M extracts the 4MiB-aligned physical frame address from a PDE
// mapping a large page.
func PTEAddr4M(pte Pa_t) Pa_t { return pte & pgMask4M }

// UserFrame returns the physical base address of the 4MiB frame backing
// process pid's user image, under the kernel's static one-frame-per-
// process memory model (physical frame limits.FirstUserFrame+pid).
func UserFrame(pid int) Pa_t {
	return Pa_t(limits.FirstUserFrame+pid) * limits.PageSize4M
}
