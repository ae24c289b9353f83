// Package limits collects the kernel-wide numeric constants that would
// otherwise be scattered magic numbers throughout the process, paging and
// file-system code.
package limits

const (
	// MaxProcess is the fixed size of the PCB pool: three terminal root
	// shells plus three user descendants.
	MaxProcess = 6

	// TerminalCount is the number of virtual terminals/schedulable roots.
	TerminalCount = 3

	// KernelStackSize is the size in bytes of each process's kernel
	// stack, and the alignment used to recover the owning PCB from ESP.
	KernelStackSize = 8 * 1024

	// KernelStackTop is the highest kernel virtual address backing the
	// process kernel stacks; PCB p lives at
	// KernelStackTop - (p+1)*KernelStackSize.
	KernelStackTop = 0x800000

	// MaxOpenFiles is the size of a PCB's file descriptor table.
	MaxOpenFiles = 8

	// StdinFd and StdoutFd are the fixed descriptor numbers wired up by
	// execute for every process.
	StdinFd  = 0
	StdoutFd = 1

	// FirstUserFd is the lowest descriptor number open() may allocate.
	FirstUserFd = 2

	// MaxArgLen is the size of a PCB's captured argument buffer.
	MaxArgLen = 128

	// MaxCommandLen bounds the file name parsed out of an execute command.
	MaxCommandLen = 128

	// PageSize4K and PageSize4M are the two page sizes this kernel maps.
	PageSize4K = 4 * 1024
	PageSize4M = 4 * 1024 * 1024

	// VidmemIndex is the page-table index of the VGA text page (0xB8000
	// falls on page index 0xB8 of the first 4MiB region).
	VidmemIndex = 0xB8

	// UserImagePDE is the page-directory index of the 4MiB user image
	// window (virtual 0x08000000 >> 22 == 32 == 0x20).
	UserImagePDE = 0x20

	// VidmapPDE/VidmapPTE place the user-visible video page directory
	// entry and its one present PTE at the same index, VidmemIndex,
	// reusing the constant the way the kernel-vidmem page table does.
	VidmapPDE = VidmemIndex
	VidmapPTE = VidmemIndex

	// ProgramImage is the fixed virtual load address of an executable.
	ProgramImage = 0x08048000
	// ProgramImageLimit bounds how much of a file execute() will copy.
	ProgramImageLimit = PageSize4M - (ProgramImage - 0x08000000)

	// UserStackTop is the initial ESP pushed into the IRET frame.
	UserStackTop = 0x08400000

	// FirstUserFrame is the physical frame index offset: process pid
	// owns physical frame 2+pid.
	FirstUserFrame = 2

	// RTCMaxFreq/RTCMinFreq bound the virtualized RTC frequency in Hz.
	RTCMaxFreq = 512
	RTCMinFreq = 2

	// PITFrequencyHz is the scheduling quantum rate.
	PITFrequencyHz = 20

	// MaxLineLen is the terminal input line buffer capacity.
	MaxLineLen = 128

	// ScreenWidth and ScreenHeight describe the VGA text-mode surface.
	ScreenWidth  = 80
	ScreenHeight = 25
)
