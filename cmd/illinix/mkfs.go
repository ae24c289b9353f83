package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
	"github.com/EscapistArcadia/Illinix391/internal/util"
)

func newMkfsCmd() *cobra.Command {
	var fromDir string
	var rtcName string
	var dotDir bool

	cmd := &cobra.Command{
		Use:   "mkfs <output-image>",
		Short: "Build a disk image from a directory of files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildImage(args[0], fromDir, rtcName, dotDir)
		},
	}

	cmd.Flags().StringVar(&fromDir, "from", ".", "directory of regular files to package")
	cmd.Flags().StringVar(&rtcName, "rtc-name", "rtc", "name of the synthesized RTC device entry (empty to omit)")
	cmd.Flags().BoolVar(&dotDir, "dot-dir", true, "synthesize a \".\" directory entry as dentry 0")
	return cmd
}

// buildImage lays out the boot block, one inode block per file and a
// contiguous run of data blocks, directly as bytes — the same layout
// the live mount-time reader (fsimg.Mount/ReadData) expects, built
// here with plain writes instead of extending fsimg.Image with a
// write path, since packaging a disk image is a build-time step, not
// something the booted kernel ever does to itself.
func buildImage(outPath, fromDir, rtcName string, dotDir bool) error {
	type entry struct {
		name string
		typ  uint32
		data []byte
	}

	var entries []entry
	if dotDir {
		entries = append(entries, entry{name: ".", typ: fsimg.TypeDir})
	}
	if rtcName != "" {
		entries = append(entries, entry{name: rtcName, typ: fsimg.TypeRTC})
	}

	files, err := os.ReadDir(fromDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", fromDir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(fromDir, f.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", f.Name(), err)
		}
		entries = append(entries, entry{name: f.Name(), typ: fsimg.TypeReg, data: data})
	}

	if len(entries) > fsimg.MaxDentries {
		return fmt.Errorf("%d entries exceeds the %d-dentry limit", len(entries), fsimg.MaxDentries)
	}

	inodeCount := len(entries)
	totalDataBlocks := 0
	for _, e := range entries {
		totalDataBlocks += (len(e.data) + fsimg.BlockSize - 1) / fsimg.BlockSize
	}

	image := make([]byte, fsimg.BlockSize*(1+inodeCount+totalDataBlocks))
	boot := image[0:fsimg.BlockSize]
	util.Writen(boot, 4, 0, len(entries))
	util.Writen(boot, 4, 4, inodeCount)
	util.Writen(boot, 4, 8, totalDataBlocks)

	nextLogicalBlock := 0
	for inum, e := range entries {
		dentry := boot[64+inum*64 : 64+(inum+1)*64]
		if len(e.name) > fsimg.NameLen {
			return fmt.Errorf("name %q exceeds %d bytes", e.name, fsimg.NameLen)
		}
		copy(dentry[:fsimg.NameLen], e.name)
		util.Writen(dentry, 4, 32, int(e.typ))
		util.Writen(dentry, 4, 36, inum)

		inodeBlk := image[fsimg.BlockSize*(1+inum) : fsimg.BlockSize*(2+inum)]
		util.Writen(inodeBlk, 4, 0, len(e.data))

		blocksNeeded := (len(e.data) + fsimg.BlockSize - 1) / fsimg.BlockSize
		for b := 0; b < blocksNeeded; b++ {
			util.Writen(inodeBlk, 4, 4+b*4, nextLogicalBlock)
			dataBlk := image[fsimg.BlockSize*(1+inodeCount+nextLogicalBlock) : fsimg.BlockSize*(2+inodeCount+nextLogicalBlock)]
			start := b * fsimg.BlockSize
			end := start + fsimg.BlockSize
			if end > len(e.data) {
				end = len(e.data)
			}
			copy(dataBlk, e.data[start:end])
			nextLogicalBlock++
		}
	}

	return os.WriteFile(outPath, image, 0o644)
}
