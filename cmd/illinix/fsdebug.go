package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/EscapistArcadia/Illinix391/internal/ata"
	"github.com/EscapistArcadia/Illinix391/internal/fsimg"
)

func mountReadOnly(diskPath string) (*fsimg.Image, error) {
	raw, err := os.ReadFile(diskPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", diskPath, err)
	}
	disk := ata.New(raw)
	return fsimg.Mount(disk)
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the disk image's directory entries without booting",
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := mountReadOnly(viper.GetString("disk"))
			if err != nil {
				return err
			}
			for i := 0; i < img.DentryCount(); i++ {
				d, err := img.ReadDentryByIndex(i)
				if err != nil {
					return err
				}
				size, err := img.InodeFileSize(d.InodeNum)
				if err != nil {
					size = 0
				}
				fmt.Printf("%-32s type=%d inode=%d size=%d\n", d.Name, d.Type, d.InodeNum, size)
			}
			return nil
		},
	}
}

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <name>",
		Short: "Print a regular file's contents from the disk image without booting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := mountReadOnly(viper.GetString("disk"))
			if err != nil {
				return err
			}
			d, err := img.ReadDentryByName(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			size, err := img.InodeFileSize(d.InodeNum)
			if err != nil {
				return err
			}
			buf := make([]byte, size)
			if _, err := img.ReadData(d.InodeNum, 0, buf); err != nil {
				return err
			}
			_, err = os.Stdout.Write(buf)
			return err
		},
	}
}
