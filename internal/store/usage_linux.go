//go:build linux

package store

import (
	"golang.org/x/sys/unix"
)

func usage(root string) (Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return Usage{}, err
	}
	bsize := uint64(st.Bsize)
	return Usage{
		TotalBytes: st.Blocks * bsize,
		FreeBytes:  st.Bavail * bsize,
	}, nil
}
