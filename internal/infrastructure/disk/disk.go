// Package disk reports free space for download and library paths.
package disk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// FreeSpaceProvider reads free space with statfs.
type FreeSpaceProvider struct {
	statfs func(path string, buf *unix.Statfs_t) error
}

// NewFreeSpaceProvider creates a provider backed by the host filesystem.
func NewFreeSpaceProvider() *FreeSpaceProvider {
	return &FreeSpaceProvider{statfs: unix.Statfs}
}

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding path. A path that does not exist yet is resolved to its
// nearest existing parent. The result is nil when nothing on the path exists.
func (p *FreeSpaceProvider) FreeSpace(path string) (*int64, error) {
	dir, err := nearestExisting(path)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	var st unix.Statfs_t
	if err := p.statfs(dir, &st); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", dir, err)
	}
	free := int64(st.Bavail) * int64(st.Bsize)
	return &free, nil
}

func nearestExisting(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	for {
		_, err := os.Stat(dir)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", dir, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
