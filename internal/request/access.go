package request

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Access performs the read-only filesystem checks the validator needs.
type Access interface {
	Readable(path string) error
	WritableDir(path string) error
}

// SystemAccess checks permissions with access(2), the same semantics as the
// processor will see when it opens the paths.
type SystemAccess struct{}

func (SystemAccess) Readable(path string) error {
	if err := unix.Access(path, unix.R_OK); err != nil {
		return fmt.Errorf("access %s: %w", path, err)
	}
	return nil
}

func (SystemAccess) WritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if err := unix.Access(path, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("access %s: %w", path, err)
	}
	return nil
}
