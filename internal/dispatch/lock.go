package dispatch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrOutputBusy is reported when another extraction holds the output directory.
var ErrOutputBusy = errors.New("output directory is in use by another extraction")

// lockOutput takes an exclusive, non-blocking lock for outputDir. The returned
// release func is safe to call when locking was skipped.
func lockOutput(lockDir, outputDir string) (func() error, error) {
	if lockDir == "" {
		return func() error { return nil }, nil
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(lockPath(lockDir, outputDir))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutputBusy, outputDir)
	}
	return lock.Unlock, nil
}

func lockPath(lockDir, outputDir string) string {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		abs = filepath.Clean(outputDir)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, "extract-"+hex.EncodeToString(sum[:8])+".lock")
}
