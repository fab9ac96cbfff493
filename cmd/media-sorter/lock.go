package main

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var errAlreadyRunning = errors.New("another media-sorter run is using this directory")

// lockPath returns the lock file for root. It lives in the temp dir so a dry run never
// writes into the tree it inspects.
func lockPath(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve lock root: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), fmt.Sprintf("media-sorter-%x.lock", sum[:8])), nil
}

func acquireLock(root string) (*flock.Flock, error) {
	path, err := lockPath(root)
	if err != nil {
		return nil, err
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", errAlreadyRunning, root)
	}
	return lock, nil
}
