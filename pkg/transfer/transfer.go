// Package transfer relocates single files on an afero filesystem without ever
// overwriting an existing destination.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

var (
	// ErrDestinationExists is returned when the destination path is already taken.
	ErrDestinationExists = errors.New("destination file already exists")
)

// renameFunc is swapped in tests to simulate cross-device renames.
var renameFunc = func(fsys afero.Fs, src, dst string) error {
	return fsys.Rename(src, dst)
}

// CrossDeviceError reports a rename that failed because src and dst live on different
// filesystems (EXDEV).
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cross-device rename %q -> %q: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// EnsureDir creates dir and any missing parents. It is a no-op when dir exists.
func EnsureDir(fsys afero.Fs, dir string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}

// Copy copies src to dst, keeping the source mode and modification time.
// The destination must not exist.
func Copy(fsys afero.Fs, src, dst string) error {
	srcFile, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("copy %s: %w", src, fs.ErrInvalid)
	}

	dstFile, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrDestinationExists
		}
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		_ = fsys.Remove(dst)
		return fmt.Errorf("copy content: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		_ = dstFile.Close()
		_ = fsys.Remove(dst)
		return fmt.Errorf("sync: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		_ = fsys.Remove(dst)
		return fmt.Errorf("close destination: %w", err)
	}

	if err := fsys.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("preserve mode: %w", err)
	}
	mtime := srcInfo.ModTime()
	if err := fsys.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("preserve times: %w", err)
	}
	return nil
}

// Move renames src to dst. When the rename crosses filesystems the file is copied and
// the source removed afterwards. The destination must not exist.
func Move(fsys afero.Fs, src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}

	exists, err := afero.Exists(fsys, dst)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if exists {
		return ErrDestinationExists
	}

	renameErr := renameFunc(fsys, src, dst)
	if renameErr == nil {
		return nil
	}
	if !isEXDEV(renameErr) {
		return fmt.Errorf("rename: %w", renameErr)
	}

	if err := Copy(fsys, src, dst); err != nil {
		return fmt.Errorf("%w: fallback copy: %w", &CrossDeviceError{Src: src, Dst: dst, Err: renameErr}, err)
	}
	if err := fsys.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}
