package fsutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/spf13/afero"
)

// Method reports how a move was carried out.
type Method string

const (
	MethodRename Method = "rename"
	MethodCopy   Method = "copy"
)

// EnsureDir creates dir and any missing parents. Existing directories are not an error.
func EnsureDir(fsys afero.Fs, dir string) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// Exists reports whether path is present. Any stat error other than not-exist
// is returned so callers never mistake an unreadable path for a free one.
func Exists(fsys afero.Fs, path string) (bool, error) {
	_, err := fsys.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsCrossDevice reports whether err is a rename failure across volumes.
func IsCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}

// Move relocates src to dst without ever replacing an existing dst. A rename is
// tried first; when the volumes differ the file is copied with verification
// and the source removed. os.ErrExist is returned when dst is taken so the
// caller can pick another name.
func Move(fsys afero.Fs, src, dst string) (Method, error) {
	taken, err := Exists(fsys, dst)
	if err != nil {
		return "", fmt.Errorf("stat destination: %w", err)
	}
	if taken {
		return "", &os.PathError{Op: "move", Path: dst, Err: fs.ErrExist}
	}

	renameErr := fsys.Rename(src, dst)
	if renameErr == nil {
		return MethodRename, nil
	}
	if !IsCrossDevice(renameErr) {
		return "", renameErr
	}

	if err := CopyFileVerified(fsys, src, dst); err != nil {
		return "", err
	}
	if err := fsys.Remove(src); err != nil {
		return MethodCopy, fmt.Errorf("remove source after copy: %w", err)
	}
	return MethodCopy, nil
}

// CopyFileVerified streams src to a newly created dst, checks the byte count,
// then re-reads dst and compares its SHA256 with the source stream before
// carrying over the source mode and modification time. dst must not exist. A
// partial or mismatched copy is removed.
func CopyFileVerified(fsys afero.Fs, src, dst string) (err error) {
	srcInfo, err := fsys.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = fsys.Remove(dst)
		}
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	if written != srcInfo.Size() {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}

	dstSum, err := hashFile(fsys, dst)
	if err != nil {
		return fmt.Errorf("read back copy: %w", err)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstSum) {
		return fmt.Errorf("copy hash mismatch: %s differs from %s", dst, src)
	}

	mtime := srcInfo.ModTime()
	if err = fsys.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("preserve modification time: %w", err)
	}
	return nil
}

func hashFile(fsys afero.Fs, path string) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
