package exporter

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	apperrors "genderviz/internal/errors"
)

const filePerm = 0644

// writeAtomic streams write into a temporary file next to path and renames it into
// place. The target directory must already exist. On any failure the temporary file is
// removed and an existing target is left untouched.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return apperrors.NewIOError("output directory not accessible", err).WithContext("path", path)
	}
	if !info.IsDir() {
		return apperrors.NewIOError("output directory is not a directory", nil).WithContext("path", path)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return apperrors.NewIOError("failed to create temporary file", err).WithContext("path", path)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, filePerm)

	fail := func(msg string, cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return apperrors.NewIOError(msg, cause).WithContext("path", path)
	}

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		if apperrors.TypeOf(err) != "" {
			return err
		}
		return apperrors.NewIOError("failed to write output", err).WithContext("path", path)
	}
	if err := bw.Flush(); err != nil {
		return fail("failed to flush output", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("failed to sync output", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return apperrors.NewIOError("failed to close output", err).WithContext("path", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return apperrors.NewIOError("failed to move output into place", err).WithContext("path", path)
	}
	return nil
}
