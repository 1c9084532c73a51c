package edit

import (
	"os"
	"path/filepath"

	"github.com/rhizome-lab/moss/model"
)

// Result is the outcome of a committed (or dry-run) edit: the full new
// content and whether it was actually written to disk.
type Result struct {
	Content string
	Written bool
}

// Commit writes content to path atomically (temp file in the same
// directory, then rename), a small adaptation of the teacher's
// AtomicWriter.WriteFile without its cross-process locking (the SCI's
// single-writer-per-process assumption covers edit commits too). When
// dryRun is true, no write occurs and Result.Written is false.
func Commit(path, content string, dryRun bool) (Result, error) {
	if dryRun {
		return Result{Content: content, Written: false}, nil
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".moss-edit-*.tmp")
	if err != nil {
		return Result{}, model.NewError(model.ErrIo, path, "creating temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Result{}, model.NewError(model.ErrIo, path, "writing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Result{}, model.NewError(model.ErrIo, path, "closing temp file", err)
	}

	if info, err := os.Stat(path); err == nil {
		_ = os.Chmod(tmpPath, info.Mode())
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Result{}, model.NewError(model.ErrIo, path, "renaming temp file into place", err)
	}
	return Result{Content: content, Written: true}, nil
}
