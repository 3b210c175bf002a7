// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// tempPrefix marks staging files next to the target. A crash can leave one
// behind; it is never read back.
const tempPrefix = ".healthmate-tmp-"

// AtomicWriteFile replaces path with data. Readers see the previous contents
// or the new ones, never a mix. A missing parent directory is created 0700.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	return AtomicWriteFileWithDir(path, data, perm, 0700)
}

// AtomicWriteFileWithDir is AtomicWriteFile with an explicit directory mode.
// The staging file lives in the target's directory so the final rename
// never crosses a filesystem.
func AtomicWriteFileWithDir(path string, data []byte, filePerm, dirPerm os.FileMode) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, tempPrefix)
	if err != nil {
		return fmt.Errorf("stage %s: %w", target, err)
	}
	staged := f.Name()

	if err := writeStaged(f, data, filePerm); err != nil {
		os.Remove(staged)
		return fmt.Errorf("stage %s: %w", target, err)
	}
	if err := os.Rename(staged, target); err != nil {
		os.Remove(staged)
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}

// writeStaged fills f, flushes it to disk and closes it. f is closed on
// every path.
func writeStaged(f *os.File, data []byte, perm os.FileMode) error {
	if err := f.Chmod(perm); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
