package fsx

import (
	"io/fs"
	"os"
)

// renameCheckFirst 先 Lstat 再 rename；仅在单进程串行调用时才能保证“不覆盖”。
func renameCheckFirst(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.Rename(src, dst)
}
