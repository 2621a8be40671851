package fsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 EXDEV 等错误。
var (
	renameFunc          = os.Rename
	renameNoReplaceFunc = renameNoReplace
)

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// 默认不做 copy+delete；由调用方通过 MoveOptions.AllowCopy 显式开启。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘移动失败（EXDEV）：%q -> %q；源与目标不在同一文件系统（可配置 cross_device = \"copy\"）：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 os.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
// 目标存在时按平台语义覆盖（unix 上是原子替换）。
func Rename(src, dst string) error {
	return wrapRename(src, dst, renameFunc(src, dst))
}

func wrapRename(src, dst string, err error) error {
	if err == nil {
		return nil
	}
	if isEXDEV(err) {
		return &CrossDeviceError{Src: src, Dst: dst, Err: err}
	}
	return err
}

// MoveOptions 控制 Move 的冲突与跨盘行为。
type MoveOptions struct {
	// Overwrite 允许替换已存在的普通文件（目录永远不会被替换）。
	Overwrite bool
	// AllowCopy 在 EXDEV 时退化为 copy + 校验 + 删除源文件。
	AllowCopy bool
}

// Move 把 src 移动到 dst。
//
// - dst 是目录/非普通文件：PathTypeConflictError
// - dst 已存在且未允许覆盖：返回的错误满足 errors.Is(err, fs.ErrExist)
// - EXDEV：CrossDeviceError，或在 AllowCopy 时走 copy
func Move(src, dst string, opt MoveOptions) error {
	if fi, err := os.Lstat(dst); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
		}
		if !fi.Mode().IsRegular() {
			return &PathTypeConflictError{Path: dst, Want: "regular file", Got: fi.Mode().Type().String()}
		}
		if !opt.Overwrite {
			return &fs.PathError{Op: "move", Path: dst, Err: fs.ErrExist}
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	var err error
	if opt.Overwrite {
		err = Rename(src, dst)
	} else {
		err = wrapRename(src, dst, renameNoReplaceFunc(src, dst))
	}
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) || !opt.AllowCopy {
		return err
	}

	if err := copyFileVerified(src, dst, opt.Overwrite); err != nil {
		return fmt.Errorf("跨盘复制失败：%w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("已复制到 %q 但删除源文件失败：%w", dst, err)
	}
	return nil
}

// EnsureDir 确保 dir 存在且是目录（不存在则递归创建）。
func EnsureDir(dir string) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteFileAtomic 在 dir 下原子写入 name（临时文件 + rename）；目标已存在则覆盖。
//
// 用于 settings.json / report 等内部状态文件。
func WriteFileAtomic(dir, name string, data []byte) error {
	return writeFileAtomic(dir, name, data, 0o644)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'，避免被扫描时误当作普通文件处理）。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := Rename(tmpName, dst); err != nil {
		return err
	}

	// 目录 fsync：best-effort（不同平台/文件系统的语义差异很大）。
	_ = syncDirBestEffort(dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
