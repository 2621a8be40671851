// Package runlock 用文件锁保证同一状态目录下只有一个 run 在移动文件。
package runlock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/John-Robertt/FileOrganizer/internal/infra/fsx"
)

// ErrLocked 表示另一个进程已持有锁。
var ErrLocked = errors.New("另一个 fileorg run 正在进行")

// Lock 是已获取的 run 锁。
type Lock struct {
	fl *flock.Flock
}

// Acquire 在 path 上非阻塞地获取独占锁；已被占用时返回包装了 ErrLocked 的错误。
func Acquire(path string) (*Lock, error) {
	if err := fsx.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("获取锁 %s 失败：%w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w（锁文件：%s）", ErrLocked, path)
	}
	return &Lock{fl: fl}, nil
}

// Path 返回锁文件路径。
func (l *Lock) Path() string { return l.fl.Path() }

// Release 释放锁；对 nil 或已释放的锁调用是安全的。
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
