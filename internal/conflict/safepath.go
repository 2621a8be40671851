package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxNameBytes 是常见文件系统的单个文件名长度上限（NAME_MAX）。
const maxNameBytes = 255

// SafePath 返回 dir 下第一个不存在的 "<base>_<n><ext>"，n 从 1 开始递增。
//
// - 扩展名保持不变；点开头且无其它点的文件名（.bashrc）整体视为 base
// - 追加后缀后超长的文件名会截断 base（按 UTF-8 字符边界）
// - Lstat 返回“不存在”以外的错误时直接失败，避免在不可读目录里无限尝试
func SafePath(dir, name string) (string, error) {
	return SafePathReserved(dir, name, nil)
}

// SafePathReserved 与 SafePath 相同，但还会避开 reserved 中的绝对路径。
// 选中的路径会写回 reserved（reserved 非 nil 时）。
func SafePathReserved(dir, name string, reserved map[string]struct{}) (string, error) {
	base, ext := splitName(name)
	if ext != "" && len(ext) >= maxNameBytes-2 {
		return "", fmt.Errorf("文件名过长，无法生成安全路径：%q", name)
	}

	for n := 1; ; n++ {
		cand := filepath.Join(dir, candidateName(base, ext, n))
		if _, ok := reserved[cand]; ok {
			continue
		}
		_, err := os.Lstat(cand)
		if err == nil {
			continue
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("检查目标路径 %q 失败：%w", cand, err)
		}
		if reserved != nil {
			reserved[cand] = struct{}{}
		}
		return cand, nil
	}
}

func splitName(name string) (base, ext string) {
	ext = filepath.Ext(name)
	base = strings.TrimSuffix(name, ext)
	if base == "" {
		// ".bashrc"：没有真正的扩展名。
		return name, ""
	}
	return base, ext
}

func candidateName(base, ext string, n int) string {
	suffix := "_" + strconv.Itoa(n)
	budget := maxNameBytes - len(suffix) - len(ext)
	if len(base) > budget {
		base = truncateUTF8(base, budget)
	}
	return base + suffix + ext
}

func truncateUTF8(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
