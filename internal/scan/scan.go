package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/FileOrganizer/internal/domain"
)

// NotFoundError 表示源根目录不存在（或不是目录）。
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("源目录不存在：%q：%v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// WalkError 是扫描中遇到的非致命错误（例如无权限读取的子目录）；该路径被跳过。
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string {
	return fmt.Sprintf("扫描 %q 失败：%v", e.Path, e.Err)
}

func (e *WalkError) Unwrap() error { return e.Err }

// walkDirFunc 可替换，便于测试稳定模拟目录读取失败。
var walkDirFunc = filepath.WalkDir

// Candidates 递归扫描 root 下的普通文件，并排除位于任一目标目录下的文件。
//
// 规则（硬约束）：
// - root 不存在：立即返回 NotFoundError
// - 必须递归遍历全部子目录；只产出普通文件（符号链接/设备文件等跳过）
// - 排除判断基于规范化后的绝对路径，且按路径分隔符边界比较：
//   /dest/Images 不会误伤 /dest/ImagesOld
//
// 返回的序列是惰性的：消费时才遍历；子目录读取失败会以 WalkError 产出并跳过该目录。
// 同一目录内按文件名字典序产出（WalkDir 的行为），因此结果可复现。
func Candidates(root string, destinations []string) (iter.Seq2[domain.Candidate, error], error) {
	canonRoot, err := canonicalRoot(root)
	if err != nil {
		return nil, err
	}
	excluded := buildExcluded(destinations)

	seq := func(yield func(domain.Candidate, error) bool) {
		_ = walkDirFunc(canonRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if !yield(domain.Candidate{}, &WalkError{Path: path, Err: walkErr}) {
					return filepath.SkipAll
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
			if isExcluded(path, excluded) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				// 遍历过程中被删除等：当作非致命错误。
				if !yield(domain.Candidate{}, &WalkError{Path: path, Err: err}) {
					return filepath.SkipAll
				}
				return nil
			}

			rel, err := filepath.Rel(canonRoot, path)
			if err != nil {
				rel = path
			}

			name := d.Name()
			c := domain.Candidate{
				AbsPath: path,
				RelPath: rel,
				Name:    name,
				Ext:     filepath.Ext(name),
				Size:    info.Size(),
			}
			if !yield(c, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
	return seq, nil
}

// Collect 消费整个序列：候选文件与非致命错误分开返回。
func Collect(seq iter.Seq2[domain.Candidate, error]) ([]domain.Candidate, []error) {
	var (
		out  []domain.Candidate
		errs []error
	)
	for c, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	return out, errs
}

// Canonical 把 p 变为 clean + absolute，并解析符号链接。
// 路径（或其尾部若干段）尚不存在时，解析最长的已存在祖先，再拼回剩余部分；
// 这样 dry-run 下尚未创建的目标目录也能与源路径按同一规范比较。
func Canonical(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}

	rest := ""
	cur := abs
	for {
		if real, err := filepath.EvalSymlinks(cur); err == nil {
			if rest == "" {
				return real
			}
			return filepath.Join(real, rest)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

// Root 校验并规范化源根目录：不存在或不是目录时返回 NotFoundError。
func Root(root string) (string, error) {
	return canonicalRoot(root)
}

func canonicalRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", &NotFoundError{Path: root, Err: fs.ErrNotExist}
	}
	p := Canonical(root)
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Path: p, Err: fs.ErrNotExist}
		}
		return "", &NotFoundError{Path: p, Err: err}
	}
	if !fi.IsDir() {
		return "", &NotFoundError{Path: p, Err: fmt.Errorf("不是目录")}
	}
	return p, nil
}

func buildExcluded(destinations []string) []string {
	excluded := make([]string, 0, len(destinations))
	for _, x := range destinations {
		x = Canonical(x)
		if x == "" {
			continue
		}
		excluded = append(excluded, x)
	}
	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if IsUnder(path, base) {
			return true
		}
	}
	return false
}

// IsUnder 判断 path 是否等于 base 或位于 base 之下（按路径分隔符边界比较）。
func IsUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	if strings.HasSuffix(base, sep) {
		// 根目录（"/"）等本身以分隔符结尾的情况。
		return strings.HasPrefix(path, base)
	}
	return strings.HasPrefix(path, base+sep)
}
