package scan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestCandidates_RecursiveAllFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "sub", "b.pdf"))
	touch(t, filepath.Join(root, "sub", "deep", "c"))
	touch(t, filepath.Join(root, "other", "d.ZIP"))

	got := mustCollect(t, root, nil)
	if len(got) != 4 {
		t.Fatalf("期望 4 个候选，实际 %d：%v", len(got), got)
	}
	want := []string{"a.jpg", filepath.Join("other", "d.ZIP"), filepath.Join("sub", "b.pdf"), filepath.Join("sub", "deep", "c")}
	sort.Strings(got)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("候选不符合预期：got=%v want=%v", got, want)
		}
	}
}

func TestCandidates_ExcludeDestinationsNestedUnderSource(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Sorted", "Images", "old.jpg"))
	touch(t, filepath.Join(root, "Sorted", "Others", "x.bin"))
	touch(t, filepath.Join(root, "in", "new.jpg"))

	dests := []string{filepath.Join(root, "Sorted", "Images"), filepath.Join(root, "Sorted", "Others")}
	got := mustCollect(t, root, dests)
	if len(got) != 1 || got[0] != filepath.Join("in", "new.jpg") {
		t.Fatalf("目标目录下的文件必须被排除：%v", got)
	}
}

func TestCandidates_SiblingPrefixNotExcluded(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Images", "a.jpg"))
	touch(t, filepath.Join(root, "ImagesOld", "b.jpg"))

	got := mustCollect(t, root, []string{filepath.Join(root, "Images")})
	if len(got) != 1 || got[0] != filepath.Join("ImagesOld", "b.jpg") {
		t.Fatalf("同前缀的兄弟目录不应被排除：%v", got)
	}
}

func TestCandidates_SourceUnderDestination(t *testing.T) {
	dest := t.TempDir()
	root := filepath.Join(dest, "inbox")
	touch(t, filepath.Join(root, "a.txt"))

	got := mustCollect(t, root, []string{dest})
	if len(got) != 0 {
		t.Fatalf("源目录本身位于目标目录下时应产出 0 个候选：%v", got)
	}
}

func TestCandidates_RelativeAndSymlinkedDestination(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "real", "a.jpg"))
	touch(t, filepath.Join(root, "b.jpg"))

	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(filepath.Join(root, "real"), link); err != nil {
		t.Skipf("当前平台不支持符号链接：%v", err)
	}

	got := mustCollect(t, root, []string{link})
	if len(got) != 1 || got[0] != "b.jpg" {
		t.Fatalf("符号链接形式的目标目录应按真实路径排除：%v", got)
	}
}

func TestCandidates_SkipsSymlinkFiles(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a.txt")
	touch(t, target)
	if err := os.Symlink(target, filepath.Join(root, "b.txt")); err != nil {
		t.Skipf("当前平台不支持符号链接：%v", err)
	}

	got := mustCollect(t, root, nil)
	if len(got) != 1 || got[0] != "a.txt" {
		t.Fatalf("只应产出普通文件：%v", got)
	}
}

func TestCandidates_RootNotFound(t *testing.T) {
	_, err := Candidates(filepath.Join(t.TempDir(), "missing"), nil)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("期望 NotFoundError，实际：%T %v", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("NotFoundError 应可被 errors.Is(fs.ErrNotExist) 识别：%v", err)
	}
}

func TestCandidates_RootIsFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	touch(t, p)
	_, err := Candidates(p, nil)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("文件作为源目录应报错，实际：%v", err)
	}
}

func TestCandidates_CandidateFields(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "photo.JPG"))

	seq, err := Candidates(root, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	cs, errs := Collect(seq)
	if len(errs) != 0 || len(cs) != 1 {
		t.Fatalf("期望 1 个候选且无错误：%v %v", cs, errs)
	}
	c := cs[0]
	if c.Name != "photo.JPG" || c.Ext != ".JPG" || c.Size != 1 {
		t.Fatalf("候选字段不符合预期：%+v", c)
	}
	if !filepath.IsAbs(c.AbsPath) {
		t.Fatalf("AbsPath 必须是绝对路径：%q", c.AbsPath)
	}
}

func TestCandidates_Lazy_StopEarly(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"a", "b", "c"} {
		touch(t, filepath.Join(root, n+".txt"))
	}
	seq, err := Candidates(root, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	n := 0
	for range seq {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("提前 break 后不应继续产出：n=%d", n)
	}
}

func TestIsUnder(t *testing.T) {
	sep := string(filepath.Separator)
	base := sep + filepath.Join("dest", "Images")
	cases := []struct {
		path string
		want bool
	}{
		{base, true},
		{filepath.Join(base, "a.jpg"), true},
		{base + "Old", false},
		{filepath.Join(base+"Old", "a.jpg"), false},
		{sep + "dest", false},
	}
	for _, c := range cases {
		if got := IsUnder(c.path, base); got != c.want {
			t.Fatalf("IsUnder(%q, %q)=%v，期望 %v", c.path, base, got, c.want)
		}
	}
	if !IsUnder(filepath.Join(sep, "x"), sep) {
		t.Fatalf("任何绝对路径都位于根目录之下")
	}
}

func mustCollect(t *testing.T, root string, dests []string) []string {
	t.Helper()
	seq, err := Candidates(root, dests)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	cs, errs := Collect(seq)
	if len(errs) != 0 {
		t.Fatalf("不期望扫描错误：%v", errs)
	}
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.RelPath)
	}
	return out
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func TestCanonical_NonExistingTailKeepsResolvedAncestor(t *testing.T) {
	base := t.TempDir()
	real := Canonical(base)

	got := Canonical(filepath.Join(base, "not", "yet"))
	if want := filepath.Join(real, "not", "yet"); got != want {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}
}

func TestCandidates_UnreadableDirYieldsWalkErrorAndContinues(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "locked", "hidden.pdf"))
	touch(t, filepath.Join(root, "zzz", "b.txt"))

	orig := walkDirFunc
	t.Cleanup(func() { walkDirFunc = orig })
	// 模拟 WalkDir 读取 locked 目录失败：先正常进入，再以读取错误回调一次。
	walkDirFunc = func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && d.Name() == "locked" {
				if r := fn(path, d, nil); r != nil {
					return r
				}
				return fn(path, d, fs.ErrPermission)
			}
			return fn(path, d, err)
		})
	}

	seq, err := Candidates(root, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	cands, errs := Collect(seq)

	if len(errs) != 1 {
		t.Fatalf("期望 1 个扫描错误，实际 %d：%v", len(errs), errs)
	}
	var we *WalkError
	if !errors.As(errs[0], &we) || !errors.Is(errs[0], fs.ErrPermission) {
		t.Fatalf("期望 WalkError(ErrPermission)，实际 %v", errs[0])
	}
	if filepath.Base(we.Path) != "locked" {
		t.Fatalf("WalkError.Path 应指向 locked 目录，实际 %q", we.Path)
	}

	var names []string
	for _, c := range cands {
		names = append(names, c.RelPath)
	}
	sort.Strings(names)
	want := []string{"a.jpg", filepath.Join("zzz", "b.txt")}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Fatalf("不可读目录应被跳过、其他文件照常产出：got=%v want=%v", names, want)
	}
}
