package conflict

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSafePath_SmallestUnusedSuffix(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "photo.jpg"))
	touch(t, filepath.Join(dir, "photo_1.jpg"))
	touch(t, filepath.Join(dir, "photo_3.jpg"))

	got, err := SafePath(dir, "photo.jpg")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(dir, "photo_2.jpg"); got != want {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}
}

func TestSafePath_StartsAtOne(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "report.PDF"))

	got, err := SafePath(dir, "report.PDF")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := filepath.Join(dir, "report_1.PDF"); got != want {
		t.Fatalf("期望 %q（保留扩展名大小写），实际 %q", want, got)
	}
}

func TestSafePath_NoExtAndDotfile(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Makefile"))
	touch(t, filepath.Join(dir, ".bashrc"))

	got, err := SafePath(dir, "Makefile")
	if err != nil || got != filepath.Join(dir, "Makefile_1") {
		t.Fatalf("无扩展名：got=%q err=%v", got, err)
	}
	got, err = SafePath(dir, ".bashrc")
	if err != nil || got != filepath.Join(dir, ".bashrc_1") {
		t.Fatalf("点文件：got=%q err=%v", got, err)
	}
}

func TestSafePath_MultiDotKeepsLastExt(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "backup.tar.gz"))

	got, err := SafePath(dir, "backup.tar.gz")
	if err != nil || got != filepath.Join(dir, "backup.tar_1.gz") {
		t.Fatalf("got=%q err=%v", got, err)
	}
}

func TestSafePath_LongNameTruncated(t *testing.T) {
	name := strings.Repeat("长", 100) + ".txt" // 300+ 字节
	got, err := SafePath(t.TempDir(), name)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	base := filepath.Base(got)
	if len(base) > maxNameBytes {
		t.Fatalf("文件名超长：%d 字节", len(base))
	}
	if !strings.HasSuffix(base, "_1.txt") {
		t.Fatalf("应保留后缀与扩展名：%q", base)
	}
}

func TestSafePathReserved_AvoidsPlannedNames(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.txt"))
	reserved := map[string]struct{}{}

	first, err := SafePathReserved(dir, "a.txt", reserved)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	second, err := SafePathReserved(dir, "a.txt", reserved)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if first != filepath.Join(dir, "a_1.txt") || second != filepath.Join(dir, "a_2.txt") {
		t.Fatalf("预留名冲突处理不正确：%q %q", first, second)
	}
}

func TestResolver_Decisions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.txt"))
	ctx := context.Background()

	res, err := Resolver{Policy: SkipPolicy}.Resolve(ctx, dir, "a.txt", "/src/a.txt")
	if err != nil || res.Decision != Skip || res.Path != "" {
		t.Fatalf("skip：res=%+v err=%v", res, err)
	}

	res, err = Resolver{Policy: OverwritePolicy}.Resolve(ctx, dir, "a.txt", "/src/a.txt")
	if err != nil || res.Decision != Overwrite || res.Path != filepath.Join(dir, "a.txt") {
		t.Fatalf("overwrite：res=%+v err=%v", res, err)
	}

	// nil Policy 默认 rename。
	res, err = Resolver{}.Resolve(ctx, dir, "a.txt", "/src/a.txt")
	if err != nil || res.Decision != Rename || res.Path != filepath.Join(dir, "a_1.txt") {
		t.Fatalf("rename：res=%+v err=%v", res, err)
	}
}

func TestResolver_PolicyErrorPropagates(t *testing.T) {
	boom := errors.New("prompt closed")
	p := PolicyFunc(func(context.Context, Conflict) (Decision, error) { return 0, boom })

	_, err := Resolver{Policy: p}.Resolve(context.Background(), t.TempDir(), "a.txt", "/src/a.txt")
	if !errors.Is(err, boom) {
		t.Fatalf("期望透传策略错误，实际：%v", err)
	}
}

func TestScriptedPolicy(t *testing.T) {
	p := &ScriptedPolicy{ByName: map[string]Decision{"keep.txt": Skip}, Default: Rename}
	ctx := context.Background()

	if d, _ := p.Decide(ctx, Conflict{Name: "keep.txt"}); d != Skip {
		t.Fatalf("期望 skip，实际 %v", d)
	}
	if d, _ := p.Decide(ctx, Conflict{Name: "other.txt"}); d != Rename {
		t.Fatalf("期望 rename，实际 %v", d)
	}
	if len(p.Calls) != 2 || p.Calls[0].Name != "keep.txt" {
		t.Fatalf("调用记录不正确：%+v", p.Calls)
	}
}

func TestParseDecision(t *testing.T) {
	for in, want := range map[string]Decision{"rename": Rename, " SKIP ": Skip, "Overwrite": Overwrite} {
		got, err := ParseDecision(in)
		if err != nil || got != want {
			t.Fatalf("ParseDecision(%q)=%v err=%v", in, got, err)
		}
	}
	if _, err := ParseDecision("ask"); err == nil {
		t.Fatalf("ask 不是无头决策，应报错")
	}
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
