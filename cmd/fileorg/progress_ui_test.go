package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/John-Robertt/FileOrganizer/internal/app/run"
	"github.com/John-Robertt/FileOrganizer/internal/domain"
)

func TestProgressUI_OneLinePerCandidate(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf, false)

	p.OnStart(run.Request{Source: "/in"})
	p.OnPhaseDone("scan", map[string]any{"files": 3}, time.Second)

	outs := []domain.MoveOutcome{
		{Src: "/in/a.jpg", Kind: domain.OutcomeMoved, FinalPath: "/out/Images/a.jpg", Size: 2048},
		{Src: "/in/b.pdf", Kind: domain.OutcomeSkipped, Reason: domain.SkipReasonConflict},
		{Src: "/in/c.txt", Kind: domain.OutcomeFailed, ErrorMsg: "permission denied"},
	}
	for i, o := range outs {
		p.OnItemDone(i+1, len(outs), domain.Candidate{AbsPath: o.Src}, o, 0)
	}
	rr := domain.RunReport{Source: "/in", Outcomes: outs}
	rr.Finalize()
	p.OnFinish(rr)

	want := []string{
		"Moved /in/a.jpg to /out/Images/a.jpg",
		"Skipped /in/b.pdf due to conflict",
		"Error moving /in/c.txt: permission denied",
		"Done: moved=1 skipped=1 failed=1 renamed=0 (2.0 KiB)",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("期望 %d 行，实际 %d 行：%q", len(want), len(got), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("第 %d 行：期望 %q，实际 %q", i+1, want[i], got[i])
		}
	}
}

func TestProgressUI_DryRunPrefixAndNothingToDo(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf, false)
	p.OnStart(run.Request{Source: "/in", DryRun: true})
	p.OnItemDone(1, 1, domain.Candidate{}, domain.MoveOutcome{
		Src: "/in/a.jpg", Kind: domain.OutcomeMoved, FinalPath: "/out/a_1.jpg", Renamed: true,
	}, 0)
	if !strings.Contains(buf.String(), "[dry-run] Moved /in/a.jpg to /out/a_1.jpg (renamed)") {
		t.Fatalf("dry-run 行不符合预期：%q", buf.String())
	}

	buf.Reset()
	rr := domain.RunReport{Source: "/in"}
	rr.Finalize()
	p.OnFinish(rr)
	if !strings.Contains(buf.String(), "Nothing to do") {
		t.Fatalf("空目录应提示 Nothing to do：%q", buf.String())
	}
}

func TestProgressUI_VerboseTable(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf, true)
	rr := domain.RunReport{Source: "/in", Outcomes: []domain.MoveOutcome{
		{Src: "/in/a.jpg", Category: domain.CategoryImages, Kind: domain.OutcomeMoved, Size: 10},
	}}
	rr.Finalize()
	p.OnFinish(rr)

	out := buf.String()
	if !strings.Contains(out, "Category") || !strings.Contains(out, "Images") {
		t.Fatalf("verbose 模式应输出分组统计表：%q", out)
	}
}

func TestProgressUI_ErrorMessageNotTruncated(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf, false)

	msg := "跨文件系统移动失败：" + strings.Repeat("目录名称很长", 30) + "END"
	p.OnItemDone(1, 1, domain.Candidate{}, domain.MoveOutcome{
		Src: "/in/a.mkv", Kind: domain.OutcomeFailed, ErrorMsg: msg,
	}, 0)

	line := strings.TrimRight(buf.String(), "\n")
	if want := "Error moving /in/a.mkv: " + msg; line != want {
		t.Fatalf("错误信息应完整输出：\n期望 %q\n实际 %q", want, line)
	}
	if !utf8.ValidString(line) {
		t.Fatalf("输出不是合法 UTF-8：%q", line)
	}
}
