package main

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/FileOrganizer/internal/app"
	"github.com/John-Robertt/FileOrganizer/internal/app/run"
	"github.com/John-Robertt/FileOrganizer/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 把 run 事件渲染成逐行输出。
//
// 每个候选文件恰好一行（Moved / Skipped / Error），结束时一行摘要。
// verbose 时额外输出生效配置、阶段耗时和分组统计表（仅交互终端）。
type progressUI struct {
	w       io.Writer
	verbose bool

	okStyle   lipgloss.Style
	skipStyle lipgloss.Style
	failStyle lipgloss.Style
	headStyle lipgloss.Style
	faint     lipgloss.Style

	mu     sync.Mutex
	dryRun bool
}

func newProgressUI(w io.Writer, verbose bool) *progressUI {
	// 渲染器绑定到实际输出：非终端时自动退化为无颜色文本。
	r := lipgloss.NewRenderer(w)
	return &progressUI{
		w:         w,
		verbose:   verbose,
		okStyle:   r.NewStyle().Foreground(lipgloss.Color("78")),
		skipStyle: r.NewStyle().Foreground(lipgloss.Color("214")),
		failStyle: r.NewStyle().Foreground(lipgloss.Color("197")),
		headStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		faint:     r.NewStyle().Faint(true),
	}
}

func (p *progressUI) OnStart(req run.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dryRun = req.DryRun
	if !p.verbose {
		return
	}

	mode := "apply"
	if req.DryRun {
		mode = "dry-run（不创建目录/不移动文件）"
	}
	fmt.Fprintln(p.w, p.headStyle.Render(fmt.Sprintf("[%s] fileorg run", time.Now().Format("15:04:05"))))
	fmt.Fprintf(p.w, "  source: %s\n", req.Source)
	fmt.Fprintf(p.w, "  mode: %s\n", mode)

	cats := domain.AllCategories()
	for _, c := range cats {
		fmt.Fprintf(p.w, "  %-7s -> %s\n", c.Title(), req.Destinations.For(c))
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.verbose {
		return
	}
	fmt.Fprintln(p.w, p.faint.Render(fmt.Sprintf("%s: %s (%s)", name, formatFields(fields), formatShortDuration(dur))))
}

func (p *progressUI) OnItemDone(idx, total int, c domain.Candidate, o domain.MoveOutcome, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, p.itemLine(o))
}

func (p *progressUI) itemLine(o domain.MoveOutcome) string {
	prefix := ""
	if p.dryRun {
		prefix = "[dry-run] "
	}
	switch o.Kind {
	case domain.OutcomeMoved:
		line := fmt.Sprintf("Moved %s to %s", o.Src, o.FinalPath)
		if o.Renamed {
			line += " (renamed)"
		}
		if o.Overwrote {
			line += " (overwritten)"
		}
		return p.okStyle.Render(prefix + line)
	case domain.OutcomeSkipped:
		if o.Reason == domain.SkipReasonConflict {
			return p.skipStyle.Render(fmt.Sprintf("%sSkipped %s due to conflict", prefix, o.Src))
		}
		return p.skipStyle.Render(fmt.Sprintf("%sSkipped %s (%s)", prefix, o.Src, o.Reason))
	default:
		return p.failStyle.Render(fmt.Sprintf("%sError moving %s: %s", prefix, o.Src, o.ErrorMsg))
	}
}

func (p *progressUI) OnFinish(rr domain.RunReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if rr.NothingToDo {
		fmt.Fprintln(p.w, p.faint.Render("Nothing to do: no files found in "+rr.Source))
		return
	}

	s := rr.Summary
	line := fmt.Sprintf("Done: moved=%d skipped=%d failed=%d renamed=%d (%s)",
		s.Moved, s.Skipped, s.Failed, s.Renamed, humanize.IBytes(uint64(s.BytesMoved)))
	if s.Failed > 0 {
		fmt.Fprintln(p.w, p.failStyle.Render(line))
	} else {
		fmt.Fprintln(p.w, p.headStyle.Render(line))
	}

	if p.verbose {
		if t := renderCategoryTable(app.GroupByCategory(rr.Outcomes)); t != "" {
			fmt.Fprintln(p.w, t)
		}
		for _, warn := range rr.Warnings {
			fmt.Fprintln(p.w, p.skipStyle.Render("warning: "+warn))
		}
	}
}

func formatFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", k, fields[k])
	}
	return out
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
