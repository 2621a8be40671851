package main

import (
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/John-Robertt/FileOrganizer/internal/app"
	"github.com/John-Robertt/FileOrganizer/internal/domain"
	"github.com/John-Robertt/FileOrganizer/internal/history"
)

const timeLayout = "2006-01-02 15:04:05"

// newTable 返回圆角样式、表头左对齐的表格；numeric 中的列号（从 1 开始）右对齐。
func newTable(header table.Row, numeric ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)

	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, n := range numeric {
		configs = append(configs, table.ColumnConfig{
			Number:      n,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

// renderCategoryTable 渲染 run 结束时的分组统计；没有任何 outcome 时返回空串。
func renderCategoryTable(stats []app.CategoryStat) string {
	if len(stats) == 0 {
		return ""
	}
	tw := newTable(table.Row{"Category", "Moved", "Skipped", "Failed", "Size"}, 2, 3, 4, 5)
	var total app.CategoryStat
	for _, st := range stats {
		tw.AppendRow(table.Row{st.Category.Title(), st.Moved, st.Skipped, st.Failed, humanize.IBytes(uint64(st.Bytes))})
		total.Moved += st.Moved
		total.Skipped += st.Skipped
		total.Failed += st.Failed
		total.Bytes += st.Bytes
	}
	if len(stats) > 1 {
		tw.AppendFooter(table.Row{"Total", total.Moved, total.Skipped, total.Failed, humanize.IBytes(uint64(total.Bytes))})
	}
	return tw.Render()
}

func renderRunsTable(runs []history.Run) string {
	tw := newTable(table.Row{"Run", "Started", "Age", "Mode", "Source", "Moved", "Skipped", "Failed", "Size"}, 6, 7, 8, 9)
	for _, r := range runs {
		mode := "apply"
		if r.DryRun {
			mode = "dry-run"
		}
		tw.AppendRow(table.Row{
			r.RunID,
			r.StartedAt.Local().Format(timeLayout),
			humanize.Time(r.StartedAt),
			mode,
			r.Source,
			r.Summary.Moved,
			r.Summary.Skipped,
			r.Summary.Failed,
			humanize.IBytes(uint64(r.Summary.BytesMoved)),
		})
	}
	return tw.Render()
}

// renderOutcomesTable 逐文件列出一次 run 的结果；错误信息过长时按字符截断。
func renderOutcomesTable(outs []domain.MoveOutcome) string {
	tw := newTable(table.Row{"Result", "Category", "Source", "Target / Reason"})
	for _, o := range outs {
		detail := o.FinalPath
		switch {
		case o.ErrorMsg != "":
			detail = truncateRunes(o.ErrorMsg, 120)
		case o.Reason != "":
			detail = o.Reason
		}
		tw.AppendRow(table.Row{o.Kind, o.Category.Title(), o.Src, detail})
	}
	return tw.Render()
}

// truncateRunes 按字符（而非字节）截断，结果始终是合法 UTF-8。
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
