package domain

import "time"

// RunReport 是对外稳定输出（stdout JSON / history）的结构。
type RunReport struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// NothingToDo 表示扫描未发现任何候选文件（信息提示，不是错误）。
	NothingToDo bool `json:"nothing_to_do"`

	Summary  ReportSummary `json:"summary"`
	Outcomes []MoveOutcome `json:"outcomes"`
	// Warnings 收集非致命的扫描问题（例如无权限读取的子目录）。
	Warnings []string `json:"warnings"`
}

type ReportSummary struct {
	Moved      int   `json:"moved"`
	Skipped    int   `json:"skipped"`
	Failed     int   `json:"failed"`
	Renamed    int   `json:"renamed"`
	BytesMoved int64 `json:"bytes_moved"`
}

// Total 是全部 outcome 数量。
func (s ReportSummary) Total() int { return s.Moved + s.Skipped + s.Failed }

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 outcomes 计算得出
//
// outcomes 保持扫描顺序，不重排。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Outcomes == nil {
		r.Outcomes = []MoveOutcome{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}

	var s ReportSummary
	for _, o := range r.Outcomes {
		switch o.Kind {
		case OutcomeMoved:
			s.Moved++
			s.BytesMoved += o.Size
			if o.Renamed {
				s.Renamed++
			}
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
	}
	r.Summary = s
	r.NothingToDo = len(r.Outcomes) == 0
}
