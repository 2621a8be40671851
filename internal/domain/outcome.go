package domain

const (
	OutcomeMoved   = "moved"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

const (
	SkipReasonConflict = "conflict"
	SkipReasonCanceled = "canceled"
)

// MoveOutcome 是单个 Candidate 的最终结果：Moved / Skipped / Failed 三选一。
type MoveOutcome struct {
	Src      string   `json:"src"`
	Category Category `json:"category"`
	Kind     string   `json:"kind"`

	// FinalPath 仅 Moved 时非空（dry-run 下为计划路径）。
	FinalPath string `json:"final_path"`
	// Renamed 表示因冲突使用了带后缀的安全路径。
	Renamed bool `json:"renamed"`
	// Overwrote 表示冲突决策为覆盖已有文件。
	Overwrote bool `json:"overwrote"`

	Reason   string `json:"reason"`
	ErrorMsg string `json:"error_msg"`
	Size     int64  `json:"size"`

	// Err 保留原始错误（供 errors.Is/As 使用）；不参与 JSON。
	Err error `json:"-"`
}

func Moved(c Candidate, cat Category, finalPath string) MoveOutcome {
	return MoveOutcome{Src: c.AbsPath, Category: cat, Kind: OutcomeMoved, FinalPath: finalPath, Size: c.Size}
}

func Skipped(c Candidate, cat Category, reason string) MoveOutcome {
	return MoveOutcome{Src: c.AbsPath, Category: cat, Kind: OutcomeSkipped, Reason: reason, Size: c.Size}
}

func Failed(c Candidate, cat Category, err error) MoveOutcome {
	o := MoveOutcome{Src: c.AbsPath, Category: cat, Kind: OutcomeFailed, Size: c.Size, Err: err}
	if err != nil {
		o.ErrorMsg = err.Error()
	}
	return o
}
