package run

import (
	"time"

	"github.com/John-Robertt/FileOrganizer/internal/domain"
)

// Observer 用于把“运行进度/阶段/单文件结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 事件在调用 Execute 的 goroutine 上同步触发，顺序即处理顺序。
type Observer interface {
	// OnStart 在开始时调用（source/destinations 已规范化）。
	OnStart(req Request)
	// OnPhaseDone 在阶段结束时调用（prepare/scan/exec）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnItemDone 在每个候选文件得到结果后调用；idx 从 1 开始。
	OnItemDone(idx, total int, c domain.Candidate, o domain.MoveOutcome, dur time.Duration)
	// OnFinish 在 report 定稿后调用（致命错误时不会调用）。
	OnFinish(rr domain.RunReport)
}

// NopObserver 丢弃所有事件。
type NopObserver struct{}

func (NopObserver) OnStart(Request)                                                         {}
func (NopObserver) OnPhaseDone(string, map[string]any, time.Duration)                       {}
func (NopObserver) OnItemDone(int, int, domain.Candidate, domain.MoveOutcome, time.Duration) {}
func (NopObserver) OnFinish(domain.RunReport)                                               {}
