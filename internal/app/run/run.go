package run

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/FileOrganizer/internal/classify"
	"github.com/John-Robertt/FileOrganizer/internal/conflict"
	"github.com/John-Robertt/FileOrganizer/internal/domain"
	"github.com/John-Robertt/FileOrganizer/internal/infra/fsx"
	"github.com/John-Robertt/FileOrganizer/internal/logging"
	"github.com/John-Robertt/FileOrganizer/internal/scan"
)

// 通过可替换的函数指针，让测试能稳定模拟单文件移动失败。
var moveFunc = fsx.Move

const (
	StageSourceNotFound     = "source_not_found"
	StageDestinationInvalid = "destination_invalid"
	StageDestinationCreate  = "destination_create_failed"
)

// FatalError 是 run 级致命错误：在任何文件被移动之前中止整个 run。
type FatalError struct {
	Stage string
	Path  string
	Err   error
}

func (e *FatalError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s：%q：%v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：%v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Request 是一次 run 的全部输入；run 期间只读。
type Request struct {
	Source       string
	Destinations domain.DestinationSet
	// Categories 为零值时使用 classify.Default()。
	Categories classify.Map
	// Policy 为 nil 时冲突一律 rename。
	Policy conflict.Policy

	// DryRun 只计算结果，不创建目录、不移动文件。
	DryRun bool
	// AllowCrossDeviceCopy 在 EXDEV 时退化为 copy + 校验 + 删除源文件。
	AllowCrossDeviceCopy bool

	Logger *slog.Logger
}

// Execute 执行一次 run 并返回 RunReport。
//
// 只有两类致命错误会返回 error（此时 report 无意义）：源目录不存在、目标目录无法创建。
// 单文件失败一律降级为 Failed outcome，不影响其他文件。
func Execute(ctx context.Context, req Request) (domain.RunReport, error) {
	return ExecuteWithObserver(ctx, req, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息。
func ExecuteWithObserver(ctx context.Context, req Request, obs Observer) (domain.RunReport, error) {
	if obs == nil {
		obs = NopObserver{}
	}
	log := req.Logger
	if log == nil {
		log = logging.Nop()
	}
	if req.Categories.Len() == 0 {
		req.Categories = classify.Default()
	}

	started := time.Now().UTC()

	// 1) 源目录：唯一会中止整个 run 的输入检查。
	root, err := scan.Root(req.Source)
	if err != nil {
		return domain.RunReport{}, &FatalError{Stage: StageSourceNotFound, Path: req.Source, Err: err}
	}
	req.Source = root

	// 2) 目标目录：必须全部填写；apply 下确保存在。
	if err := req.Destinations.Validate(); err != nil {
		return domain.RunReport{}, &FatalError{Stage: StageDestinationInvalid, Err: err}
	}
	dests := req.Destinations.Clone()
	for c, p := range dests {
		dests[c] = scan.Canonical(p)
	}
	req.Destinations = dests

	obs.OnStart(req)

	prepStarted := time.Now()
	created := 0
	if !req.DryRun {
		for _, dir := range dests.Paths() {
			_, statErr := os.Stat(dir)
			if err := fsx.EnsureDir(dir); err != nil {
				return domain.RunReport{}, &FatalError{Stage: StageDestinationCreate, Path: dir, Err: err}
			}
			if os.IsNotExist(statErr) {
				created++
				log.Info("已创建目标目录", "dir", dir)
			}
		}
	}
	obs.OnPhaseDone("prepare", map[string]any{
		"destinations": len(dests.Paths()),
		"created":      created,
	}, time.Since(prepStarted))

	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		Source:    root,
		DryRun:    req.DryRun,
		StartedAt: started,
		Outcomes:  make([]domain.MoveOutcome, 0, 64),
	}

	// 3) 扫描：目标目录全部作为排除项。
	scanStarted := time.Now()
	seq, err := scan.Candidates(root, dests.Paths())
	if err != nil {
		return domain.RunReport{}, &FatalError{Stage: StageSourceNotFound, Path: root, Err: err}
	}
	candidates, walkErrs := scan.Collect(seq)
	for _, e := range walkErrs {
		log.Warn("扫描时跳过不可读路径", "error", e)
		rr.Warnings = append(rr.Warnings, e.Error())
	}
	obs.OnPhaseDone("scan", map[string]any{
		"files":    len(candidates),
		"warnings": len(walkErrs),
	}, time.Since(scanStarted))

	// 4) 没有候选：空结果（信息提示，不是错误）。
	if len(candidates) == 0 {
		log.Info("没有需要整理的文件", "source", root)
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		obs.OnFinish(rr)
		return rr, nil
	}

	// 5) 逐个处理：严格串行，单文件失败不影响后续。
	ex := executor{
		req: req,
		log: log,
		resolver: conflict.Resolver{
			Policy: req.Policy,
		},
	}
	if req.DryRun {
		ex.reserved = make(map[string]struct{}, len(candidates))
		ex.resolver.Reserved = ex.reserved
	}

	execStarted := time.Now()
	for i, c := range candidates {
		oneStarted := time.Now()
		var o domain.MoveOutcome
		if ctx.Err() != nil {
			o = domain.Skipped(c, req.Categories.Classify(c.Ext), domain.SkipReasonCanceled)
		} else {
			o = ex.one(ctx, c)
		}
		rr.Outcomes = append(rr.Outcomes, o)
		obs.OnItemDone(i+1, len(candidates), c, o, time.Since(oneStarted))
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	obs.OnPhaseDone("exec", map[string]any{
		"moved":   rr.Summary.Moved,
		"skipped": rr.Summary.Skipped,
		"failed":  rr.Summary.Failed,
	}, time.Since(execStarted))
	obs.OnFinish(rr)
	return rr, nil
}

type executor struct {
	req      Request
	log      *slog.Logger
	resolver conflict.Resolver
	// reserved 仅 dry-run 使用：记录已“计划占用”的目标路径。
	reserved map[string]struct{}
}

// one 处理单个候选：classify -> 目标目录 -> 冲突决策 -> move。
func (x *executor) one(ctx context.Context, c domain.Candidate) domain.MoveOutcome {
	cat := x.req.Categories.Classify(c.Ext)
	dir := x.req.Destinations.For(cat)
	target := filepath.Join(dir, c.Name)

	exists, err := x.occupied(target)
	if err != nil {
		x.log.Warn("检查目标路径失败", "src", c.AbsPath, "dst", target, "error", err)
		return domain.Failed(c, cat, err)
	}

	renamed, overwrite := false, false
	if exists {
		res, err := x.resolver.Resolve(ctx, dir, c.Name, c.AbsPath)
		if err != nil {
			x.log.Warn("冲突处理失败", "src", c.AbsPath, "dst", target, "error", err)
			return domain.Failed(c, cat, err)
		}
		switch res.Decision {
		case conflict.Skip:
			x.log.Debug("冲突：跳过", "src", c.AbsPath, "dst", target)
			return domain.Skipped(c, cat, domain.SkipReasonConflict)
		case conflict.Overwrite:
			overwrite = true
		case conflict.Rename:
			renamed = true
		}
		target = res.Path
	}

	if x.req.DryRun {
		x.reserved[target] = struct{}{}
	} else {
		err := moveFunc(c.AbsPath, target, fsx.MoveOptions{
			Overwrite: overwrite,
			AllowCopy: x.req.AllowCrossDeviceCopy,
		})
		if err != nil {
			x.log.Warn("移动失败", "src", c.AbsPath, "dst", target, "error", err)
			return domain.Failed(c, cat, err)
		}
	}

	x.log.Debug("已移动", "src", c.AbsPath, "dst", target, "category", string(cat), "dry_run", x.req.DryRun)
	o := domain.Moved(c, cat, target)
	o.Renamed = renamed
	o.Overwrote = overwrite
	return o
}

// occupied 判断目标路径是否已被占用（dry-run 下还包括本次计划占用的路径）。
func (x *executor) occupied(p string) (bool, error) {
	if _, ok := x.reserved[p]; ok {
		return true, nil
	}
	_, err := os.Lstat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
