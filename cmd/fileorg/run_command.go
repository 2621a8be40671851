package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/FileOrganizer/internal/app/run"
	"github.com/John-Robertt/FileOrganizer/internal/classify"
	"github.com/John-Robertt/FileOrganizer/internal/config"
	"github.com/John-Robertt/FileOrganizer/internal/conflict"
	"github.com/John-Robertt/FileOrganizer/internal/domain"
	"github.com/John-Robertt/FileOrganizer/internal/history"
	"github.com/John-Robertt/FileOrganizer/internal/infra/runlock"
)

type runFlags struct {
	dests       map[domain.Category]*string
	onConflict  conflictFlag
	dryRun      bool
	crossDevice string
}

func newRunCommand(s *streams, g *globalFlags) *cobra.Command {
	f := &runFlags{dests: make(map[domain.Category]*string, 6)}

	cmd := &cobra.Command{
		Use:   "run [source]",
		Short: "扫描源目录并把文件移动到各分组目录",
		Long: `扫描源目录（递归，排除所有目标目录），按扩展名把文件移动到对应分组目录。

源目录与目标目录依次取自：命令行参数 > 配置文件 > 已保存设置（fileorg config save）。
未配置的目标目录默认为 <source>/Sorted/<分组>。`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := config.CLIArgs{
				OnConflict:   f.onConflict.value,
				CrossDevice:  f.crossDevice,
				DryRun:       f.dryRun,
				DryRunSet:    cmd.Flags().Changed("dry-run"),
				Destinations: map[domain.Category]string{},
			}
			if len(args) == 1 {
				cli.Source = args[0]
			}
			for c, p := range f.dests {
				if cmd.Flags().Changed(string(c)) {
					cli.Destinations[c] = *p
				}
			}
			return runOrganize(cmd, s, g, cli)
		},
	}

	fl := cmd.Flags()
	for _, c := range domain.AllCategories() {
		f.dests[c] = fl.String(string(c), "", fmt.Sprintf("%s 目标目录", c.Title()))
	}
	fl.Var(&f.onConflict, "on-conflict", "目标已存在时：rename|skip|overwrite|ask（默认 rename）")
	fl.BoolVar(&f.dryRun, "dry-run", false, "只输出计划结果，不创建目录、不移动文件")
	fl.StringVar(&f.crossDevice, "cross-device", "", "跨文件系统移动：fail|copy（默认 fail）")

	return cmd
}

func runOrganize(cmd *cobra.Command, s *streams, g *globalFlags, cli config.CLIArgs) error {
	eff, stateDir, err := loadEffective(g, cli)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("配置错误：%w", err)}
	}

	log, err := newLogger(eff, s.err)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	log = log.With("component", "run")

	lock, err := runlock.Acquire(lockPath(stateDir))
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	log.Debug("已获取 run 锁", "lock", lock.Path())
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("释放 run 锁失败", "error", err)
		}
	}()

	interactive := isTerminal(s.out)
	// stdout 非终端时只输出 RunReport JSON；逐行结果改写到 stderr。
	progressW := s.out
	if !interactive {
		progressW = s.err
	}
	obs := newProgressUI(progressW, interactive)

	req := run.Request{
		Source:               eff.Source,
		Destinations:         eff.Destinations,
		Categories:           classify.Default(),
		Policy:               pickPolicy(eff.OnConflict, s, log),
		DryRun:               eff.DryRun,
		AllowCrossDeviceCopy: eff.CrossDevice == "copy",
		Logger:               log,
	}

	rr, err := run.ExecuteWithObserver(cmd.Context(), req, obs)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	recordHistory(cmd, stateDir, rr, log)

	if !interactive {
		if err := writeJSON(s, rr); err != nil {
			return &exitError{code: 1, err: err}
		}
	}
	if rr.Summary.Failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// pickPolicy 把 on_conflict 映射为冲突策略；ask 在 stdin 不是终端时退化为 rename。
func pickPolicy(mode string, s *streams, log *slog.Logger) conflict.Policy {
	if mode == "ask" {
		if isTerminal(s.in) {
			out := s.err
			if !isTerminal(out) {
				out = s.out
			}
			return &promptPolicy{in: s.in, out: out}
		}
		log.Warn("stdin 不是终端，on_conflict=ask 退化为 rename")
		return conflict.RenamePolicy
	}
	d, err := conflict.ParseDecision(mode)
	if err != nil {
		log.Warn("未知冲突策略，使用 rename", "on_conflict", mode)
		return conflict.RenamePolicy
	}
	return conflict.Fixed(d)
}

// recordHistory 写入运行历史；失败只记日志，不影响退出码。
func recordHistory(cmd *cobra.Command, stateDir string, rr domain.RunReport, log *slog.Logger) {
	// 被取消的 run 也要留下记录。
	ctx := context.WithoutCancel(cmd.Context())
	store, err := history.Open(ctx, historyPath(stateDir))
	if err != nil {
		log.Warn("打开历史记录失败", "error", err)
		return
	}
	defer store.Close()
	if err := store.Record(ctx, rr); err != nil {
		log.Warn("写入历史记录失败", "run_id", rr.RunID, "error", err)
		return
	}
	log.Debug("已写入历史记录", "run_id", rr.RunID, "db", store.Path())
}
