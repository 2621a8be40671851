package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/FileOrganizer/internal/config"
	"github.com/John-Robertt/FileOrganizer/internal/domain"
	"github.com/John-Robertt/FileOrganizer/internal/history"
)

func newHistoryCommand(s *streams) *cobra.Command {
	var (
		limit    int
		asJSON   bool
		category string
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "列出最近的 run；给出 run-id 时列出该次的逐文件结果",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir, err := config.StateDir()
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			path := historyPath(stateDir)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				if asJSON {
					return writeJSON(s, []any{})
				}
				fmt.Fprintln(s.out, "暂无历史记录")
				return nil
			}

			store, err := history.Open(cmd.Context(), path)
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			defer store.Close()

			if len(args) == 1 {
				var only domain.Category
				if category != "" {
					c, ok := domain.ParseCategory(category)
					if !ok {
						return usageError{fmt.Errorf("--category 未知分组 %q", category)}
					}
					only = c
				}
				return showRunOutcomes(cmd, s, store, args[0], only, asJSON)
			}

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			if asJSON {
				return writeJSON(s, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(s.out, "暂无历史记录")
				return nil
			}

			fmt.Fprintln(s.out, renderRunsTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "最多列出的 run 数（<=0 表示全部）")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出")
	cmd.Flags().StringVar(&category, "category", "", "只列出该分组的结果（配合 run-id 使用）")
	return cmd
}

func showRunOutcomes(cmd *cobra.Command, s *streams, store *history.Store, runID string, only domain.Category, asJSON bool) error {
	outs, err := store.Outcomes(cmd.Context(), runID)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	if len(outs) == 0 {
		return &exitError{code: 1, err: fmt.Errorf("没有找到 run %q 的记录", runID)}
	}
	if only != "" {
		outs = filterCategory(outs, only)
	}
	if asJSON {
		return writeJSON(s, outs)
	}

	fmt.Fprintln(s.out, renderOutcomesTable(outs))
	return nil
}

func filterCategory(outs []domain.MoveOutcome, c domain.Category) []domain.MoveOutcome {
	kept := make([]domain.MoveOutcome, 0, len(outs))
	for _, o := range outs {
		if o.Category == c {
			kept = append(kept, o)
		}
	}
	return kept
}

func writeJSON(s *streams, v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
