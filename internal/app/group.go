package app

import (
	"github.com/John-Robertt/FileOrganizer/internal/domain"
)

// CategoryStat 是某个分组在一次 run 中的结果统计。
type CategoryStat struct {
	Category domain.Category
	Moved    int
	Skipped  int
	Failed   int
	Bytes    int64
}

// GroupByCategory 把 outcomes 按分组聚合。
//
// - 结果顺序固定：Images, Videos, Texts, Tables, PDFs, Others
// - 没有任何 outcome 的分组不出现在结果中
func GroupByCategory(outcomes []domain.MoveOutcome) []CategoryStat {
	index := make(map[domain.Category]*CategoryStat, 6)
	for _, o := range outcomes {
		st, ok := index[o.Category]
		if !ok {
			st = &CategoryStat{Category: o.Category}
			index[o.Category] = st
		}
		switch o.Kind {
		case domain.OutcomeMoved:
			st.Moved++
			st.Bytes += o.Size
		case domain.OutcomeSkipped:
			st.Skipped++
		case domain.OutcomeFailed:
			st.Failed++
		}
	}

	out := make([]CategoryStat, 0, len(index))
	for _, c := range domain.AllCategories() {
		if st, ok := index[c]; ok {
			out = append(out, *st)
		}
	}
	return out
}
