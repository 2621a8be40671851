package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DestinationSet 是一次 run 内“分组 -> 目标目录”的映射。
//
// 约束：
// - 6 个分组（含 Others）都必须非空；这是 run 开始前的一次性前置检查
// - run 期间只读
type DestinationSet map[Category]string

// Validate 检查 6 个分组的目标目录均已填写。
func (d DestinationSet) Validate() error {
	var missing []string
	for _, c := range AllCategories() {
		if strings.TrimSpace(d[c]) == "" {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("目标目录未配置：%s", strings.Join(missing, ", "))
	}
	return nil
}

// For 返回分组对应的目标目录；未映射的分组回落到 Others。
func (d DestinationSet) For(c Category) string {
	if p := strings.TrimSpace(d[c]); p != "" {
		return p
	}
	return strings.TrimSpace(d[CategoryOthers])
}

// Paths 返回全部目标目录（去重，按分组固定顺序）。
func (d DestinationSet) Paths() []string {
	seen := make(map[string]struct{}, len(d))
	out := make([]string, 0, len(d))
	for _, c := range AllCategories() {
		p := strings.TrimSpace(d[c])
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Clone 返回一份独立拷贝（调用方可放心修改）。
func (d DestinationSet) Clone() DestinationSet {
	out := make(DestinationSet, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// DefaultDestinations 以 base 为父目录生成默认布局：<base>/<Title>。
func DefaultDestinations(base string) DestinationSet {
	out := make(DestinationSet, 6)
	for _, c := range AllCategories() {
		out[c] = filepath.Join(base, c.Title())
	}
	return out
}
