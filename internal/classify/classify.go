// Package classify 把文件扩展名映射到归类分组。
package classify

import (
	"golang.org/x/text/cases"

	"github.com/John-Robertt/FileOrganizer/internal/domain"
)

// Rule 是一条“扩展名 -> 分组”规则；Ext 含前导点，例如 ".jpg"。
type Rule struct {
	Ext      string
	Category domain.Category
}

// Map 是不可变的扩展名查找表：构造一次，显式传给使用方。
//
// 键比较：大小写不敏感且与区域设置无关（Unicode case folding）。
type Map struct {
	byExt map[string]domain.Category
}

// DefaultRules 返回内置的固定规则集（各分组互不相交）。
func DefaultRules() []Rule {
	return []Rule{
		{".jpg", domain.CategoryImages},
		{".jpeg", domain.CategoryImages},
		{".png", domain.CategoryImages},
		{".gif", domain.CategoryImages},
		{".bmp", domain.CategoryImages},

		{".mp4", domain.CategoryVideos},
		{".mov", domain.CategoryVideos},
		{".avi", domain.CategoryVideos},
		{".mkv", domain.CategoryVideos},

		{".txt", domain.CategoryTexts},
		{".doc", domain.CategoryTexts},
		{".docx", domain.CategoryTexts},
		{".rtf", domain.CategoryTexts},

		{".csv", domain.CategoryTables},
		{".xls", domain.CategoryTables},
		{".xlsx", domain.CategoryTables},

		{".pdf", domain.CategoryPDFs},
	}
}

// Default 使用 DefaultRules 构造查找表。
func Default() Map {
	return New(DefaultRules()...)
}

// New 用给定规则构造查找表；同一扩展名重复出现时后注册者生效。
// 空扩展名的规则会被忽略（无扩展名的文件恒为 Others）。
func New(rules ...Rule) Map {
	m := Map{byExt: make(map[string]domain.Category, len(rules))}
	for _, r := range rules {
		k := normalize(r.Ext)
		if k == "" || k == "." {
			continue
		}
		m.byExt[k] = r.Category
	}
	return m
}

// Classify 返回扩展名对应的分组。纯函数、全定义：任何输入都不会失败，
// 未命中（包括空串、零值 Map）一律为 Others。
func (m Map) Classify(ext string) domain.Category {
	if c, ok := m.byExt[normalize(ext)]; ok {
		return c
	}
	return domain.CategoryOthers
}

// Len 返回规则条数（重复扩展名只计一次）。
func (m Map) Len() int { return len(m.byExt) }

// normalize 只做大小写折叠；空白是文件名的一部分，不做裁剪。
func normalize(ext string) string {
	if ext == "" {
		return ""
	}
	// cases.Caser 不是并发安全的：每次调用各自构造。
	return cases.Fold().String(ext)
}
