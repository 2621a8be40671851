package domain

import "strings"

// Category 是文件归类的目标分组。
//
// 集合是封闭的：5 个规则分组 + 兜底的 Others；进程生命周期内不可变。
type Category string

const (
	CategoryImages Category = "images"
	CategoryVideos Category = "videos"
	CategoryTexts  Category = "texts"
	CategoryTables Category = "tables"
	CategoryPDFs   Category = "pdfs"
	CategoryOthers Category = "others"
)

// Categories 返回 5 个规则分组（不含 Others），顺序固定。
func Categories() []Category {
	return []Category{CategoryImages, CategoryVideos, CategoryTexts, CategoryTables, CategoryPDFs}
}

// AllCategories 返回全部 6 个分组（Others 在最后）。
func AllCategories() []Category {
	return append(Categories(), CategoryOthers)
}

// Title 返回用于展示的名称（同时也是默认目标目录名）。
func (c Category) Title() string {
	switch c {
	case CategoryImages:
		return "Images"
	case CategoryVideos:
		return "Videos"
	case CategoryTexts:
		return "Texts"
	case CategoryTables:
		return "Tables"
	case CategoryPDFs:
		return "PDFs"
	default:
		return "Others"
	}
}

// ParseCategory 解析配置/CLI 中的分组名（大小写不敏感）。
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories() {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}
