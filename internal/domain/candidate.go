package domain

// Candidate 描述一次扫描得到的待归类文件（只做 stat，不读内容）。
//
// 不变量：
// - AbsPath 是 clean + absolute，且已规范化（符号链接已解析）
// - 每个 Candidate 只被 MoveEngine 消费一次
type Candidate struct {
	AbsPath string
	RelPath string // 相对源根目录
	Name    string // 含扩展名
	Ext     string // 原样保留大小写，例如 ".JPG"；无扩展名时为空
	Size    int64
}
