// Package conflict 决定目标路径已被占用时如何处理（改名/跳过/覆盖）。
//
// 决策本身通过 Policy 注入：交互式提示与无头脚本策略共用同一契约，
// 核心流程不依赖任何 UI。
package conflict

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Decision 是冲突决策。
type Decision int

const (
	// Rename 使用带数字后缀的安全路径。
	Rename Decision = iota
	// Skip 不移动该文件，结果记为 Skipped("conflict")。
	Skip
	// Overwrite 使用原始目标路径并替换已有文件。
	Overwrite
)

func (d Decision) String() string {
	switch d {
	case Rename:
		return "rename"
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// ParseDecision 解析 rename|skip|overwrite（大小写不敏感）。
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rename":
		return Rename, nil
	case "skip":
		return Skip, nil
	case "overwrite":
		return Overwrite, nil
	default:
		return 0, fmt.Errorf("冲突策略只能是 rename、skip 或 overwrite，实际是 %q", s)
	}
}

// Conflict 描述一次目标路径冲突。
type Conflict struct {
	// Dir 是目标目录，Name 是原始文件名（两者拼起来就是 Existing）。
	Dir      string
	Name     string
	Existing string
	Source   string
}

// Policy 决定冲突如何处理。实现可以是交互式的（阻塞等待用户输入）。
type Policy interface {
	Decide(ctx context.Context, c Conflict) (Decision, error)
}

// PolicyFunc 让普通函数满足 Policy。
type PolicyFunc func(ctx context.Context, c Conflict) (Decision, error)

func (f PolicyFunc) Decide(ctx context.Context, c Conflict) (Decision, error) { return f(ctx, c) }

// Fixed 返回总是给出同一决策的策略。
func Fixed(d Decision) Policy {
	return PolicyFunc(func(context.Context, Conflict) (Decision, error) { return d, nil })
}

var (
	RenamePolicy    = Fixed(Rename)
	SkipPolicy      = Fixed(Skip)
	OverwritePolicy = Fixed(Overwrite)
)

// ScriptedPolicy 按文件名给出预设决策，未命中时使用 Default（用于自动化/测试）。
type ScriptedPolicy struct {
	ByName  map[string]Decision
	Default Decision

	// Calls 记录被询问过的冲突（按调用顺序）。
	Calls []Conflict
}

func (p *ScriptedPolicy) Decide(_ context.Context, c Conflict) (Decision, error) {
	p.Calls = append(p.Calls, c)
	if d, ok := p.ByName[c.Name]; ok {
		return d, nil
	}
	return p.Default, nil
}

// Resolution 是 Resolver 的输出：决策 + 最终目标路径（Skip 时 Path 为空）。
type Resolution struct {
	Decision Decision
	Path     string
}

// Resolver 把 Policy 的决策落实为具体路径。
//
// Reserved 非空时（dry-run），安全路径还需避开已经“计划占用”的名字。
type Resolver struct {
	Policy   Policy
	Reserved map[string]struct{}
}

// Resolve 仅在 <dir>/<name> 已存在时调用。
func (r Resolver) Resolve(ctx context.Context, dir, name, source string) (Resolution, error) {
	p := r.Policy
	if p == nil {
		p = RenamePolicy
	}
	existing := filepath.Join(dir, name)
	d, err := p.Decide(ctx, Conflict{Dir: dir, Name: name, Existing: existing, Source: source})
	if err != nil {
		return Resolution{}, fmt.Errorf("冲突决策失败：%w", err)
	}

	switch d {
	case Skip:
		return Resolution{Decision: Skip}, nil
	case Overwrite:
		return Resolution{Decision: Overwrite, Path: existing}, nil
	case Rename:
		safe, err := SafePathReserved(dir, name, r.Reserved)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Decision: Rename, Path: safe}, nil
	default:
		return Resolution{}, fmt.Errorf("未知冲突决策：%v", d)
	}
}
