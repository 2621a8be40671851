package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/John-Robertt/FileOrganizer/internal/conflict"
)

// errPromptAborted 表示用户在冲突提示中按了 Ctrl+C / Esc。
var errPromptAborted = errors.New("用户取消了冲突选择")

type promptChoice struct {
	decision conflict.Decision
	key      string
	label    string
}

var promptChoices = []promptChoice{
	{decision: conflict.Rename, key: "r", label: "Rename（使用带数字后缀的新名字）"},
	{decision: conflict.Skip, key: "s", label: "Skip（保留源文件不动）"},
	{decision: conflict.Overwrite, key: "o", label: "Overwrite（覆盖已有文件）"},
}

var (
	promptTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	promptCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	promptFaintStyle  = lipgloss.NewStyle().Faint(true)
)

// promptModel 是单次冲突的交互选择。
type promptModel struct {
	c      conflict.Conflict
	cursor int

	// applyAll 表示本次选择沿用到后续所有冲突。
	applyAll bool
	chosen   bool
	aborted  bool
}

func newPromptModel(c conflict.Conflict) promptModel {
	return promptModel{c: c}
}

func (m promptModel) Init() tea.Cmd { return nil }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch k := key.String(); k {
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(promptChoices)-1 {
			m.cursor++
		}
	case "a":
		m.applyAll = !m.applyAll
	case "enter":
		m.chosen = true
		return m, tea.Quit
	default:
		for i, c := range promptChoices {
			switch k {
			case c.key:
				m.cursor, m.chosen = i, true
				return m, tea.Quit
			case strings.ToUpper(c.key):
				m.cursor, m.chosen, m.applyAll = i, true, true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m promptModel) View() string {
	if m.chosen || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(promptTitleStyle.Render("目标已存在："))
	b.WriteString(" " + m.c.Existing + "\n")
	b.WriteString(promptFaintStyle.Render("来源：" + m.c.Source))
	b.WriteString("\n\n")
	for i, c := range promptChoices {
		cursor := "  "
		line := fmt.Sprintf("[%s] %s", c.key, c.label)
		if i == m.cursor {
			cursor = promptCursorStyle.Render("> ")
			line = promptCursorStyle.Render(line)
		}
		b.WriteString(cursor + line + "\n")
	}
	all := "[ ]"
	if m.applyAll {
		all = "[x]"
	}
	b.WriteString("\n" + promptFaintStyle.Render(all+" a：后续冲突沿用此选择 · 大写字母直接选择并沿用 · esc 取消") + "\n")
	return b.String()
}

func (m promptModel) decision() conflict.Decision {
	return promptChoices[m.cursor].decision
}

// runPromptFunc 可替换，便于测试不启动终端程序。
var runPromptFunc = func(ctx context.Context, in io.Reader, out io.Writer, m promptModel) (promptModel, error) {
	final, err := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	).Run()
	if err != nil {
		return m, err
	}
	fm, ok := final.(promptModel)
	if !ok {
		return m, fmt.Errorf("意外的提示结果类型 %T", final)
	}
	return fm, nil
}

// promptPolicy 在终端中逐个询问冲突如何处理。
type promptPolicy struct {
	in  io.Reader
	out io.Writer

	mu     sync.Mutex
	sticky *conflict.Decision
}

var _ conflict.Policy = (*promptPolicy)(nil)

func (p *promptPolicy) Decide(ctx context.Context, c conflict.Conflict) (conflict.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sticky != nil {
		return *p.sticky, nil
	}
	m, err := runPromptFunc(ctx, p.in, p.out, newPromptModel(c))
	if err != nil {
		return conflict.Rename, err
	}
	if m.aborted || !m.chosen {
		return conflict.Rename, errPromptAborted
	}
	d := m.decision()
	if m.applyAll {
		p.sticky = &d
	}
	return d, nil
}
