package main

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/John-Robertt/FileOrganizer/internal/conflict"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m promptModel, msg tea.Msg) promptModel {
	t.Helper()
	next, _ := m.Update(msg)
	pm, ok := next.(promptModel)
	if !ok {
		t.Fatalf("Update 返回了意外类型 %T", next)
	}
	return pm
}

func TestPromptModel_ShortcutKeys(t *testing.T) {
	m := newPromptModel(conflict.Conflict{Name: "a.jpg", Existing: "/out/a.jpg", Source: "/in/a.jpg"})

	m = update(t, m, keyRunes("s"))
	if !m.chosen || m.decision() != conflict.Skip || m.applyAll {
		t.Fatalf("s 应选择 Skip（不沿用），实际 chosen=%v decision=%v all=%v", m.chosen, m.decision(), m.applyAll)
	}

	m2 := update(t, newPromptModel(conflict.Conflict{}), keyRunes("O"))
	if !m2.chosen || m2.decision() != conflict.Overwrite || !m2.applyAll {
		t.Fatalf("O 应选择 Overwrite 并沿用，实际 chosen=%v decision=%v all=%v", m2.chosen, m2.decision(), m2.applyAll)
	}
}

func TestPromptModel_CursorAndEnter(t *testing.T) {
	m := newPromptModel(conflict.Conflict{})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown}) // 已在末尾
	m = update(t, m, keyRunes("a"))
	if m.View() == "" {
		t.Fatalf("未选择前 View 不应为空")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if !m.chosen || m.decision() != conflict.Overwrite || !m.applyAll {
		t.Fatalf("期望 Overwrite + 沿用，实际 chosen=%v decision=%v all=%v", m.chosen, m.decision(), m.applyAll)
	}
	if m.View() != "" {
		t.Fatalf("选择后 View 应清空")
	}
}

func TestPromptModel_Abort(t *testing.T) {
	m := update(t, newPromptModel(conflict.Conflict{}), tea.KeyMsg{Type: tea.KeyCtrlC})
	if !m.aborted || m.chosen {
		t.Fatalf("ctrl+c 应取消，实际 aborted=%v chosen=%v", m.aborted, m.chosen)
	}
}

func TestPromptPolicy_StickyDecision(t *testing.T) {
	orig := runPromptFunc
	t.Cleanup(func() { runPromptFunc = orig })

	calls := 0
	runPromptFunc = func(_ context.Context, _ io.Reader, _ io.Writer, m promptModel) (promptModel, error) {
		calls++
		m.cursor, m.chosen, m.applyAll = 1, true, true
		return m, nil
	}

	p := &promptPolicy{}
	for i := 0; i < 3; i++ {
		d, err := p.Decide(context.Background(), conflict.Conflict{Name: "x"})
		if err != nil {
			t.Fatalf("不期望错误：%v", err)
		}
		if d != conflict.Skip {
			t.Fatalf("期望 Skip，实际 %v", d)
		}
	}
	if calls != 1 {
		t.Fatalf("沿用选择后不应再提示，实际提示 %d 次", calls)
	}
}

func TestPromptPolicy_Aborted(t *testing.T) {
	orig := runPromptFunc
	t.Cleanup(func() { runPromptFunc = orig })

	runPromptFunc = func(_ context.Context, _ io.Reader, _ io.Writer, m promptModel) (promptModel, error) {
		m.aborted = true
		return m, nil
	}

	_, err := (&promptPolicy{}).Decide(context.Background(), conflict.Conflict{})
	if !errors.Is(err, errPromptAborted) {
		t.Fatalf("期望 errPromptAborted，实际 %v", err)
	}
}
