package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New 返回错误：%v", err)
	}

	logger.Debug("hidden")
	logger.Info("moved", "src", "a.jpg")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("期望只输出 1 行（debug 被过滤），实际 %d 行：%q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("输出不是 JSON：%v", err)
	}
	if rec["msg"] != "moved" || rec["src"] != "a.jpg" {
		t.Fatalf("字段不符合预期：%v", rec)
	}
}

func TestNew_ConsoleDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "DEBUG", Output: &buf})
	if err != nil {
		t.Fatalf("New 返回错误：%v", err)
	}
	logger.Debug("scan")

	out := buf.String()
	if !strings.Contains(out, "msg=scan") {
		t.Fatalf("期望文本格式输出，实际：%q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Fatalf("debug 级别应带调用位置，实际：%q", out)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("期望未知格式报错")
	}
	if _, err := New(Options{Level: "verbose"}); err == nil {
		t.Fatalf("期望未知级别报错")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" Warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) 返回错误：%v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q)=%v，期望 %v", in, got, want)
		}
	}
}

func TestNop(t *testing.T) {
	Nop().Error("ignored")
}
