package main

import "testing"

func TestConflictFlag(t *testing.T) {
	var f conflictFlag
	if err := f.Set(" Skip "); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if f.String() != "skip" {
		t.Fatalf("期望 skip，实际 %q", f.String())
	}
	if err := f.Set("merge"); err == nil {
		t.Fatalf("期望未知策略报错")
	}
	if f.String() != "skip" {
		t.Fatalf("非法值不应覆盖原值，实际 %q", f.String())
	}
}
