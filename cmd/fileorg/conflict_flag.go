package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var _ pflag.Value = (*conflictFlag)(nil)

// conflictFlag 是 --on-conflict 的取值：rename|skip|overwrite|ask。
type conflictFlag struct {
	value string
}

func (f *conflictFlag) String() string { return f.value }

func (f *conflictFlag) Set(s string) error {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "rename", "skip", "overwrite", "ask":
		f.value = v
		return nil
	default:
		return fmt.Errorf("只能是 rename、skip、overwrite 或 ask，实际是 %q", s)
	}
}

func (f *conflictFlag) Type() string { return "policy" }
