package main

import (
	"io"

	"github.com/spf13/cobra"
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// globalFlags 是所有子命令共享的持久化参数。
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand(s *streams) *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "fileorg",
		Short:         "按扩展名把文件归类到图片/视频/文本/表格/PDF/其他目录",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "配置文件路径（默认 $FILEORG_CONFIG、<source>/fileorg.toml、./fileorg.toml）")
	pf.StringVar(&g.logLevel, "log-level", "", "日志级别：debug|info|warn|error")
	pf.StringVar(&g.logFormat, "log-format", "", "日志格式：console|json")

	rootCmd.AddCommand(newRunCommand(s, g))
	rootCmd.AddCommand(newConfigCommand(s, g))
	rootCmd.AddCommand(newHistoryCommand(s))

	return rootCmd
}

// usageArgs 把位置参数校验错误标记为用法错误。
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
