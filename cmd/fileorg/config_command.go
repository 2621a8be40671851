package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/FileOrganizer/internal/config"
	"github.com/John-Robertt/FileOrganizer/internal/domain"
)

func newConfigCommand(s *streams, g *globalFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "查看或保存目录配置",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(newConfigShowCommand(s, g))
	configCmd.AddCommand(newConfigSaveCommand(s, g))
	configCmd.AddCommand(newConfigPathCommand(s))
	return configCmd
}

// bindSourceAndDests 为 show/save 注册与 run 相同的目录参数。
func bindSourceAndDests(cmd *cobra.Command) func(args []string) config.CLIArgs {
	dests := make(map[domain.Category]*string, 6)
	for _, c := range domain.AllCategories() {
		dests[c] = cmd.Flags().String(string(c), "", fmt.Sprintf("%s 目标目录", c.Title()))
	}
	return func(args []string) config.CLIArgs {
		cli := config.CLIArgs{Destinations: map[domain.Category]string{}}
		if len(args) == 1 {
			cli.Source = args[0]
		}
		for c, p := range dests {
			if cmd.Flags().Changed(string(c)) {
				cli.Destinations[c] = *p
			}
		}
		return cli
	}
}

func newConfigShowCommand(s *streams, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [source]",
		Short: "输出合并后的生效配置（TOML）",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
	}
	collect := bindSourceAndDests(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		eff, _, err := loadEffective(g, collect(args))
		if err != nil {
			return &exitError{code: 1, err: fmt.Errorf("配置错误：%w", err)}
		}
		b, err := eff.MarshalTOML()
		if err != nil {
			return err
		}
		if eff.ConfigPath != "" {
			fmt.Fprintf(s.out, "# 配置文件：%s\n", eff.ConfigPath)
		} else {
			fmt.Fprintln(s.out, "# 未找到配置文件（使用已保存设置与默认值）")
		}
		_, err = s.out.Write(b)
		return err
	}
	return cmd
}

func newConfigSaveCommand(s *streams, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save [source]",
		Short: "把源目录与目标目录保存为默认设置",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
	}
	collect := bindSourceAndDests(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		eff, stateDir, err := loadEffective(g, collect(args))
		if err != nil {
			return &exitError{code: 1, err: fmt.Errorf("配置错误：%w", err)}
		}
		if err := eff.Destinations.Validate(); err != nil {
			return &exitError{code: 1, err: err}
		}
		if err := config.SaveSettings(stateDir, config.SettingsFrom(eff)); err != nil {
			return &exitError{code: 1, err: fmt.Errorf("保存设置失败：%w", err)}
		}
		fmt.Fprintf(s.out, "已保存：%s\n", settingsPath(stateDir))
		return nil
	}
	return cmd
}

func newConfigPathCommand(s *streams) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "输出状态目录中各文件的位置",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir, err := config.StateDir()
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			fmt.Fprintf(s.out, "state:    %s\n", stateDir)
			saved, err := config.LoadSettings(stateDir)
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			note := ""
			if saved.IsZero() {
				note = "（未保存）"
			}
			fmt.Fprintf(s.out, "settings: %s%s\n", settingsPath(stateDir), note)
			fmt.Fprintf(s.out, "history:  %s\n", historyPath(stateDir))
			fmt.Fprintf(s.out, "lock:     %s\n", lockPath(stateDir))
			return nil
		},
	}
}
