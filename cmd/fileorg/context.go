package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/John-Robertt/FileOrganizer/internal/config"
	"github.com/John-Robertt/FileOrganizer/internal/logging"
)

// loadEffective 读取已保存设置并与配置文件、CLI 参数合并。
func loadEffective(g *globalFlags, cli config.CLIArgs) (config.EffectiveConfig, string, error) {
	stateDir, err := config.StateDir()
	if err != nil {
		return config.EffectiveConfig{}, "", err
	}
	saved, err := config.LoadSettings(stateDir)
	if err != nil {
		return config.EffectiveConfig{}, "", err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, "", fmt.Errorf("读取当前目录失败：%w", err)
	}

	cli.ConfigPath = g.configPath
	cli.LogLevel = g.logLevel
	cli.LogFormat = g.logFormat
	eff, err := config.LoadEffective(cwd, cli, saved)
	if err != nil {
		return config.EffectiveConfig{}, "", err
	}
	return eff, stateDir, nil
}

func newLogger(eff config.EffectiveConfig, w io.Writer) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  eff.LogLevel,
		Format: eff.LogFormat,
		Output: w,
	})
}

// isTerminal 判断 w/r 是否连接到终端；非 *os.File（例如测试中的 buffer）一律视为非终端。
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok || f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func historyPath(stateDir string) string {
	return filepath.Join(stateDir, config.HistoryFileName)
}

func lockPath(stateDir string) string {
	return filepath.Join(stateDir, config.LockFileName)
}

func settingsPath(stateDir string) string {
	return filepath.Join(stateDir, config.SettingsFileName)
}
