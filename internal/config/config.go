package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/FileOrganizer/internal/domain"
)

const (
	// ErrCodeNotFound 表示显式指定（--config / FILEORG_CONFIG）的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示 CLI、配置文件、已保存设置都没有给出源目录。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// FileName 是自动发现的配置文件名。
	FileName = "fileorg.toml"
	// EnvConfig 指定配置文件路径（优先级低于 --config）。
	EnvConfig = "FILEORG_CONFIG"

	DefaultOnConflict  = "rename"
	DefaultCrossDevice = "fail"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	// DefaultSortedDir 是未配置目标目录时的默认父目录（相对源目录）。
	DefaultSortedDir = "Sorted"
)

// CLIArgs 是 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --dry-run=false 必须能覆盖 dry_run = true。
type CLIArgs struct {
	ConfigPath string
	Source     string

	// Destinations 只包含 CLI 显式给出的分组。
	Destinations map[domain.Category]string

	OnConflict  string
	CrossDevice string

	DryRun    bool
	DryRunSet bool

	LogLevel  string
	LogFormat string
}

// FileConfig 对应 fileorg.toml 的解析结构。
type FileConfig struct {
	Source       string             `toml:"source"`
	Destinations DestinationsConfig `toml:"destinations"`
	OnConflict   string             `toml:"on_conflict"`
	CrossDevice  string             `toml:"cross_device"`
	DryRun       *bool              `toml:"dry_run"`
	Log          LogConfig          `toml:"log"`
}

// DestinationsConfig 允许只给 base（按 <base>/<Title> 生成布局），再逐项覆盖。
type DestinationsConfig struct {
	Base   string `toml:"base"`
	Images string `toml:"images"`
	Videos string `toml:"videos"`
	Texts  string `toml:"texts"`
	Tables string `toml:"tables"`
	PDFs   string `toml:"pdfs"`
	Others string `toml:"others"`
}

func (d DestinationsConfig) byCategory() map[domain.Category]string {
	return map[domain.Category]string{
		domain.CategoryImages: d.Images,
		domain.CategoryVideos: d.Videos,
		domain.CategoryTexts:  d.Texts,
		domain.CategoryTables: d.Tables,
		domain.CategoryPDFs:   d.PDFs,
		domain.CategoryOthers: d.Others,
	}
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Source       string
	Destinations domain.DestinationSet

	OnConflict  string // rename|skip|overwrite|ask
	CrossDevice string // fail|copy
	DryRun      bool

	LogLevel  string
	LogFormat string

	// ConfigPath 是实际读取的配置文件；未读取任何文件时为空。
	ConfigPath string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：未指定源目录（命令行参数、配置文件 source 字段、已保存设置均为空）", e.Code)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数、已保存设置合并为最终配置。
//
// 发现规则（固定）：
// 1) --config：必须存在
// 2) 环境变量 FILEORG_CONFIG：必须存在
// 3) CLI 给了源目录：尝试 <source>/fileorg.toml（可选）
// 4) 否则尝试 <cwd>/fileorg.toml（可选）
//
// 覆盖优先级（固定，逐字段）：
// - 源目录：CLI > 配置文件 > 已保存设置
// - 目标目录：CLI > 配置文件单项 > 配置文件 base > 已保存设置 > <source>/Sorted/<分组>
// - 其他字段：CLI > 配置文件 > 默认
//
// 配置文件中的相对路径以配置文件所在目录为基准；CLI 中的相对路径以 cwd 为基准。
func LoadEffective(cwd string, cli CLIArgs, saved Settings) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath, required := discover(cwdAbs, cli)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}

	return merge(cwdAbs, cli, fc, cfgPath, saved)
}

func discover(cwdAbs string, cli CLIArgs) (path string, required bool) {
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		return absCleanFrom(cwdAbs, p), true
	}
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return absCleanFrom(cwdAbs, p), true
	}
	if strings.TrimSpace(cli.Source) != "" {
		return filepath.Join(absCleanFrom(cwdAbs, cli.Source), FileName), false
	}
	return filepath.Join(cwdAbs, FileName), false
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string, saved Settings) (EffectiveConfig, error) {
	cfgDir := cwdAbs
	if cfgPath != "" {
		cfgDir = filepath.Dir(cfgPath)
	}
	invalid := func(err error) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// 源目录：CLI > config > saved
	source := ""
	switch {
	case strings.TrimSpace(cli.Source) != "":
		source = absCleanFrom(cwdAbs, cli.Source)
	case strings.TrimSpace(fc.Source) != "":
		source = absCleanFrom(cfgDir, fc.Source)
	case strings.TrimSpace(saved.Source) != "":
		source = absCleanFrom(cwdAbs, saved.Source)
	default:
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	dests := domain.DefaultDestinations(filepath.Join(source, DefaultSortedDir))
	for c, p := range saved.destinations() {
		if strings.TrimSpace(p) != "" {
			dests[c] = absCleanFrom(cwdAbs, p)
		}
	}
	if base := strings.TrimSpace(fc.Destinations.Base); base != "" {
		for c, p := range domain.DefaultDestinations(absCleanFrom(cfgDir, base)) {
			dests[c] = p
		}
	}
	for c, p := range fc.Destinations.byCategory() {
		if strings.TrimSpace(p) != "" {
			dests[c] = absCleanFrom(cfgDir, p)
		}
	}
	for c, p := range cli.Destinations {
		if strings.TrimSpace(p) == "" {
			return EffectiveConfig{}, invalid(fmt.Errorf("%s 目标目录不能为空", c))
		}
		dests[c] = absCleanFrom(cwdAbs, p)
	}

	onConflict := firstNonEmpty(cli.OnConflict, fc.OnConflict, DefaultOnConflict)
	onConflict = strings.ToLower(onConflict)
	if err := validateOnConflict(onConflict); err != nil {
		return EffectiveConfig{}, invalid(err)
	}

	crossDevice := strings.ToLower(firstNonEmpty(cli.CrossDevice, fc.CrossDevice, DefaultCrossDevice))
	if crossDevice != "fail" && crossDevice != "copy" {
		return EffectiveConfig{}, invalid(fmt.Errorf("cross_device 只能是 fail 或 copy，实际是 %q", crossDevice))
	}

	// dry_run：CLI > config > 默认 false
	dryRun := false
	if cli.DryRunSet {
		dryRun = cli.DryRun
	} else if fc.DryRun != nil {
		dryRun = *fc.DryRun
	}

	logLevel := strings.ToLower(firstNonEmpty(cli.LogLevel, fc.Log.Level, DefaultLogLevel))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return EffectiveConfig{}, invalid(fmt.Errorf("log.level 只能是 debug/info/warn/error，实际是 %q", logLevel))
	}
	logFormat := strings.ToLower(firstNonEmpty(cli.LogFormat, fc.Log.Format, DefaultLogFormat))
	if logFormat != "console" && logFormat != "json" {
		return EffectiveConfig{}, invalid(fmt.Errorf("log.format 只能是 console 或 json，实际是 %q", logFormat))
	}

	return EffectiveConfig{
		Source:       source,
		Destinations: dests,
		OnConflict:   onConflict,
		CrossDevice:  crossDevice,
		DryRun:       dryRun,
		LogLevel:     logLevel,
		LogFormat:    logFormat,
		ConfigPath:   cfgPath,
	}, nil
}

func validateOnConflict(v string) error {
	switch v {
	case "rename", "skip", "overwrite", "ask":
		return nil
	case "":
		return fmt.Errorf("on_conflict 不能为空")
	default:
		return fmt.Errorf("on_conflict 只能是 rename、skip、overwrite 或 ask，实际是 %q", v)
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
// - p 以 ~/ 开头：展开为用户主目录
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// FileConfig 把最终配置还原为可写回 fileorg.toml 的结构（目录全部展开为绝对路径）。
func (e EffectiveConfig) FileConfig() FileConfig {
	d := e.Destinations
	dryRun := e.DryRun
	return FileConfig{
		Source: e.Source,
		Destinations: DestinationsConfig{
			Images: d[domain.CategoryImages],
			Videos: d[domain.CategoryVideos],
			Texts:  d[domain.CategoryTexts],
			Tables: d[domain.CategoryTables],
			PDFs:   d[domain.CategoryPDFs],
			Others: d[domain.CategoryOthers],
		},
		OnConflict:  e.OnConflict,
		CrossDevice: e.CrossDevice,
		DryRun:      &dryRun,
		Log:         LogConfig{Level: e.LogLevel, Format: e.LogFormat},
	}
}

// MarshalTOML 输出最终配置的 TOML 文本（用于 `fileorg config show`）。
func (e EffectiveConfig) MarshalTOML() ([]byte, error) {
	return toml.Marshal(e.FileConfig())
}
