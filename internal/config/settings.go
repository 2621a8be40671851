package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/John-Robertt/FileOrganizer/internal/domain"
	"github.com/John-Robertt/FileOrganizer/internal/infra/fsx"
)

const (
	// EnvStateDir 覆盖状态目录（settings.json / history.db / run.lock）。
	EnvStateDir = "FILEORG_STATE_DIR"

	appDirName       = "FileOrganizer"
	SettingsFileName = "settings.json"
	HistoryFileName  = "history.db"
	LockFileName     = "run.lock"
)

// Settings 是 `fileorg config save` 持久化的目录设置。
// 引擎本身从不读取它；只在合并配置时作为较低优先级的来源。
type Settings struct {
	Source string `json:"source,omitempty"`
	Images string `json:"images,omitempty"`
	Videos string `json:"videos,omitempty"`
	Texts  string `json:"texts,omitempty"`
	Tables string `json:"tables,omitempty"`
	PDFs   string `json:"pdfs,omitempty"`
	Others string `json:"others,omitempty"`
}

func (s Settings) destinations() map[domain.Category]string {
	return map[domain.Category]string{
		domain.CategoryImages: s.Images,
		domain.CategoryVideos: s.Videos,
		domain.CategoryTexts:  s.Texts,
		domain.CategoryTables: s.Tables,
		domain.CategoryPDFs:   s.PDFs,
		domain.CategoryOthers: s.Others,
	}
}

// IsZero 表示没有任何已保存的目录。
func (s Settings) IsZero() bool {
	return s == Settings{}
}

// SettingsFrom 把最终配置中的目录落成可保存的设置。
func SettingsFrom(eff EffectiveConfig) Settings {
	d := eff.Destinations
	return Settings{
		Source: eff.Source,
		Images: d[domain.CategoryImages],
		Videos: d[domain.CategoryVideos],
		Texts:  d[domain.CategoryTexts],
		Tables: d[domain.CategoryTables],
		PDFs:   d[domain.CategoryPDFs],
		Others: d[domain.CategoryOthers],
	}
}

// StateDir 返回状态目录：FILEORG_STATE_DIR 优先，否则 <UserConfigDir>/FileOrganizer。
func StateDir() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvStateDir)); p != "" {
		return filepath.Abs(p)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("无法确定用户配置目录：%w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// LoadSettings 读取 <stateDir>/settings.json；文件不存在时返回零值且不报错。
func LoadSettings(stateDir string) (Settings, error) {
	path := filepath.Join(stateDir, SettingsFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(b, &s); err != nil {
		return Settings{}, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	return s, nil
}

// SaveSettings 原子写入 <stateDir>/settings.json（必要时创建状态目录）。
func SaveSettings(stateDir string, s Settings) error {
	if err := fsx.EnsureDir(stateDir); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomic(stateDir, SettingsFileName, b)
}
