package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// ErrCodeNotFound 表示无参运行但 cwd 下没有 csrn.toml。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = "config_missing_path"
)

const (
	// FileName 是配置文件的固定名字。
	FileName = "csrn.toml"

	// DefaultMaxResults 是候选列表的内置上限。
	DefaultMaxResults = 10
	// DefaultTimeoutS 是单次 HTTP 请求的内置超时（秒）。
	DefaultTimeoutS = 10
	// DefaultLogLevel 是 zerolog 级别的内置默认。
	DefaultLogLevel = "warn"
)

// CLIArgs 只包含 CLI 暴露的覆盖项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --csfd=false 必须能覆盖 use_csfd=true。
type CLIArgs struct {
	Path string

	MaxResults    int
	MaxResultsSet bool

	AutoSkip    bool
	AutoSkipSet bool

	UseCSFD    bool
	UseCSFDSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 csrn.toml 的解析结构。
type FileConfig struct {
	Path            string       `toml:"path"`
	MaxResults      int          `toml:"max_results"`
	AutoSkipMatches *bool        `toml:"auto_skip_matches"`
	UseCSFD         *bool        `toml:"use_csfd"`
	TimeoutSeconds  int          `toml:"timeout_seconds"`
	Proxy           *ProxyConfig `toml:"proxy"`
	ExcludeDirs     []string     `toml:"exclude_dirs"`
	SearchURL       string       `toml:"search_url"`
	LogLevel        string       `toml:"log_level"`
}

type ProxyConfig struct {
	URL string `toml:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path string

	MaxResults int
	AutoSkip   bool
	UseCSFD    bool

	TimeoutS    int
	ProxyURL    string
	ExcludeDirs []string

	// SearchURL 允许在 csfd.cz 改版/不可达时切换检索端点（可选）。
	// 属于高级能力，仅通过 csrn.toml 配置，不暴露 CLI 参数。
	SearchURL string

	LogLevel string
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
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
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

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 path：尝试读取 <path>/csrn.toml（可选）
// 2) CLI 未提供 path：必须读取 <cwd>/csrn.toml（必选），且其中必须包含 path
//
// 覆盖优先级（固定）：flag > file > 内置默认。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	if strings.TrimSpace(cli.Path) != "" {
		// CLI 给了 path：配置文件可选，位置固定在 <path>/csrn.toml。
		absPath := absCleanFrom(cwdAbs, cli.Path)
		cfgPath := filepath.Join(absPath, FileName)

		fc, _, err := readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		return merge(absPath, cli, fc, cfgPath)
	}

	// CLI 没给 path：必须读取 <cwd>/csrn.toml，且其中必须包含 path。
	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}
	if strings.TrimSpace(fc.Path) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
	}

	absPath := absCleanFrom(cwdAbs, fc.Path)
	return merge(absPath, cli, fc, cfgPath)
}

func merge(absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// max_results：CLI > config > 默认；范围 [1, 50]，越界视为配置错误。
	maxResults := DefaultMaxResults
	if fc.MaxResults != 0 {
		maxResults = fc.MaxResults
	}
	if cli.MaxResultsSet {
		maxResults = cli.MaxResults
	}
	if maxResults < 1 || maxResults > 50 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("max_results 必须在 [1, 50]，实际是 %d", maxResults)}
	}

	// auto_skip_matches：CLI > config > 默认 false（优化必须显式开启）。
	autoSkip := false
	if fc.AutoSkipMatches != nil {
		autoSkip = *fc.AutoSkipMatches
	}
	if cli.AutoSkipSet {
		autoSkip = cli.AutoSkip
	}

	// use_csfd：CLI > config > 默认 true。
	useCSFD := true
	if fc.UseCSFD != nil {
		useCSFD = *fc.UseCSFD
	}
	if cli.UseCSFDSet {
		useCSFD = cli.UseCSFD
	}

	timeoutS := fc.TimeoutSeconds
	if timeoutS == 0 {
		timeoutS = DefaultTimeoutS
	}
	if timeoutS < 1 || timeoutS > 120 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("timeout_seconds 必须在 [1, 120]，实际是 %d", timeoutS)}
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%q", proxyURL)}
		}
	}

	searchURL := strings.TrimSpace(fc.SearchURL)
	if searchURL != "" {
		u, err := url.Parse(searchURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("search_url 无效：%q", searchURL)}
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("search_url 必须是 http/https：%q", searchURL)}
		}
		if !strings.Contains(searchURL, "{query}") {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("search_url 必须包含 {query} 占位符：%q", searchURL)}
		}
	}

	// log_level：CLI > config > 默认；合法性交给 zerolog 的解析，这里只做白名单。
	logLevel := DefaultLogLevel
	if strings.TrimSpace(fc.LogLevel) != "" {
		logLevel = strings.ToLower(strings.TrimSpace(fc.LogLevel))
	}
	if cli.LogLevelSet {
		logLevel = strings.ToLower(strings.TrimSpace(cli.LogLevel))
	}
	switch logLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("log_level 无效：%q", logLevel)}
	}

	return EffectiveConfig{
		Path:        absPath,
		MaxResults:  maxResults,
		AutoSkip:    autoSkip,
		UseCSFD:     useCSFD,
		TimeoutS:    timeoutS,
		ProxyURL:    proxyURL,
		ExcludeDirs: append([]string(nil), fc.ExcludeDirs...),
		SearchURL:   searchURL,
		LogLevel:    logLevel,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
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
	if err := toml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
