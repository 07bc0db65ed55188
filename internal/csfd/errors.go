package csfd

import (
	"errors"
	"fmt"
	"strings"
)

// 错误类别（Kind）。来源站点的任何故障都被归一到这两类，
// 由上层做 retry/skip/cancel 的交互式决策，绝不让原始错误直接穿透。
const (
	KindUnavailable = "unavailable" // 网络错误 / 超时 / 非 2xx 状态码
	KindParse       = "parse"       // 页面结构与预期不符（站点布局漂移）
)

// SourceError 是来源站点阶段的可追溯错误。
type SourceError struct {
	Op   string // "search" 或 "detail"
	URL  string
	Kind string
	Err  error
}

func (e *SourceError) Error() string {
	if e == nil {
		return "source error"
	}
	if e.Err != nil {
		return fmt.Sprintf("csfd %s (%s) url=%s: %v", e.Op, e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("csfd %s (%s) url=%s", e.Op, e.Kind, e.URL)
}

func (e *SourceError) Unwrap() error { return e.Err }

// IsUnavailable 判断 err 是否为“来源不可用”（网络/超时/状态码）。
func IsUnavailable(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.Kind == KindUnavailable
}

// IsParse 判断 err 是否为“页面解析失败”（布局漂移）。
func IsParse(err error) bool {
	var se *SourceError
	return errors.As(err, &se) && se.Kind == KindParse
}

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	loc := strings.TrimSpace(e.Location)
	if loc == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
}
