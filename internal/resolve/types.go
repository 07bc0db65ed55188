package resolve

import (
	"context"

	"github.com/John-Robertt/CSRN/internal/domain"
)

// ChoiceKind 是选择器返回的离散选择类别。
type ChoiceKind int

const (
	ChoiceSelect ChoiceKind = iota
	ChoiceSkip
	ChoiceCancel
	ChoiceRequery
)

// Choice 是一次 Presenting 的结果：Select 带下标，Requery 带新查询文本。
type Choice struct {
	Kind  ChoiceKind
	Index int
	Query string
}

// RetryChoice 是来源故障时 retry 提示的三选一。
type RetryChoice int

const (
	RetryAgain RetryChoice = iota
	RetrySkip
	RetryCancel
)

// Progress 是批处理进度（展示在选择器头部；非 TTY 模式打印为单行）。
type Progress struct {
	Index     int
	Total     int
	Renamed   int
	Unchanged int
	Skipped   int
}

// Session 是一次 Presenting 的完整上下文。
// 状态归选择器独占：选择器返回 Choice 后会话即销毁，不复用。
type Session struct {
	FileName string
	FilePath string

	Query      domain.SearchQuery
	Candidates []domain.Candidate

	FileDurationM  int
	FileDurationOK bool

	SuggestSkip bool
	ManualMode  bool

	Progress Progress
}

// MatchNote 是选中候选后的回显内容：详情懒加载的结果与时长差。
type MatchNote struct {
	Candidate domain.Candidate
	Detail    domain.CandidateDetail
	HasDetail bool
	Delta     domain.DurationDelta

	LocalM  int
	LocalOK bool
}

// UI 是解析器对“人”的全部依赖。实现可以是终端 TUI、行式提示，
// 也可以是测试里的脚本化桩——状态机逻辑与渲染/读键方式解耦。
type UI interface {
	// Present 展示候选并阻塞等待一个离散选择。没有超时：交互工具无限等人。
	Present(sess Session) Choice

	// PromptRetry 在来源故障后询问 retry/skip/cancel。
	PromptRetry(query string, cause error) RetryChoice

	// PromptYear 在候选缺年份时询问发行年份；0 表示用户留空。
	PromptYear(title string) int

	// NotifyMatched 在候选被采纳、详情/时长差就绪后回显一次（不等待输入）。
	NotifyMatched(note MatchNote)
}

// Source 是外部目录的只读接口（internal/csfd 实现）。
type Source interface {
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.Candidate, error)
	FetchDetail(ctx context.Context, c domain.Candidate) (domain.CandidateDetail, error)
}

// Prober 读取本地媒体时长；ok==false 表示探测不可用（不是错误）。
type Prober interface {
	DurationMinutes(ctx context.Context, path string) (int, bool)
}

// Options 是解析器的行为开关。
type Options struct {
	// MaxResults 限制 Presenting 展示的候选数（>0 时裁掉排序后的尾部）。
	MaxResults int

	// AutoSkipMatches 开启“首位候选与本地名完全一致时免确认”的优化。
	// 默认必须关闭：这是优化，不是正确性要求。
	AutoSkipMatches bool

	// UseExternal 为 false 时完全跳过来源检索/排序/时长对比，
	// 直接进入手动输入/跳过状态。
	UseExternal bool
}
