// Package resolve 实现标题解析状态机：
// Idle → Searching → Presenting → {Matched, Skipped, Cancelled, Unresolved}。
//
// 约束：
// - 终态互斥：一次解析恰好产出一个终态
// - 详情懒加载：只有被选中的候选才会触发 FetchDetail；详情失败不推翻 Matched
// - 来源故障只到达 retry 提示，不会把批处理整体打断（除非用户选 cancel）
// - 详情缓存只活在一次运行内（按来源 id 去重），绝不跨运行持久化
package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/normalize"
	"github.com/John-Robertt/CSRN/internal/probe"
	"github.com/John-Robertt/CSRN/internal/rank"
	"github.com/John-Robertt/CSRN/internal/rename"
)

// ErrNoCandidates 表示来源正常应答但一个候选都没有。
var ErrNoCandidates = errors.New("来源没有返回任何候选")

// Resolver 驱动单条目与批量的标题解析。
type Resolver struct {
	Source Source
	Prober Prober
	UI     UI
	Opts   Options
	Log    zerolog.Logger

	// detailCache 按来源 id 缓存成功的详情抓取；失败不缓存（允许重试）。
	detailCache map[int]domain.CandidateDetail
}

// New 组装一个解析器。Source/Prober 可为 nil（分别对应纯手动模式与无探测）。
func New(src Source, prober Prober, ui UI, opts Options, log zerolog.Logger) *Resolver {
	return &Resolver{
		Source:      src,
		Prober:      prober,
		UI:          ui,
		Opts:        opts,
		Log:         log,
		detailCache: make(map[int]domain.CandidateDetail),
	}
}

// ResolveEntry 解析单个条目到终态。
//
// 状态流转：
//  1. Searching：派生查询 → 来源检索；故障走 retry 提示
//  2. Presenting：排序后的候选交给 UI；Requery 回到 Searching
//  3. Select：懒加载详情、算时长差、补缺失年份 → Matched
func (r *Resolver) ResolveEntry(ctx context.Context, e domain.Entry, prog Progress) domain.Resolution {
	query := normalize.DeriveEntry(e)

	// 手动模式不碰来源也不碰探测器：整条外部流水线（检索/排序/时长）全部跳过。
	if !r.Opts.UseExternal || r.Source == nil {
		return r.resolveManual(e, query, prog)
	}

	localM, localOK := 0, false
	if r.Prober != nil {
		localM, localOK = r.Prober.DurationMinutes(ctx, e.AbsPath)
	}

	for {
		if ctx.Err() != nil {
			return domain.Cancelled()
		}

		// Searching。
		cands, err := r.search(ctx, query)
		if err != nil {
			r.Log.Warn().Err(err).Str("title", query.Title).Msg("来源检索失败")
			switch r.UI.PromptRetry(query.Title, err) {
			case RetryAgain:
				continue
			case RetrySkip:
				return domain.Skipped(domain.SkipReasonSource)
			default:
				return domain.Cancelled()
			}
		}

		ranked := rank.Rank(cands, query)

		if r.Opts.AutoSkipMatches {
			if c, ok := r.autoMatch(ranked, query); ok {
				detail, hasDetail := r.detail(ctx, c)
				delta := r.delta(localM, localOK, detail, hasDetail)
				r.Log.Debug().Str("title", c.Title).Int("year", c.Year).Msg("首位候选完全一致，免确认")
				r.UI.NotifyMatched(MatchNote{
					Candidate: c, Detail: detail, HasDetail: hasDetail,
					Delta: delta, LocalM: localM, LocalOK: localOK,
				})
				return domain.Matched(c, detail, hasDetail, delta)
			}
		}

		// Presenting。展示数量由 MaxResults 限制（排序不受影响，只裁尾部）。
		shown := ranked
		if r.Opts.MaxResults > 0 && len(shown) > r.Opts.MaxResults {
			shown = shown[:r.Opts.MaxResults]
		}
		sess := Session{
			FileName:       e.Base + e.Ext,
			FilePath:       e.AbsPath,
			Query:          query,
			Candidates:     shown,
			FileDurationM:  localM,
			FileDurationOK: localOK,
			SuggestSkip:    suggestSkip(e, shown),
			Progress:       prog,
		}
		choice := r.UI.Present(sess)

		switch choice.Kind {
		case ChoiceCancel:
			return domain.Cancelled()

		case ChoiceSkip:
			if len(shown) == 0 {
				return domain.Unresolved(ErrNoCandidates)
			}
			return domain.Skipped(domain.SkipReasonUser)

		case ChoiceRequery:
			text := strings.TrimSpace(choice.Query)
			if text == "" {
				// 空查询提交等价于放弃本条目。
				return domain.Skipped(domain.SkipReasonUser)
			}
			next := normalize.Derive(text)
			if next.Year == 0 {
				next.Year = query.Year
			}
			if next.Kind == domain.KindAny {
				next.Kind = query.Kind
			}
			query = next
			continue

		case ChoiceSelect:
			if choice.Index < 0 || choice.Index >= len(shown) {
				continue
			}
			c := shown[choice.Index]
			detail, hasDetail := r.detail(ctx, c)
			delta := r.delta(localM, localOK, detail, hasDetail)
			if c.Year == 0 {
				c.Year = r.fillYear(c.Title, query)
			}
			r.UI.NotifyMatched(MatchNote{
				Candidate: c, Detail: detail, HasDetail: hasDetail,
				Delta: delta, LocalM: localM, LocalOK: localOK,
			})
			return domain.Matched(c, detail, hasDetail, delta)
		}
	}
}

// resolveManual 是来源关闭时的降级路径：只有手动输入/跳过/取消，
// 不做时长探测（会话里的时长字段保持缺席）。
func (r *Resolver) resolveManual(e domain.Entry, query domain.SearchQuery, prog Progress) domain.Resolution {
	for {
		sess := Session{
			FileName:   e.Base + e.Ext,
			FilePath:   e.AbsPath,
			Query:      query,
			ManualMode: true,
			Progress:   prog,
		}
		choice := r.UI.Present(sess)

		switch choice.Kind {
		case ChoiceCancel:
			return domain.Cancelled()
		case ChoiceSkip:
			return domain.Skipped(domain.SkipReasonUser)
		case ChoiceRequery:
			text := strings.TrimSpace(choice.Query)
			if text == "" {
				return domain.Skipped(domain.SkipReasonUser)
			}
			manual := normalize.Derive(text)
			if manual.Title == "" {
				return domain.Skipped(domain.SkipReasonUser)
			}
			c := domain.Candidate{Title: manual.Title, Year: manual.Year}
			if c.Year == 0 {
				c.Year = r.fillYear(c.Title, query)
			}
			return domain.Matched(c, domain.CandidateDetail{}, false, domain.DurationDelta{})
		default:
			// 手动模式没有候选列表，Select 没有意义。
			continue
		}
	}
}

// search 对空查询短路（不请求来源），其余透传。
func (r *Resolver) search(ctx context.Context, q domain.SearchQuery) ([]domain.Candidate, error) {
	if q.Empty() {
		return nil, nil
	}
	return r.Source.Search(ctx, q)
}

// detail 抓取候选详情，经一次运行内缓存去重。
// 失败吞掉并返回零值：详情只是增信信号，绝不阻塞匹配。
func (r *Resolver) detail(ctx context.Context, c domain.Candidate) (domain.CandidateDetail, bool) {
	if c.Manual() {
		return domain.CandidateDetail{}, false
	}
	if c.ID != 0 {
		if d, ok := r.detailCache[c.ID]; ok {
			return d, true
		}
	}
	d, err := r.Source.FetchDetail(ctx, c)
	if err != nil {
		r.Log.Debug().Err(err).Str("title", c.Title).Msg("详情抓取失败，继续匹配")
		return domain.CandidateDetail{}, false
	}
	if c.ID != 0 {
		r.detailCache[c.ID] = d
	}
	return d, true
}

func (r *Resolver) delta(localM int, localOK bool, detail domain.CandidateDetail, hasDetail bool) domain.DurationDelta {
	if !hasDetail {
		return domain.DurationDelta{}
	}
	return probe.Delta(localM, localOK, detail.RuntimeM)
}

// fillYear 按优先级补缺失年份：查询年份提示 → 询问用户。
func (r *Resolver) fillYear(title string, query domain.SearchQuery) int {
	if query.Year != 0 {
		return query.Year
	}
	if y := r.UI.PromptYear(title); y > 0 {
		return y
	}
	return 0
}

// autoMatch 判定免确认条件：首位候选折叠后与本地派生标题完全一致，
// 且首位不与第二位同名（同名并列 = 歧义，必须交给人）。
func (r *Resolver) autoMatch(ranked []domain.Candidate, query domain.SearchQuery) (domain.Candidate, bool) {
	if len(ranked) == 0 {
		return domain.Candidate{}, false
	}
	top := ranked[0]
	if normalize.Fold(top.Title) != normalize.Fold(query.Title) {
		return domain.Candidate{}, false
	}
	if query.Year != 0 && top.Year != 0 && top.Year != query.Year {
		return domain.Candidate{}, false
	}
	if len(ranked) > 1 && normalize.Fold(ranked[1].Title) == normalize.Fold(top.Title) {
		return domain.Candidate{}, false
	}
	return top, true
}

// suggestSkip 判定“看起来已经命名规范”的提示条件：文件基名或父目录名
// 已经等于首位候选的规范命名。只做提示，不改变默认选择以外的任何行为。
func suggestSkip(e domain.Entry, ranked []domain.Candidate) bool {
	if len(ranked) == 0 {
		return false
	}
	want := rename.FormatMediaName(ranked[0].Title, ranked[0].Year)
	if want == "" {
		return false
	}
	return rename.SanitizeComponent(e.Base) == want || rename.SanitizeComponent(e.ParentName()) == want
}
