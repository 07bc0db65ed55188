// Package csfd 把“站点变化”限制在本包内部；核心流程只依赖 Search/FetchDetail
// 两个操作与稳定的 Candidate/CandidateDetail。
//
// 约束：
// - 同一时刻只有一个在途请求（工具是人机交互节奏，不需要并发）
// - 重试/超时/UA 由 infra/httpx 统一实现，本包不再做
// - 解析必须是纯函数：相同 HTML => 相同输出；结构不符一律归一为 parse 错误
package csfd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/CSRN/internal/domain"
)

const (
	// DefaultBaseURL 是站点根地址（详情页相对链接的解析基准）。
	DefaultBaseURL = "https://www.csfd.cz"
	// DefaultSearchURL 是搜索端点模板；{query} 会被 URL 转义后的查询串替换。
	DefaultSearchURL = "https://www.csfd.cz/hledat/?q={query}"

	// DefaultMaxResults 限制一次搜索解析出的候选数（列表展示上限）。
	DefaultMaxResults = 10
)

// Client 是来源目录的只读客户端。
type Client struct {
	HTTP       *http.Client
	BaseURL    string // 为空时取 DefaultBaseURL
	SearchURL  string // 为空时取 DefaultSearchURL；必须包含 {query} 占位符
	MaxResults int    // <=0 时取 DefaultMaxResults

	Log zerolog.Logger
}

func (c *Client) baseURL() string {
	if u := strings.TrimSpace(c.BaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	return DefaultBaseURL
}

func (c *Client) maxResults() int {
	if c.MaxResults > 0 {
		return c.MaxResults
	}
	return DefaultMaxResults
}

// Search 检索查询串并把结果页解析为零或多个候选。
//
// 失败语义：
// - 网络/超时/状态码 => SourceError{Kind: unavailable}
// - 页面结构不符     => SourceError{Kind: parse}
// - 零结果不是错误：返回空切片
func (c *Client) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Candidate, error) {
	if q.Empty() {
		return nil, nil
	}

	tpl := strings.TrimSpace(c.SearchURL)
	if tpl == "" {
		tpl = DefaultSearchURL
	}
	searchURL := strings.ReplaceAll(tpl, "{query}", url.QueryEscape(q.Title))

	c.Log.Debug().Str("url", searchURL).Str("query", q.Title).Msg("csfd search")

	html, err := c.fetch(ctx, searchURL)
	if err != nil {
		return nil, &SourceError{Op: "search", URL: searchURL, Kind: KindUnavailable, Err: err}
	}

	cands, err := parseSearch(html, c.baseURL(), c.maxResults())
	if err != nil {
		return nil, &SourceError{Op: "search", URL: searchURL, Kind: KindParse, Err: err}
	}
	c.Log.Debug().Int("candidates", len(cands)).Msg("csfd search parsed")
	return cands, nil
}

// FetchDetail 抓取单个候选的详情页并解析扩展数据。
//
// 字段缺失（时长、季信息）不是错误——以零值表达；只有网络故障与
// 结构不符才返回 SourceError。
func (c *Client) FetchDetail(ctx context.Context, cand domain.Candidate) (domain.CandidateDetail, error) {
	pageURL := strings.TrimSpace(cand.URL)
	if pageURL == "" {
		return domain.CandidateDetail{}, &SourceError{Op: "detail", Kind: KindParse, Err: errors.New("候选缺少详情页 URL")}
	}
	pageURL = resolveURL(c.baseURL()+"/", pageURL)

	c.Log.Debug().Str("url", pageURL).Int("id", cand.ID).Msg("csfd detail")

	html, err := c.fetch(ctx, pageURL)
	if err != nil {
		return domain.CandidateDetail{}, &SourceError{Op: "detail", URL: pageURL, Kind: KindUnavailable, Err: err}
	}

	detail, err := parseDetail(html)
	if err != nil {
		return domain.CandidateDetail{}, &SourceError{Op: "detail", URL: pageURL, Kind: KindParse, Err: err}
	}
	return detail, nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	if c.HTTP == nil {
		return nil, errors.New("http client 不能为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}
	return io.ReadAll(resp.Body)
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
}
