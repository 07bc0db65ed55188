package csfd

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/CSRN/internal/domain"
)

var (
	yearRE    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	runtimeRE = regexp.MustCompile(`(\d+)\s*min`)
	filmIDRE  = regexp.MustCompile(`/film/(\d+)-`)
	seasonRE  = regexp.MustCompile(`(?i)s[ée]rie\s*(\d+)\s*(?:\((\d+)\))?`)
)

// parseSearch 把搜索结果页解析为候选列表（最多 limit 条，保持页面顺序）。
//
// 零结果与解析失败的区分：页面上找不到结果锚点时，必须还能认出这是
// “一张正常的搜索页”（搜索表单/站点骨架仍在），否则按布局漂移处理。
func parseSearch(html []byte, baseURL string, limit int) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	cands := make([]domain.Candidate, 0, limit)
	doc.Find("a.film-title-name").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(cands) >= limit {
			return false
		}
		title := normSpace(s.Text())
		if title == "" {
			return true
		}
		href, _ := s.Attr("href")
		pageURL := resolveURL(baseURL+"/", href)

		year, kind := searchEntryInfo(s)
		cands = append(cands, domain.Candidate{
			ID:    extractFilmID(pageURL),
			Title: title,
			Year:  year,
			Kind:  kind,
			URL:   pageURL,
		})
		return true
	})

	if len(cands) == 0 && !looksLikeSearchPage(doc) {
		return nil, errors.New("搜索页结构不符合预期（缺少结果锚点与搜索骨架）")
	}
	return cands, nil
}

// searchEntryInfo 从结果锚点附近的 span.info 读取年份与类型提示。
// 来源页会把 "(1979)"、"(seriál)" 这类信息放在标题旁的 info span 里。
func searchEntryInfo(s *goquery.Selection) (int, domain.MediaKind) {
	year := 0
	kind := domain.KindAny

	scan := func(scope *goquery.Selection) {
		scope.Find("span.info").Each(func(_ int, info *goquery.Selection) {
			text := info.Text()
			if year == 0 {
				if m := yearRE.FindString(text); m != "" {
					year, _ = strconv.Atoi(m)
				}
			}
			lower := strings.ToLower(text)
			if strings.Contains(lower, "seriál") || strings.Contains(lower, "série") {
				kind = domain.KindShow
			}
		})
	}

	scan(s.Parent())
	if year == 0 && kind == domain.KindAny {
		scan(s.Parent().Parent())
	}
	return year, kind
}

func looksLikeSearchPage(doc *goquery.Document) bool {
	if doc.Find("form[action*='hledat'], .header-search, .main-search").Length() > 0 {
		return true
	}
	title := strings.ToLower(doc.Find("title").Text())
	return strings.Contains(title, "csfd") || strings.Contains(title, "čsfd")
}

// parseDetail 把详情页解析为 CandidateDetail。
//
// 字段缺失以零值表达；只有整页结构不可辨认时才报解析失败。
func parseDetail(html []byte) (domain.CandidateDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.CandidateDetail{}, err
	}

	origin := doc.Find("div.origin").First()
	names := doc.Find("ul.film-names")
	header := doc.Find(".film-header, .film-header-name")
	if origin.Length() == 0 && names.Length() == 0 && header.Length() == 0 {
		return domain.CandidateDetail{}, errors.New("详情页结构不符合预期（缺少 origin/film-names/film-header）")
	}

	var d domain.CandidateDetail

	originText := normSpace(origin.Text())
	if m := runtimeRE.FindStringSubmatch(originText); m != nil {
		if v, e := strconv.Atoi(m[1]); e == nil && v > 0 {
			d.RuntimeM = v
		}
	}
	d.Origins = parseOrigins(originText)

	// 原始片名取别名列表第一项；嵌套 span/img（国旗、角标）不属于名字本身。
	if li := names.Find("li").Not(".more-names").First(); li.Length() > 0 {
		li.Find("span, img").Remove()
		d.OriginalTitle = normSpace(li.Text())
	}

	if t := normSpace(doc.Find("span.type").First().Text()); t != "" {
		d.MediaType = strings.Trim(t, "()")
	}

	d.Seasons = parseSeasons(doc)
	return d, nil
}

// parseOrigins 从 origin 行取国家段：逗号/斜杠分隔，只保留不含数字的纯名称
// （同一行里混着年份与时长，靠“无数字”把它们滤掉）。
func parseOrigins(text string) []string {
	segment := text
	if i := strings.IndexByte(segment, '('); i >= 0 {
		segment = segment[:i]
	}
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.FieldsFunc(segment, func(r rune) bool { return r == ',' || r == '/' }) {
		v := strings.Trim(part, " ,")
		if v == "" || strings.ContainsAny(v, "0123456789") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// parseSeasons 读取结构化季信息（"Série 3 (12)" 形态的季链接）。
// 季链接形如 /film/<id>-<slug>/serie-3/，匹配不能带尾斜杠。
// 详情页没有季区块时返回 nil（合法缺失）。
func parseSeasons(doc *goquery.Document) []domain.SeasonEpisodes {
	var seasons []domain.SeasonEpisodes
	seen := make(map[int]struct{})
	doc.Find("a[href*='/serie']").Each(func(_ int, a *goquery.Selection) {
		m := seasonRE.FindStringSubmatch(normSpace(a.Text()))
		if m == nil {
			return
		}
		num, err := strconv.Atoi(m[1])
		if err != nil || num <= 0 {
			return
		}
		if _, ok := seen[num]; ok {
			return
		}
		seen[num] = struct{}{}
		episodes := 0
		if m[2] != "" {
			episodes, _ = strconv.Atoi(m[2])
		}
		seasons = append(seasons, domain.SeasonEpisodes{Season: num, Episodes: episodes})
	})
	return seasons
}

func extractFilmID(pageURL string) int {
	m := filmIDRE.FindStringSubmatch(pageURL)
	if m == nil {
		return 0
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return id
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
