// Package missing 检测剧集库里的缺集：按目录/文件名标记推断季与集，
// 对每季做 1..max 的缺口运算，并可选地用 CSFD 交叉核对剧目身份。
//
// 约束：
// - 只读：本模式绝不改动文件系统
// - 纯本地推断（--no-csfd）必须完整可用，交叉核对只是增信
// - 缺口定义：已见最大集号以内的空洞；max 之后的集数不可知，不算缺
package missing

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/normalize"
)

var (
	seasonHintRE  = regexp.MustCompile(`(?i)(?:season|series|série|s)\s*(\d+)`)
	seasonShortRE = regexp.MustCompile(`(?i)^s(\d{1,2})$`)
	specialsRE    = regexp.MustCompile(`(?i)^specials$`)

	episodeFullREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)s(\d{1,2})[ ._-]*e(\d{1,3})`),
		regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,3})\b`),
	}
	episodeOnlyRE = regexp.MustCompile(`(?i)e(\d{1,3})`)

	showYearRE     = regexp.MustCompile(`\((?:19|20)\d{2}(?:/(?:19|20)\d{2})?\)`)
	showNonAlnumRE = regexp.MustCompile(`[^\p{L}\p{N} ]+`)
)

// SeasonReport 是单季的出勤表。Present 升序去重；Missing 是 1..max 里的空洞。
type SeasonReport struct {
	Season  int
	Present []int
	Missing []int
}

// Complete 表示该季 1..max 连续无空洞（有至少一集被识别）。
func (s SeasonReport) Complete() bool {
	return len(s.Present) > 0 && len(s.Missing) == 0
}

// ShowMatch 是 CSFD 交叉核对的结果：剧目候选加上详情里的身份信号。
type ShowMatch struct {
	Candidate domain.Candidate
	Detail    domain.CandidateDetail
	HasDetail bool
}

// ShowReport 汇总一个剧目录的缺集情况。
type ShowReport struct {
	Name string
	Path string

	Seasons        map[int]*SeasonReport
	MissingSeasons []int

	Match *ShowMatch
}

// MissingSummary 按季号升序列出有缺集的季。
func (r ShowReport) MissingSummary() []SeasonReport {
	nums := make([]int, 0, len(r.Seasons))
	for n := range r.Seasons {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	out := make([]SeasonReport, 0, len(nums))
	for _, n := range nums {
		if s := r.Seasons[n]; len(s.Missing) > 0 {
			out = append(out, *s)
		}
	}
	return out
}

// HasGaps 表示该剧存在缺集或整季缺失。
func (r ShowReport) HasGaps() bool {
	return len(r.MissingSeasons) > 0 || len(r.MissingSummary()) > 0
}

// DeriveShowQuery 把剧目录名洗成检索串：去掉年份括号与标点，压缩空白。
func DeriveShowQuery(name string) string {
	cleaned := showYearRE.ReplaceAllString(name, " ")
	cleaned = showNonAlnumRE.ReplaceAllString(cleaned, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// SeasonHint 从相对路径片段提取季号提示：从最深一级往上找，
// Specials 目录视为第 0 季。找不到返回 (0, false)。
func SeasonHint(parts []string) (int, bool) {
	for i := len(parts) - 1; i >= 0; i-- {
		p := strings.TrimSpace(parts[i])
		if p == "" {
			continue
		}
		if specialsRE.MatchString(p) {
			return 0, true
		}
		if m := seasonHintRE.FindStringSubmatch(p); m != nil {
			return atoiSafe(m[1]), true
		}
		if m := seasonShortRE.FindStringSubmatch(p); m != nil {
			return atoiSafe(m[1]), true
		}
	}
	return 0, false
}

// EpisodeMark 是文件名里的一处剧集标记；HasSeason 为 false 时季号取目录提示。
type EpisodeMark struct {
	Season    int
	HasSeason bool
	Episode   int
}

// EpisodeMarks 提取文件名里的全部剧集标记。
// SxxEyy / NxM 优先；都没有时退化为孤立的 Exx（季号交给目录提示）。
func EpisodeMarks(name string) []EpisodeMark {
	var marks []EpisodeMark
	for _, re := range episodeFullREs {
		for _, m := range re.FindAllStringSubmatch(name, -1) {
			marks = append(marks, EpisodeMark{
				Season:    atoiSafe(m[1]),
				HasSeason: true,
				Episode:   atoiSafe(m[2]),
			})
		}
	}
	if len(marks) > 0 {
		return marks
	}
	for _, m := range episodeOnlyRE.FindAllStringSubmatch(name, -1) {
		marks = append(marks, EpisodeMark{Episode: atoiSafe(m[1])})
	}
	return marks
}

// AnalyzeShow 遍历单个剧目录并产出缺集报告。
func AnalyzeShow(name, path string) (ShowReport, error) {
	report := ShowReport{Name: name, Path: path, Seasons: make(map[int]*SeasonReport)}

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !normalize.IsVideoExt(filepath.Ext(d.Name())) {
			return nil
		}

		rel, err := filepath.Rel(path, filepath.Dir(p))
		if err != nil {
			return err
		}
		var parts []string
		if rel != "." {
			parts = strings.Split(rel, string(filepath.Separator))
		}
		hint, hasHint := SeasonHint(parts)

		marks := EpisodeMarks(d.Name())
		if len(marks) == 0 {
			// 有季目录但文件没有集标记：记一个空季，提示用户命名不可解析。
			if hasHint {
				ensureSeason(report.Seasons, hint)
			}
			return nil
		}
		for _, m := range marks {
			season := hint
			known := hasHint
			if m.HasSeason {
				season = m.Season
				known = true
			}
			if !known {
				continue
			}
			s := ensureSeason(report.Seasons, season)
			if m.Episode > 0 {
				s.Present = append(s.Present, m.Episode)
			}
		}
		return nil
	})
	if err != nil {
		return ShowReport{}, err
	}

	for _, s := range report.Seasons {
		s.Present = dedupSorted(s.Present)
		if len(s.Present) == 0 {
			continue
		}
		max := s.Present[len(s.Present)-1]
		present := make(map[int]struct{}, len(s.Present))
		for _, e := range s.Present {
			present[e] = struct{}{}
		}
		for e := 1; e <= max; e++ {
			if _, ok := present[e]; !ok {
				s.Missing = append(s.Missing, e)
			}
		}
	}

	// 整季缺口：1..max 季号里没出现过的季（特辑 0 季不参与）。
	var nums []int
	for n := range report.Seasons {
		if n > 0 {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	if len(nums) > 0 {
		present := make(map[int]struct{}, len(nums))
		for _, n := range nums {
			present[n] = struct{}{}
		}
		for n := 1; n <= nums[len(nums)-1]; n++ {
			if _, ok := present[n]; !ok {
				report.MissingSeasons = append(report.MissingSeasons, n)
			}
		}
	}
	return report, nil
}

// DiscoverShows 列出 root 的直接子目录（每剧一目录约定），按名称排序。
func DiscoverShows(root string) ([][2]string, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	shows := make([][2]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			shows = append(shows, [2]string{de.Name(), filepath.Join(root, de.Name())})
		}
	}
	sort.Slice(shows, func(i, j int) bool { return shows[i][0] < shows[j][0] })
	return shows, nil
}

// FilterShows 按不区分大小写的子串过滤剧目录。
func FilterShows(shows [][2]string, needle string) [][2]string {
	if needle == "" {
		return shows
	}
	lowered := strings.ToLower(needle)
	out := make([][2]string, 0, len(shows))
	for _, s := range shows {
		if strings.Contains(strings.ToLower(s[0]), lowered) {
			out = append(out, s)
		}
	}
	return out
}

// FormatEpisode 渲染标准的 SxxEyy 标签。
func FormatEpisode(season, episode int) string {
	return "S" + pad2(season) + "E" + pad2(episode)
}

func pad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func ensureSeason(m map[int]*SeasonReport, n int) *SeasonReport {
	if s, ok := m[n]; ok {
		return s
	}
	s := &SeasonReport{Season: n}
	m[n] = s
	return s
}

func dedupSorted(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if v <= 0 {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Lookup 用 CSFD 给剧目录做身份交叉核对。
type Lookup struct {
	Source     Source
	MaxResults int

	// Choose 在多个候选时裁决；返回 (下标, true) 或 (0, false)=放弃。
	// 为 nil 时默认取第一个。
	Choose func(showName string, cands []ShowMatch) (int, bool)
}

// Source 与 resolve 包的来源接口一致（csfd.Client 满足两者）。
type Source interface {
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.Candidate, error)
	FetchDetail(ctx context.Context, c domain.Candidate) (domain.CandidateDetail, error)
}

// Resolve 给剧目录名找 CSFD 身份。
// 过滤规则：只留详情标注为剧集类（"seri" 前缀，seriál/série）的候选；
// 无详情的候选一律丢弃（没有类型信号就无从核对）。
func (l Lookup) Resolve(ctx context.Context, displayName string) (*ShowMatch, error) {
	query := DeriveShowQuery(displayName)
	if query == "" {
		return nil, nil
	}

	cands, err := l.Source.Search(ctx, domain.SearchQuery{Title: query, Kind: domain.KindShow})
	if err != nil {
		return nil, err
	}

	limit := l.MaxResults
	if limit <= 0 {
		limit = 5
	}

	matches := make([]ShowMatch, 0, limit)
	for _, c := range cands {
		if strings.EqualFold(strings.TrimSpace(c.Title), "filmy") {
			continue
		}
		detail, err := l.Source.FetchDetail(ctx, c)
		if err != nil {
			continue
		}
		mt := strings.ToLower(detail.MediaType)
		if mt != "" && !strings.Contains(mt, "seri") {
			continue
		}
		matches = append(matches, ShowMatch{Candidate: c, Detail: detail, HasDetail: true})
		if len(matches) >= limit {
			break
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if len(matches) == 1 {
		return &matches[0], nil
	}

	idx := 0
	if l.Choose != nil {
		chosen, ok := l.Choose(displayName, matches)
		if !ok {
			return nil, nil
		}
		idx = chosen
	}
	if idx < 0 || idx >= len(matches) {
		return nil, nil
	}
	return &matches[idx], nil
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
