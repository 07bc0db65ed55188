package missing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/CSRN/internal/domain"
)

func TestDeriveShowQuery(t *testing.T) {
	cases := map[string]string{
		"Akta X (1993)":          "Akta X",
		"Akta X (1993/2018)":     "Akta X",
		"Přátelé: speciál!":      "Přátelé speciál",
		"  mezery   všude  ":     "mezery všude",
		"":                       "",
	}
	for in, want := range cases {
		if got := DeriveShowQuery(in); got != want {
			t.Errorf("DeriveShowQuery(%q) = %q，期望 %q", in, got, want)
		}
	}
}

func TestSeasonHint(t *testing.T) {
	cases := []struct {
		parts []string
		want  int
		ok    bool
	}{
		{[]string{"Season 01"}, 1, true},
		{[]string{"Akta X", "Season 2"}, 2, true},
		{[]string{"série 3"}, 3, true},
		{[]string{"S04"}, 4, true},
		{[]string{"Specials"}, 0, true},
		{[]string{"extras"}, 0, false},
		{nil, 0, false},
		// 最深一级优先。
		{[]string{"Season 1", "Season 2"}, 2, true},
	}
	for _, c := range cases {
		got, ok := SeasonHint(c.parts)
		if got != c.want || ok != c.ok {
			t.Errorf("SeasonHint(%v) = (%d,%v)，期望 (%d,%v)", c.parts, got, ok, c.want, c.ok)
		}
	}
}

func TestEpisodeMarks(t *testing.T) {
	marks := EpisodeMarks("Akta.X.S01E07.1080p.mkv")
	if len(marks) != 1 || marks[0].Season != 1 || marks[0].Episode != 7 || !marks[0].HasSeason {
		t.Fatalf("SxxEyy 解析不正确：%+v", marks)
	}

	marks = EpisodeMarks("show 2x11.avi")
	if len(marks) != 1 || marks[0].Season != 2 || marks[0].Episode != 11 {
		t.Fatalf("NxM 解析不正确：%+v", marks)
	}

	// 完整标记缺席时才退化到孤立 Exx。
	marks = EpisodeMarks("E05.mkv")
	if len(marks) != 1 || marks[0].HasSeason || marks[0].Episode != 5 {
		t.Fatalf("Exx 兜底不正确：%+v", marks)
	}

	if got := EpisodeMarks("film-bez-znacky.mkv"); len(got) != 0 {
		t.Fatalf("无标记文件不应产出任何标记：%+v", got)
	}
}

func TestAnalyzeShow_GapArithmetic(t *testing.T) {
	root := t.TempDir()
	show := filepath.Join(root, "Akta X")
	touch(t, filepath.Join(show, "Season 01", "Akta.X.S01E01.mkv"))
	touch(t, filepath.Join(show, "Season 01", "Akta.X.S01E02.mkv"))
	touch(t, filepath.Join(show, "Season 01", "Akta.X.S01E04.mkv"))
	touch(t, filepath.Join(show, "Season 03", "Akta.X.S03E01.mkv"))

	report, err := AnalyzeShow("Akta X", show)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	s1 := report.Seasons[1]
	if s1 == nil || len(s1.Missing) != 1 || s1.Missing[0] != 3 {
		t.Fatalf("S01 缺口应为 [3]：%+v", s1)
	}
	// max 之后的集数不可知，E04 之后不算缺。
	if s1.Present[len(s1.Present)-1] != 4 {
		t.Fatalf("S01 最大集号应为 4：%+v", s1.Present)
	}
	if len(report.MissingSeasons) != 1 || report.MissingSeasons[0] != 2 {
		t.Fatalf("整季缺口应为 [2]：%v", report.MissingSeasons)
	}
}

func TestAnalyzeShow_SeasonHintForBareEpisodes(t *testing.T) {
	root := t.TempDir()
	show := filepath.Join(root, "Pořad")
	touch(t, filepath.Join(show, "Season 02", "E01.mkv"))
	touch(t, filepath.Join(show, "Season 02", "E02.mkv"))

	report, err := AnalyzeShow("Pořad", show)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	s2 := report.Seasons[2]
	if s2 == nil || len(s2.Present) != 2 {
		t.Fatalf("孤立 Exx 应落入目录提示的季：%+v", report.Seasons)
	}
}

func TestAnalyzeShow_SpecialsIsSeasonZero(t *testing.T) {
	root := t.TempDir()
	show := filepath.Join(root, "Pořad")
	touch(t, filepath.Join(show, "Specials", "E01.mkv"))
	touch(t, filepath.Join(show, "Season 01", "S01E01.mkv"))

	report, err := AnalyzeShow("Pořad", show)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if report.Seasons[0] == nil {
		t.Fatalf("Specials 应记为第 0 季：%+v", report.Seasons)
	}
	if len(report.MissingSeasons) != 0 {
		t.Fatalf("第 0 季不应参与整季缺口：%v", report.MissingSeasons)
	}
}

func TestAnalyzeShow_DuplicateEpisodesDeduped(t *testing.T) {
	root := t.TempDir()
	show := filepath.Join(root, "Pořad")
	touch(t, filepath.Join(show, "S01E01.mkv"))
	touch(t, filepath.Join(show, "S01E01.1080p.mkv"))

	report, err := AnalyzeShow("Pořad", show)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if s := report.Seasons[1]; s == nil || len(s.Present) != 1 {
		t.Fatalf("重复集号应去重：%+v", report.Seasons[1])
	}
}

func TestFilterShows(t *testing.T) {
	shows := [][2]string{{"Akta X", "/a"}, {"Přátelé", "/b"}, {"akta bÍlÉ", "/c"}}
	got := FilterShows(shows, "akta")
	if len(got) != 2 {
		t.Fatalf("子串过滤应不区分大小写，实际 %d", len(got))
	}
	if len(FilterShows(shows, "")) != 3 {
		t.Fatalf("空过滤串应放行全部")
	}
}

func TestFormatEpisode(t *testing.T) {
	if got := FormatEpisode(1, 7); got != "S01E07" {
		t.Fatalf("期望 S01E07，实际 %q", got)
	}
	if got := FormatEpisode(12, 103); got != "S12E103" {
		t.Fatalf("期望 S12E103，实际 %q", got)
	}
}

// fakeShowSource 回放固定的检索与详情结果。
type fakeShowSource struct {
	cands   []domain.Candidate
	details map[int]domain.CandidateDetail
	errID   int
}

func (f *fakeShowSource) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Candidate, error) {
	return f.cands, nil
}

func (f *fakeShowSource) FetchDetail(ctx context.Context, c domain.Candidate) (domain.CandidateDetail, error) {
	if c.ID == f.errID {
		return domain.CandidateDetail{}, errors.New("detail failed")
	}
	return f.details[c.ID], nil
}

func TestLookupResolve_FiltersToSeries(t *testing.T) {
	src := &fakeShowSource{
		cands: []domain.Candidate{
			{ID: 1, Title: "Akta X", Year: 1998},
			{ID: 2, Title: "Akta X", Year: 1993},
		},
		details: map[int]domain.CandidateDetail{
			1: {MediaType: "film"},
			2: {MediaType: "seriál", OriginalTitle: "The X-Files", Origins: []string{"USA"}},
		},
	}
	l := Lookup{Source: src, MaxResults: 5}

	got, err := l.Resolve(context.Background(), "Akta X (1993)")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got == nil || got.Candidate.ID != 2 {
		t.Fatalf("应只留下剧集类候选：%+v", got)
	}
	if got.Detail.OriginalTitle != "The X-Files" {
		t.Fatalf("原名未透传：%+v", got.Detail)
	}
}

func TestLookupResolve_DetailFailureDropsCandidate(t *testing.T) {
	src := &fakeShowSource{
		cands: []domain.Candidate{{ID: 1, Title: "Pořad"}},
		errID: 1,
	}
	l := Lookup{Source: src}

	got, err := l.Resolve(context.Background(), "Pořad")
	if err != nil {
		t.Fatalf("单个详情失败不是整体错误：%v", err)
	}
	if got != nil {
		t.Fatalf("无详情的候选不应入选：%+v", got)
	}
}

func TestLookupResolve_ChooserDecidesAmbiguity(t *testing.T) {
	src := &fakeShowSource{
		cands: []domain.Candidate{
			{ID: 1, Title: "Pořad"},
			{ID: 2, Title: "Pořad II"},
		},
		details: map[int]domain.CandidateDetail{
			1: {MediaType: "seriál"},
			2: {MediaType: "seriál"},
		},
	}
	var asked string
	l := Lookup{
		Source: src,
		Choose: func(name string, cands []ShowMatch) (int, bool) {
			asked = name
			return 1, true
		},
	}

	got, err := l.Resolve(context.Background(), "Pořad")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got == nil || got.Candidate.ID != 2 {
		t.Fatalf("裁决结果未生效：%+v", got)
	}
	if asked != "Pořad" {
		t.Fatalf("裁决应携带剧名，实际 %q", asked)
	}
}

func TestLookupResolve_MovieFilteredOutEntirely(t *testing.T) {
	src := &fakeShowSource{
		cands:   []domain.Candidate{{ID: 1, Title: "Filmy"}},
		details: map[int]domain.CandidateDetail{1: {MediaType: "seriál"}},
	}
	l := Lookup{Source: src}

	got, err := l.Resolve(context.Background(), "Filmy")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got != nil {
		t.Fatalf("门类链接 'Filmy' 应被丢弃：%+v", got)
	}
}

func TestRenderSummary(t *testing.T) {
	reports := []ShowReport{
		{
			Name: "Akta X",
			Seasons: map[int]*SeasonReport{
				1: {Season: 1, Present: []int{1, 2, 4}, Missing: []int{3}},
			},
			MissingSeasons: []int{2},
		},
		{
			Name: "Kompletní",
			Seasons: map[int]*SeasonReport{
				1: {Season: 1, Present: []int{1, 2}},
			},
		},
	}
	out := RenderSummary(reports)
	for _, want := range []string{"Akta X", "S01E03", "S02"} {
		if !strings.Contains(out, want) {
			t.Errorf("汇总表缺少 %q", want)
		}
	}
	if strings.Contains(out, "Kompletní") {
		t.Errorf("完整剧目不应出现在缺口表里")
	}

	if out := RenderSummary(nil); !strings.Contains(out, "完整") {
		t.Errorf("空输入应给出完整提示，实际 %q", out)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
