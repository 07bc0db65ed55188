package normalize

import (
	"testing"

	"github.com/John-Robertt/CSRN/internal/domain"
)

func TestDerive(t *testing.T) {
	cases := []struct {
		in        string
		wantTitle string
		wantYear  int
	}{
		{"Show.Name.S01E02.1080p.WEB-DL.x264-GROUP", "Show Name", 0},
		{"Movie (2003) [1080p]", "Movie", 2003},
		{"Temný rytíř (2008) 1080p.mkv", "Temný rytíř", 2008},
		{"Pulp.Fiction.1994.REMASTERED.BluRay.CZ.EN.mkv", "Pulp Fiction", 1994},
		{"Vetrelec_1979_2160p_HDR_remux.mkv", "Vetrelec", 1979},
		{"Samotari.avi", "Samotari", 0},
		{"S01E01.mkv", "", 0},
		{"", "", 0},
		// 普通括号不是年份组，保留其内容。
		{"Amelie (z Montmartru).mkv", "Amelie z Montmartru", 0},
	}
	for _, tc := range cases {
		got := Derive(tc.in)
		if got.Title != tc.wantTitle || got.Year != tc.wantYear {
			t.Errorf("Derive(%q) = {%q, %d}，期望 {%q, %d}", tc.in, got.Title, got.Year, tc.wantTitle, tc.wantYear)
		}
	}
}

// 幂等性：洗过的标题再洗一遍必须不变。
func TestDerive_TitleIdempotent(t *testing.T) {
	inputs := []string{
		"Show.Name.S01E02.1080p.WEB-DL.x264-GROUP",
		"Movie (2003) [1080p]",
		"Obchod na korze 1965 DVDRip",
		"Tři oříšky pro Popelku.mkv",
	}
	for _, in := range inputs {
		first := Derive(in)
		second := Derive(first.Title)
		if second.Title != first.Title {
			t.Errorf("Derive 不幂等：%q -> %q -> %q", in, first.Title, second.Title)
		}
	}
}

func TestDeriveEntry_FallbackToParentDir(t *testing.T) {
	e := domain.Entry{
		AbsPath: "/lib/Vratné lahve (2007)/S01E01.mkv",
		Base:    "S01E01",
		Ext:     ".mkv",
	}
	q := DeriveEntry(e)
	if q.Title != "Vratné lahve" {
		t.Fatalf("期望回退到目录名，实际 title=%q", q.Title)
	}
	if q.Year != 2007 {
		t.Fatalf("期望目录名年份提示 2007，实际 %d", q.Year)
	}
}

// 下划线目录名：年份提示同样要在分隔符折叠后才取得到。
func TestDeriveEntry_ParentYearWithUnderscores(t *testing.T) {
	e := domain.Entry{
		AbsPath: "/lib/Vetrelec_1979/vetrelec.remux.mkv",
		Base:    "vetrelec.remux",
		Ext:     ".mkv",
	}
	q := DeriveEntry(e)
	if q.Title != "vetrelec" {
		t.Fatalf("期望文件名派生标题，实际 %q", q.Title)
	}
	if q.Year != 1979 {
		t.Fatalf("期望目录名年份提示 1979，实际 %d", q.Year)
	}
}

func TestStripExtensions(t *testing.T) {
	cases := map[string]string{
		"a.b.mkv":     "a.b",
		"x.mkv.mkv":   "x",
		"noext":       "noext",
		"doc.txt":     "doc.txt",
		"Movie.1080p": "Movie.1080p",
	}
	for in, want := range cases {
		if got := StripExtensions(in); got != want {
			t.Errorf("StripExtensions(%q) = %q，期望 %q", in, got, want)
		}
	}
}

func TestFold(t *testing.T) {
	if Fold("Vetřelec") != "vetrelec" {
		t.Fatalf("Fold 未去重音：%q", Fold("Vetřelec"))
	}
	if Fold("  Alien ") != "alien" {
		t.Fatalf("Fold 未归一空白/大小写：%q", Fold("  Alien "))
	}
	if Fold("Amélie") != Fold("amelie") {
		t.Fatalf("Fold 比较不应区分重音")
	}
}
