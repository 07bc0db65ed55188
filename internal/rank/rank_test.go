package rank

import (
	"testing"

	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/normalize"
)

func TestRank_YearTieBreak(t *testing.T) {
	cands := []domain.Candidate{
		{Title: "Alien", Year: 1979},
		{Title: "Alien", Year: 2004},
		{Title: "Alien3", Year: 1992},
	}
	got := Rank(cands, domain.SearchQuery{Title: "Alien", Year: 1979})

	if got[0].Year != 1979 {
		t.Fatalf("期望年份命中的 Alien(1979) 排第一，实际 %+v", got[0])
	}
	if got[1].Title != "Alien" || got[2].Title != "Alien3" {
		t.Fatalf("期望 Alien(2004) 严格排在 Alien3 之前：%v", got)
	}
}

func TestRank_NeverDropsCandidates(t *testing.T) {
	cands := []domain.Candidate{
		{Title: "Úplně jiný film", Year: 1999},
		{Title: "Vetřelec", Year: 1979},
		{Title: "x"},
	}
	got := Rank(cands, domain.SearchQuery{Title: "Vetřelec"})
	if len(got) != len(cands) {
		t.Fatalf("排序不允许丢候选：输入 %d，输出 %d", len(cands), len(got))
	}
}

func TestRank_StableOnTies(t *testing.T) {
	cands := []domain.Candidate{
		{ID: 1, Title: "Kolja"},
		{ID: 2, Title: "Kolja"},
		{ID: 3, Title: "Kolja"},
	}
	got := Rank(cands, domain.SearchQuery{Title: "Kolja"})
	if got[0].ID != 1 || got[1].ID != 2 || got[2].ID != 3 {
		t.Fatalf("同分候选必须保持来源顺序：%v", got)
	}
}

func TestRank_DiacriticInsensitive(t *testing.T) {
	cands := []domain.Candidate{
		{Title: "Jiny film"},
		{Title: "Vetrelec"},
	}
	got := Rank(cands, domain.SearchQuery{Title: "Vetřelec"})
	if got[0].Title != "Vetrelec" {
		t.Fatalf("去重音比较失效：%v", got)
	}
}

func TestRank_InputNotMutated(t *testing.T) {
	cands := []domain.Candidate{
		{Title: "B"},
		{Title: "A"},
	}
	_ = Rank(cands, domain.SearchQuery{Title: "A"})
	if cands[0].Title != "B" {
		t.Fatalf("输入切片被修改了")
	}
}

func TestScore_Grades(t *testing.T) {
	q := normalize.Fold("Alien")
	exact := Score("Alien", q)
	prefix := Score("Alien3", q)
	other := Score("Predator", q)
	if !(exact > prefix && prefix > other) {
		t.Fatalf("分级不单调：exact=%v prefix=%v other=%v", exact, prefix, other)
	}
}
