// Package rank 对候选排序：文本相似度降序为主键，年份命中为次级 tie-break。
//
// 约束：
// - 绝不丢弃候选（过滤是展示层的事）：低分但正确的匹配必须仍可被选中
// - 稳定排序：同分候选保持来源页原始顺序
package rank

import (
	"sort"
	"strings"

	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/normalize"
)

// Rank 返回排好序的候选副本切片；输入切片不被修改。
func Rank(cands []domain.Candidate, q domain.SearchQuery) []domain.Candidate {
	out := make([]domain.Candidate, len(cands))
	copy(out, cands)
	if len(out) < 2 {
		return out
	}

	queryFold := normalize.Fold(q.Title)
	scores := make([]float64, len(out))
	for i := range out {
		scores[i] = Score(out[i].Title, queryFold)
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if scores[i] != scores[j] {
			return scores[i] > scores[j]
		}
		if q.Year != 0 {
			iy := out[i].Year == q.Year
			jy := out[j].Year == q.Year
			if iy != jy {
				return iy
			}
		}
		// 余下的平局保持来源顺序（SliceStable + 下标比较兜底）。
		return false
	})

	ranked := make([]domain.Candidate, len(out))
	for pos, i := range idx {
		ranked[pos] = out[i]
	}
	return ranked
}

// Score 计算候选标题对折叠后查询串的相似度，范围 [0,1]。
// 分级：完全相等 > 前缀 > 包含 > token 重合率。
func Score(title, queryFold string) float64 {
	tf := normalize.Fold(title)
	if tf == "" || queryFold == "" {
		return 0
	}
	if tf == queryFold {
		return 1.0
	}
	if strings.HasPrefix(tf, queryFold) || strings.HasPrefix(queryFold, tf) {
		return 0.85
	}
	if strings.Contains(tf, queryFold) || strings.Contains(queryFold, tf) {
		return 0.7
	}
	return 0.6 * tokenOverlap(tf, queryFold)
}

func tokenOverlap(a, b string) float64 {
	at := strings.Fields(a)
	bt := strings.Fields(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(at))
	for _, t := range at {
		set[t] = struct{}{}
	}
	hits := 0
	for _, t := range bt {
		if _, ok := set[t]; ok {
			hits++
		}
	}
	max := len(at)
	if len(bt) > max {
		max = len(bt)
	}
	return float64(hits) / float64(max)
}
