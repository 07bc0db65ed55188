package missing

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary 把缺集汇总渲染成终端表格。
// 只列出有缺口的剧；全部完整时返回一句话而不是空表。
func RenderSummary(reports []ShowReport) string {
	rows := make([]table.Row, 0, len(reports))
	for _, r := range reports {
		if !r.HasGaps() {
			continue
		}
		if len(r.MissingSeasons) > 0 {
			rows = append(rows, table.Row{r.Name, "—", "整季缺失：" + formatSeasons(r.MissingSeasons)})
		}
		for _, s := range r.MissingSummary() {
			rows = append(rows, table.Row{r.Name, seasonLabel(s.Season), formatEpisodes(s.Season, s.Missing)})
		}
	}
	if len(rows) == 0 {
		return "所有已识别的季均完整（未检测到缺口）。"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"剧目", "季", "缺失"})
	tw.AppendRows(rows)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func seasonLabel(n int) string {
	if n == 0 {
		return "Specials"
	}
	return "S" + pad2(n)
}

func formatSeasons(nums []int) string {
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, "S"+pad2(n))
	}
	return strings.Join(parts, ", ")
}

func formatEpisodes(season int, eps []int) string {
	parts := make([]string, 0, len(eps))
	for _, e := range eps {
		parts = append(parts, FormatEpisode(season, e))
	}
	if len(parts) > 8 {
		head := strings.Join(parts[:8], ", ")
		return head + " … 共 " + strconv.Itoa(len(parts)) + " 集"
	}
	return strings.Join(parts, ", ")
}
