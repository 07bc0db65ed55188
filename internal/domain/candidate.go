package domain

// Candidate 是外部目录的一条搜索结果。
//
// 约束：
// - ID 是 detail 页的来源主键（/film/<id>-...）；解析不出时为 0
// - Year 为 0 表示来源页没有给出年份（合法缺失，不是错误）
// - 抓取后不再修改；排序产生的是新切片里的副本视图
type Candidate struct {
	ID    int
	Title string
	Year  int
	Kind  MediaKind
	URL   string
}

// Manual 表示该候选不是来源页给出的，而是用户手动输入的（ID==0 且 URL 为空）。
func (c Candidate) Manual() bool { return c.ID == 0 && c.URL == "" }

// SeasonEpisodes 描述一季的集数（来自来源页的结构化季信息）。
type SeasonEpisodes struct {
	Season   int
	Episodes int
}

// CandidateDetail 是对单个候选按需抓取的扩展数据。
//
// 约束：
// - 只为“被选中/被确认”的候选抓取，绝不为整个候选列表抓取
// - 字段零值一律表示“来源页没有该数据”：RuntimeM==0、Seasons==nil 都合法
type CandidateDetail struct {
	RuntimeM      int
	Seasons       []SeasonEpisodes
	OriginalTitle string
	Origins       []string
	MediaType     string
}

// SeasonCount 返回结构化季数；来源页缺失季信息时为 0。
func (d CandidateDetail) SeasonCount() int { return len(d.Seasons) }

// DurationDelta 是本地时长与来源时长的带符号差（分钟）。
// Known==false 表示任一侧缺失（探测器不可用、来源页无时长），展示层渲染为 n/a。
type DurationDelta struct {
	Minutes int
	Known   bool
}
