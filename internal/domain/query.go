package domain

// MediaKind 是媒体类型提示（用于搜索与排序的辅助信号，不是硬过滤条件）。
type MediaKind int

const (
	KindAny MediaKind = iota
	KindMovie
	KindShow
)

// SearchQuery 是一次检索的规范化输入。
//
// 不变量（实现必须遵守）：
// - Title 已经过噪声清洗（分辨率/编码/发布组等 token 已剔除）
// - Year 为 0 表示没有年份提示；非 0 时范围在 1900–2099
// - 构造后不再修改；手动改词（requery）必须生成新的 SearchQuery
type SearchQuery struct {
	Title string
	Year  int
	Kind  MediaKind
}

// Empty 表示清洗后没有任何可检索的内容（合法状态，下游只会搜不到结果）。
func (q SearchQuery) Empty() bool { return q.Title == "" }
