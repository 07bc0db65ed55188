package domain

import "path/filepath"

// Entry 描述一次扫描得到的视频文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Base 不含扩展名；Ext 为小写且含点（".mkv"）
type Entry struct {
	AbsPath string
	RelPath string
	Base    string
	Ext     string
	Kind    MediaKind
	Size    int64
	ModUnix int64
}

// ParentName 返回所在目录名（用于目录名兜底检索与 suggest-skip 比对）。
func (e Entry) ParentName() string {
	return filepath.Base(filepath.Dir(e.AbsPath))
}
