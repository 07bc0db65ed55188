// Package normalize 把磁盘上的原始名字洗成可检索的查询串。
//
// 约束：
// - 纯函数，无 I/O，无失败路径：再脏的输入也给出“尽力而为”的结果
//  （洗完为空是合法输出，下游只是搜不到结果）
// - token 边界匹配：噪声词只整词剔除，不允许腐蚀正常词
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/John-Robertt/CSRN/internal/domain"
)

var (
	yearRE       = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	resolutionRE = regexp.MustCompile(`(?i)^(480|576|720|1080|1440|2160)[pi]$`)
	episodeRE    = regexp.MustCompile(`(?i)^s\d{1,2}e\d{1,3}$|^\d{1,2}x\d{1,3}$`)
	separatorsRE = regexp.MustCompile(`[._]+`)
	tokenRE      = regexp.MustCompile(`[\p{L}\p{N}]+`)
	bracketRE    = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
)

// noiseTokens 是逐词剔除的噪声集合（小写比较）。
var noiseTokens = map[string]struct{}{
	"hd": {}, "uhd": {}, "uhdtv": {}, "hdr": {}, "hdrip": {}, "bdrip": {},
	"brrip": {}, "webrip": {}, "webdl": {}, "dvdrip": {}, "remastered": {},
	"fullhd": {}, "bluray": {}, "br": {}, "hevc": {}, "x264": {}, "x265": {},
	"h264": {}, "h265": {}, "ac3": {}, "dts": {}, "aac": {}, "dd5": {},
	"dd51": {}, "multi": {}, "cz": {}, "sk": {}, "en": {}, "pl": {},
	"dab": {}, "dabing": {}, "dub": {}, "titulky": {}, "tit": {}, "subs": {},
	"subtitles": {}, "remux": {}, "proper": {}, "repack": {}, "hdtv": {},
}

// cutTokens 是“从这里起全是发布元数据”的硬标记：匹配到就截断其后全部 token。
// 发布组名无法穷举，只能靠它前面的 codec/来源标记连带截掉。
var cutTokens = map[string]struct{}{
	"x264": {}, "x265": {}, "h264": {}, "h265": {}, "hevc": {},
	"bluray": {}, "bdrip": {}, "brrip": {}, "webrip": {}, "webdl": {},
	"dvdrip": {}, "hdrip": {}, "remux": {}, "hdtv": {}, "web": {},
}

var videoExts = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".ts": {}, ".wmv": {},
	".mpg": {}, ".mpeg": {}, ".flv": {}, ".iso": {},
}

// IsVideoExt 判断小写扩展名（含点）是否属于受支持的视频容器。
func IsVideoExt(ext string) bool {
	_, ok := videoExts[strings.ToLower(ext)]
	return ok
}

// StripExtensions 连续剥掉末尾的视频扩展名（"a.b.mkv" -> "a.b"，"x.mkv.mkv" -> "x"）。
func StripExtensions(name string) string {
	for {
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return name
		}
		if _, ok := videoExts[strings.ToLower(name[i:])]; !ok {
			return name
		}
		name = name[:i]
	}
}

// Derive 把原始文件名/目录名洗成 SearchQuery。
//
// 流程（顺序固定）：
// 1) 剥扩展名
// 2) 分隔符（点/下划线）折叠为空格——必须先于年份提取：
//    下划线算 \w，"_1979_" 在折叠前过不了 \b 边界
// 3) 提取年份提示（1900–2099），并把含年份的括号组整体移除
// 4) 按字母数字切 token，截断第一个硬标记（SxxEyy / NxM / 分辨率 /
//    codec、来源 token）起的尾部
// 5) 逐词剔除噪声 token 与年份 token
func Derive(raw string) domain.SearchQuery {
	stem := StripExtensions(strings.TrimSpace(raw))
	stem = separatorsRE.ReplaceAllString(stem, " ")

	year := 0
	if m := yearRE.FindString(stem); m != "" {
		year = atoi4(m)
	}

	// 只移除“含年份”的括号组；普通括号（副标题等）保留给 token 化处理。
	stem = bracketRE.ReplaceAllStringFunc(stem, func(g string) string {
		if yearRE.MatchString(g) {
			return " "
		}
		return g
	})

	tokens := tokenRE.FindAllString(stem, -1)

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if episodeRE.MatchString(tok) || resolutionRE.MatchString(tok) {
			break
		}
		if _, cut := cutTokens[lower]; cut {
			break
		}
		if _, noise := noiseTokens[lower]; noise {
			continue
		}
		if yearRE.MatchString(tok) && len(tok) == 4 {
			continue
		}
		kept = append(kept, tok)
	}

	return domain.SearchQuery{
		Title: strings.Join(kept, " "),
		Year:  year,
	}
}

// DeriveEntry 从条目派生查询：优先文件名，洗空后回退目录名。
// 年份提示同样按“文件名优先、目录名兜底”取第一个命中。
func DeriveEntry(e domain.Entry) domain.SearchQuery {
	q := Derive(e.Base)
	if q.Empty() {
		q = Derive(e.ParentName())
	}
	if q.Year == 0 {
		parent := separatorsRE.ReplaceAllString(e.ParentName(), " ")
		if m := yearRE.FindString(parent); m != "" {
			q.Year = atoi4(m)
		}
	}
	q.Kind = e.Kind
	return q
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold 返回用于比较的折叠形态：小写 + 去重音（"Vetřelec" 与 "vetrelec" 相等）。
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func atoi4(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
