// Package rename 把一次成功的解析落成目标命名：`Title (Year)`。
//
// 约束：
// - 绝不覆盖已存在的目标：目标已存在时放弃该步并告知上层（而不是报错中断）
// - 目录在前、文件在后；目录改名后必须能把批处理里后续条目的路径映射过来
// - 改名保持在同一父目录下（不跨盘；媒体库本来就在一个文件系统上）
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	invalidCharsRE = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	whitespaceRE   = regexp.MustCompile(`\s+`)
)

// SanitizeComponent 把任意文本洗成合法的路径组件：
// 非法字符与制表符折叠为空格，压缩空白，去掉首尾的空格与点。
func SanitizeComponent(text string) string {
	cleaned := invalidCharsRE.ReplaceAllString(text, " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	cleaned = whitespaceRE.ReplaceAllString(cleaned, " ")
	return strings.Trim(cleaned, " .")
}

// FormatMediaName 生成媒体服务器消费的规范基名：`Title (Year)`；无年份时只有标题。
func FormatMediaName(title string, year int) string {
	base := whitespaceRE.ReplaceAllString(strings.TrimSpace(title), " ")
	if year != 0 {
		base = fmt.Sprintf("%s (%d)", base, year)
	}
	return SanitizeComponent(base)
}

// Result 描述一次 Apply 的落盘结果。
type Result struct {
	NewPath string

	// DirChange 非空表示所在目录被改名：[0]=旧绝对路径，[1]=新绝对路径。
	// 批处理必须用它来 remap 后续条目。
	DirChange [2]string
	DirMoved  bool

	Changed bool
}

// Apply 对单个文件执行目录+文件两级改名。
//
// 规则（与目录结构约定绑定）：
// - 文件直接躺在库根下：为它建 `<root>/<base>/` 专属目录并移入
// - 文件在专属目录里：目录改名为 base（目标目录已存在时改为移入该目录）
// - 文件名改为 `<base><ext>`；目标文件已存在时跳过文件步（不覆盖）
// - 移空的旧目录做 best-effort 清理
func Apply(filePath, baseName, root string) (Result, error) {
	res := Result{NewPath: filePath}
	if baseName == "" {
		return res, fmt.Errorf("目标基名为空")
	}

	currentPath := filePath
	originalDir := filepath.Dir(filePath)
	dirPath := originalDir
	ext := filepath.Ext(filePath)

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return res, err
	}
	dirAbs, err := filepath.Abs(dirPath)
	if err != nil {
		return res, err
	}

	var targetDirParent string
	if dirAbs == rootAbs {
		targetDirParent = dirPath
	} else {
		targetDirParent = filepath.Dir(dirPath)
	}
	targetDir := filepath.Join(targetDirParent, baseName)
	targetDirAbs, err := filepath.Abs(targetDir)
	if err != nil {
		return res, err
	}

	renamedDirectory := false
	if dirAbs != targetDirAbs {
		if _, statErr := os.Stat(targetDir); dirAbs != rootAbs && os.IsNotExist(statErr) {
			if err := os.Rename(dirPath, targetDir); err != nil {
				return res, fmt.Errorf("目录改名失败：%w", err)
			}
			res.DirChange = [2]string{dirAbs, targetDirAbs}
			res.DirMoved = true
			renamedDirectory = true
			dirPath = targetDir
			dirAbs = targetDirAbs
			currentPath = filepath.Join(dirPath, filepath.Base(currentPath))
		} else {
			if err := os.MkdirAll(targetDir, 0o755); err != nil {
				return res, err
			}
			dirPath = targetDir
			dirAbs = targetDirAbs
		}
	}

	targetName := SanitizeComponent(baseName + ext)
	targetPath := filepath.Join(dirPath, targetName)
	fileChanged := false
	if targetPath != currentPath {
		if _, statErr := os.Stat(targetPath); statErr == nil {
			// 目标已存在：放弃文件步，保持现状（上层据此报 unchanged/conflict）。
			res.NewPath = currentPath
			res.Changed = renamedDirectory
			return res, nil
		}
		if err := os.MkdirAll(dirPath, 0o755); err != nil {
			return res, err
		}
		if err := os.Rename(currentPath, targetPath); err != nil {
			return res, fmt.Errorf("文件改名失败：%w", err)
		}
		currentPath = targetPath
		fileChanged = true
	}

	// 把文件移去新目录后，空掉的旧目录做清理（失败无害，目录非空时自然失败）。
	originalDirAbs, _ := filepath.Abs(originalDir)
	if !renamedDirectory && originalDirAbs != dirAbs && originalDirAbs != rootAbs {
		_ = os.Remove(originalDir)
	}

	res.NewPath = currentPath
	res.Changed = fileChanged || renamedDirectory
	return res, nil
}

// RemapPath 按目录映射（旧绝对路径 -> 新绝对路径）重写 path。
// 最长前缀优先，保证嵌套目录映射的正确性。
func RemapPath(path string, mapping map[string]string) string {
	if len(mapping) == 0 {
		return path
	}
	olds := make([]string, 0, len(mapping))
	for old := range mapping {
		olds = append(olds, old)
	}
	sort.Slice(olds, func(i, j int) bool { return len(olds[i]) > len(olds[j]) })

	sep := string(filepath.Separator)
	for _, old := range olds {
		if path == old || strings.HasPrefix(path, old+sep) {
			return mapping[old] + path[len(old):]
		}
	}
	return path
}
