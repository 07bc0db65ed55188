package scan

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/normalize"
)

var episodeMarkRE = regexp.MustCompile(`(?i)\bs\d{1,2}e\d{1,3}\b`)

// ScanVideos 扫描 root 下的视频文件，并应用目录排除规则。
//
// 规则（硬约束）：
// - excludeDirs：来自配置文件，均视为相对 root 的路径（若是绝对路径，则按绝对路径处理）
// - 输出按 RelPath 稳定排序：批处理顺序在所有平台上一致
//
// 注意：扫描阶段只做 stat（DirEntry.Info），不读文件内容。
func ScanVideos(root string, excludeDirs []string) ([]domain.Entry, error) {
	root = filepath.Clean(root)
	excluded := buildExcluded(root, excludeDirs)

	entries := make([]domain.Entry, 0, 128)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !normalize.IsVideoExt(ext) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		entries = append(entries, domain.Entry{
			AbsPath: path,
			RelPath: rel,
			Base:    strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     ext,
			Kind:    inferKind(rel, name),
			Size:    info.Size(),
			ModUnix: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

// inferKind 给出媒体类型提示：文件名/路径带剧集标记（SxxEyy、Season 目录）
// 视为剧集，其余不做断言。提示只影响检索辅助信号，判错无害。
func inferKind(rel, name string) domain.MediaKind {
	probe := strings.ToLower(rel + " " + name)
	if episodeMarkRE.MatchString(probe) || strings.Contains(probe, "season") || strings.Contains(probe, "série") {
		return domain.KindShow
	}
	return domain.KindAny
}

// ListShows 列出 root 直接子目录（剧集库的“每剧一目录”约定）。
// 输出按目录名稳定排序。
func ListShows(root string) ([][2]string, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	shows := make([][2]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		shows = append(shows, [2]string{de.Name(), filepath.Join(root, de.Name())})
	}
	sort.Slice(shows, func(i, j int) bool { return shows[i][0] < shows[j][0] })
	return shows, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
