package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/CSRN/internal/domain"
)

func TestScanVideos_SortedAndFiltered(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "b", "Kolja (1996).mkv"))
	touch(t, filepath.Join(root, "a", "Samotari.avi"))
	touch(t, filepath.Join(root, "a", "poznámky.txt"))

	got, err := ScanVideos(root, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个视频文件，实际 %d", len(got))
	}
	// 稳定排序：RelPath 字典序。
	if got[0].RelPath != filepath.Join("a", "Samotari.avi") {
		t.Fatalf("排序不符合契约：%q", got[0].RelPath)
	}
	if got[1].Base != "Kolja (1996)" || got[1].Ext != ".mkv" {
		t.Fatalf("Base/Ext 解析不正确：%+v", got[1])
	}
}

func TestScanVideos_ExcludeDirsFromConfig(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "temp", "A.mp4"))
	touch(t, filepath.Join(root, "ok", "B.mkv"))

	got, err := ScanVideos(root, []string{"temp"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个视频文件，实际 %d", len(got))
	}
	if got[0].RelPath != filepath.Join("ok", "B.mkv") {
		t.Fatalf("排除规则失效：%q", got[0].RelPath)
	}
}

func TestScanVideos_ExtCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "X.MP4"))

	got, err := ScanVideos(root, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个视频文件，实际 %d", len(got))
	}
	if got[0].Ext != ".mp4" {
		t.Fatalf("期望 ext=.mp4，实际=%q", got[0].Ext)
	}
}

func TestScanVideos_ShowKindHint(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Akta X", "Season 01", "Akta.X.S01E01.mkv"))
	touch(t, filepath.Join(root, "Kolja (1996).mkv"))

	got, err := ScanVideos(root, nil)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	var show, movie *domain.Entry
	for i := range got {
		if got[i].Ext == ".mkv" && got[i].Base == "Akta.X.S01E01" {
			show = &got[i]
		} else {
			movie = &got[i]
		}
	}
	if show == nil || show.Kind != domain.KindShow {
		t.Fatalf("期望剧集标记被识别为 KindShow：%+v", show)
	}
	if movie == nil || movie.Kind != domain.KindAny {
		t.Fatalf("无标记文件不应断言类型：%+v", movie)
	}
}

func TestListShows(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "B seriál", "S01E01.mkv"))
	touch(t, filepath.Join(root, "A seriál", "S01E01.mkv"))
	touch(t, filepath.Join(root, "volny-soubor.mkv"))

	shows, err := ListShows(root)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(shows) != 2 {
		t.Fatalf("期望 2 个剧目录，实际 %d", len(shows))
	}
	if shows[0][0] != "A seriál" || shows[1][0] != "B seriál" {
		t.Fatalf("目录未按名称排序：%v", shows)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
