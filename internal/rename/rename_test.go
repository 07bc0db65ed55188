package rename

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeComponent(t *testing.T) {
	cases := map[string]string{
		"Vetřelec: Vzkříšení":    "Vetřelec Vzkříšení",
		"a/b\\c":                 "a b c",
		"  okraje  ":             "okraje",
		"tečka na konci.":        "tečka na konci",
		"tab\there":              "tab here",
		"Kolja (1996)":           "Kolja (1996)",
	}
	for in, want := range cases {
		if got := SanitizeComponent(in); got != want {
			t.Errorf("SanitizeComponent(%q) = %q，期望 %q", in, got, want)
		}
	}
}

func TestFormatMediaName(t *testing.T) {
	if got := FormatMediaName("Vetřelec", 1979); got != "Vetřelec (1979)" {
		t.Fatalf("期望 \"Vetřelec (1979)\"，实际 %q", got)
	}
	if got := FormatMediaName("  Kolja  ", 0); got != "Kolja" {
		t.Fatalf("无年份时只要标题，实际 %q", got)
	}
	if got := FormatMediaName("a: b?", 2000); got != "a b (2000)" {
		t.Fatalf("非法字符未清洗：%q", got)
	}
}

func TestApply_FileInDedicatedDir_RenamesDirAndFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "vetrelec.1979.1080p")
	mustMkdir(t, dir)
	src := filepath.Join(dir, "vetrelec.1979.1080p.mkv")
	mustWrite(t, src)

	res, err := Apply(src, "Vetřelec (1979)", root)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := filepath.Join(root, "Vetřelec (1979)", "Vetřelec (1979).mkv")
	if res.NewPath != want {
		t.Fatalf("期望 %q，实际 %q", want, res.NewPath)
	}
	if !res.Changed || !res.DirMoved {
		t.Fatalf("期望目录+文件均改名：%+v", res)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("目标文件不存在：%v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("旧目录应已改名消失")
	}
}

func TestApply_FileAtRoot_CreatesDedicatedDir(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "kolja.avi")
	mustWrite(t, src)

	res, err := Apply(src, "Kolja (1996)", root)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := filepath.Join(root, "Kolja (1996)", "Kolja (1996).avi")
	if res.NewPath != want {
		t.Fatalf("期望 %q，实际 %q", want, res.NewPath)
	}
	if res.DirMoved {
		t.Fatalf("库根本身不应被改名")
	}
}

func TestApply_AlreadyCanonical_NoChange(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Kolja (1996)")
	mustMkdir(t, dir)
	src := filepath.Join(dir, "Kolja (1996).avi")
	mustWrite(t, src)

	res, err := Apply(src, "Kolja (1996)", root)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if res.Changed {
		t.Fatalf("已是规范命名时不应有改动：%+v", res)
	}
	if res.NewPath != src {
		t.Fatalf("路径不应变化：%q", res.NewPath)
	}
}

func TestApply_TargetFileExists_KeepsSource(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Kolja (1996)")
	mustMkdir(t, dir)
	src := filepath.Join(dir, "kolja-old.avi")
	mustWrite(t, src)
	mustWrite(t, filepath.Join(dir, "Kolja (1996).avi"))

	res, err := Apply(src, "Kolja (1996)", root)
	if err != nil {
		t.Fatalf("目标已存在不是错误：%v", err)
	}
	if res.Changed {
		t.Fatalf("不允许覆盖已存在的目标：%+v", res)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("源文件必须原样保留：%v", err)
	}
}

func TestApply_CleansUpEmptiedSourceDir(t *testing.T) {
	root := t.TempDir()
	// 目标目录已存在 => 走“移入”分支而不是目录改名。
	oldDir := filepath.Join(root, "stary-nazev")
	mustMkdir(t, oldDir)
	mustMkdir(t, filepath.Join(root, "Kolja (1996)"))
	src := filepath.Join(oldDir, "film.avi")
	mustWrite(t, src)

	res, err := Apply(src, "Kolja (1996)", root)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := filepath.Join(root, "Kolja (1996)", "Kolja (1996).avi")
	if res.NewPath != want {
		t.Fatalf("期望移入已存在目录：%q", res.NewPath)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Fatalf("移空的旧目录应被清理")
	}
}

func TestRemapPath(t *testing.T) {
	sep := string(filepath.Separator)
	mapping := map[string]string{
		"/lib/old":      "/lib/new",
		"/lib/old/deep": "/lib/jine",
	}
	if got := RemapPath("/lib/old"+sep+"a.mkv", mapping); got != "/lib/new"+sep+"a.mkv" {
		t.Fatalf("前缀映射失败：%q", got)
	}
	// 最长前缀优先。
	if got := RemapPath("/lib/old/deep"+sep+"b.mkv", mapping); got != "/lib/jine"+sep+"b.mkv" {
		t.Fatalf("最长前缀未优先：%q", got)
	}
	if got := RemapPath("/lib/older"+sep+"c.mkv", mapping); got != "/lib/older"+sep+"c.mkv" {
		t.Fatalf("非前缀路径不应被改写：%q", got)
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
