package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/CSRN/internal/config"
	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/normalize"
	"github.com/John-Robertt/CSRN/internal/picker"
	"github.com/John-Robertt/CSRN/internal/resolve"
)

// lookup 是单发解析：不碰文件系统，stdout 只输出 "Title|Year" 一行。
// 退出码：0=采纳了一个候选，1=跳过/取消/没有可用查询。
func newLookupCommand() *cobra.Command {
	var (
		filename string
		query    string
		year     int
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "lookup (--filename NAME | --query TEXT) [--year N]",
		Short: "单个名字的一次性解析，输出 Title|Year",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (filename == "") == (query == "") {
				return fmt.Errorf("--filename 与 --query 必须且只能给一个")
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			// lookup 不需要媒体库：path 固定为 cwd，配置文件存在则沿用其选项。
			eff, err := config.LoadEffective(cwd, config.CLIArgs{
				Path:        ".",
				LogLevel:    logLevel,
				LogLevelSet: cmd.Flags().Changed("log-level"),
			})
			if err != nil {
				return err
			}
			log := newLogger(eff.LogLevel)

			var q domain.SearchQuery
			if filename != "" {
				q = normalize.Derive(filepath.Base(filename))
			} else {
				q = normalize.Derive(query)
				if strings.TrimSpace(query) != "" && q.Title == "" {
					// 查询串全是噪声时保留原文，让用户在选择器里再改。
					q.Title = strings.TrimSpace(query)
				}
			}
			if year != 0 {
				q.Year = year
			}
			if q.Empty() {
				fmt.Fprintln(os.Stderr, "没有可用的查询串")
				return errSilentExit
			}

			c, err := newSource(eff, log)
			if err != nil {
				return err
			}
			var src resolve.Source
			if c != nil {
				src = c
			}
			r := resolve.New(src, nil, picker.NewTerminal(), resolve.Options{
				MaxResults:  eff.MaxResults,
				UseExternal: eff.UseCSFD,
			}, log)

			// 合成一个不落盘的条目：lookup 只关心标题裁决。
			entry := domain.Entry{Base: q.Title, Ext: "", Kind: q.Kind}
			if q.Year != 0 {
				entry.Base = fmt.Sprintf("%s (%d)", q.Title, q.Year)
			}
			res := r.ResolveEntry(cmd.Context(), entry, resolve.Progress{Index: 1, Total: 1})

			if res.Outcome != domain.OutcomeMatched {
				return errSilentExit
			}
			fmt.Fprintf(os.Stdout, "%s|%d\n", res.Candidate.Title, res.Candidate.Year)
			return nil
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "按文件名派生查询（只取基名）")
	cmd.Flags().StringVar(&query, "query", "", "直接给定查询文本")
	cmd.Flags().IntVar(&year, "year", 0, "年份提示（覆盖从名字里提取的年份）")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "日志级别：trace|debug|info|warn|error")
	return cmd
}
