package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/CSRN/internal/config"
	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/missing"
	"github.com/John-Robertt/CSRN/internal/picker"
	"github.com/John-Robertt/CSRN/internal/resolve"
)

func newMissingCommand() *cobra.Command {
	var (
		path       string
		show       string
		noCSFD     bool
		maxResults int
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "missing --path DIR [--show SUBSTR] [--no-csfd]",
		Short: "检测剧集库缺集，可选 CSFD 交叉核对剧目身份",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			eff, err := config.LoadEffective(cwd, config.CLIArgs{
				Path:        path,
				LogLevel:    logLevel,
				LogLevelSet: cmd.Flags().Changed("log-level"),
			})
			if err != nil {
				return err
			}
			log := newLogger(eff.LogLevel)

			shows, err := missing.DiscoverShows(eff.Path)
			if err != nil {
				return fmt.Errorf("读取剧目录失败：%w", err)
			}
			if len(shows) == 0 {
				fmt.Fprintf(os.Stderr, "路径下没有剧目录：%s\n", eff.Path)
				return errSilentExit
			}
			if show != "" {
				shows = missing.FilterShows(shows, show)
				if len(shows) == 0 {
					fmt.Fprintf(os.Stderr, "没有剧目录匹配 %q\n", show)
					return errSilentExit
				}
			}

			var lookup *missing.Lookup
			if eff.UseCSFD && !noCSFD {
				src, err := newSource(eff, log)
				if err != nil {
					return err
				}
				lookup = &missing.Lookup{
					Source:     src,
					MaxResults: maxResults,
					Choose:     chooseShowMatch,
				}
			}

			ctx := cmd.Context()
			reports := make([]missing.ShowReport, 0, len(shows))
			for i, s := range shows {
				name, dir := s[0], s[1]
				report, err := missing.AnalyzeShow(name, dir)
				if err != nil {
					return fmt.Errorf("分析 %q 失败：%w", name, err)
				}
				if lookup != nil {
					match, err := lookup.Resolve(ctx, name)
					if err != nil {
						log.Warn().Err(err).Str("show", name).Msg("CSFD 交叉核对失败，仅用本地信息")
					}
					report.Match = match
				}
				printShowProgress(i+1, len(shows), report)
				reports = append(reports, report)
			}

			fmt.Fprintln(os.Stdout)
			fmt.Fprintln(os.Stdout, missing.RenderSummary(reports))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "剧集库根目录（每剧一个子目录）")
	cmd.Flags().StringVar(&show, "show", "", "不区分大小写的剧名子串过滤")
	cmd.Flags().BoolVar(&noCSFD, "no-csfd", false, "关闭 CSFD 交叉核对，只用本地目录信息")
	cmd.Flags().IntVar(&maxResults, "csfd-max-results", 5, "交叉核对时展示的候选上限")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "日志级别：trace|debug|info|warn|error")
	return cmd
}

// chooseShowMatch 用通用选择器裁决多个剧目候选。
func chooseShowMatch(showName string, matches []missing.ShowMatch) (int, bool) {
	cands := make([]domain.Candidate, 0, len(matches))
	for _, m := range matches {
		c := m.Candidate
		if m.Detail.OriginalTitle != "" && !strings.EqualFold(m.Detail.OriginalTitle, c.Title) {
			c.Title = c.Title + " / " + m.Detail.OriginalTitle
		}
		cands = append(cands, c)
	}

	choice := picker.NewTerminal().Present(resolve.Session{
		FileName:   showName,
		Query:      domain.SearchQuery{Title: showName, Kind: domain.KindShow},
		Candidates: cands,
	})
	if choice.Kind != resolve.ChoiceSelect {
		return 0, false
	}
	return choice.Index, true
}

func printShowProgress(idx, total int, r missing.ShowReport) {
	fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", idx, total, r.Name)
	if r.Match != nil {
		origins := "neznámý původ"
		if len(r.Match.Detail.Origins) > 0 {
			origins = strings.Join(r.Match.Detail.Origins, ", ")
		}
		original := r.Match.Detail.OriginalTitle
		if original == "" {
			original = r.Match.Candidate.Title
		}
		fmt.Fprintf(os.Stderr, "  CSFD: %s (%d) | %s | 原名 %s\n",
			r.Match.Candidate.Title, r.Match.Candidate.Year, origins, original)
	}
	if len(r.Seasons) == 0 {
		fmt.Fprintln(os.Stderr, "  未识别出任何季（没有季目录或 SxxEyy 标记）")
		return
	}
	for _, s := range r.MissingSummary() {
		parts := make([]string, 0, len(s.Missing))
		for _, e := range s.Missing {
			parts = append(parts, missing.FormatEpisode(s.Season, e))
		}
		fmt.Fprintf(os.Stderr, "  S%02d 缺：%s\n", s.Season, strings.Join(parts, ", "))
	}
	if len(r.MissingSeasons) > 0 {
		parts := make([]string, 0, len(r.MissingSeasons))
		for _, n := range r.MissingSeasons {
			parts = append(parts, fmt.Sprintf("S%02d", n))
		}
		fmt.Fprintf(os.Stderr, "  整季缺失：%s\n", strings.Join(parts, ", "))
	}
}
