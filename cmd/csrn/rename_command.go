package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/CSRN/internal/config"
	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/picker"
	"github.com/John-Robertt/CSRN/internal/resolve"
	"github.com/John-Robertt/CSRN/internal/scan"
)

func newRenameCommand() *cobra.Command {
	var (
		maxResults int
		autoSkip   bool
		useCSFD    bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "rename [path]",
		Short: "扫描媒体库并逐文件交互式改名为 Title (Year)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}

			eff, err := config.LoadEffective(cwd, config.CLIArgs{
				Path:          path,
				MaxResults:    maxResults,
				MaxResultsSet: cmd.Flags().Changed("max-results"),
				AutoSkip:      autoSkip,
				AutoSkipSet:   cmd.Flags().Changed("auto-skip"),
				UseCSFD:       useCSFD,
				UseCSFDSet:    cmd.Flags().Changed("csfd"),
				LogLevel:      logLevel,
				LogLevelSet:   cmd.Flags().Changed("log-level"),
			})
			if err != nil {
				return err
			}

			return runRename(cmd.Context(), eff)
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", config.DefaultMaxResults, "候选列表上限")
	cmd.Flags().BoolVar(&autoSkip, "auto-skip", false, "首位候选与本地名完全一致时免确认")
	cmd.Flags().BoolVar(&useCSFD, "csfd", true, "启用 CSFD 检索（--csfd=false 进入纯手动模式）")
	cmd.Flags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "日志级别：trace|debug|info|warn|error")
	return cmd
}

func runRename(ctx context.Context, eff config.EffectiveConfig) error {
	log := newLogger(eff.LogLevel)

	entries, err := scan.ScanVideos(eff.Path, eff.ExcludeDirs)
	if err != nil {
		return fmt.Errorf("扫描失败：%w", err)
	}
	log.Info().Int("files", len(entries)).Str("path", eff.Path).Msg("扫描完成")

	started := time.Now()

	c, err := newSource(eff, log)
	if err != nil {
		return err
	}
	var src resolve.Source
	if c != nil {
		src = c
	}
	r := resolve.New(src, newProber(log), picker.NewTerminal(), resolve.Options{
		MaxResults:      eff.MaxResults,
		AutoSkipMatches: eff.AutoSkip,
		UseExternal:     eff.UseCSFD,
	}, log)

	results := r.ResolveAll(ctx, entries, resolve.RenameApplier{Root: eff.Path})

	rr := buildReport(eff.Path, started, results)
	emitReport(rr)

	if rr.Summary.Failed > 0 || rr.Cancelled {
		return errSilentExit
	}
	return nil
}

// buildReport 把批处理结果折成稳定的运行报告。
func buildReport(path string, started time.Time, results []resolve.Result) domain.RunReport {
	rr := domain.RunReport{
		Path:       path,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	for _, res := range results {
		if res.Resolution.Outcome == domain.OutcomeCancelled {
			rr.Cancelled = true
			continue
		}
		item := domain.ItemResult{
			Src:    res.Entry.AbsPath,
			Status: res.Status,
		}
		if res.Resolution.Outcome == domain.OutcomeMatched {
			item.Title = res.Resolution.Candidate.Title
			item.Year = res.Resolution.Candidate.Year
			if res.NewPath != "" && res.NewPath != res.Entry.AbsPath {
				item.Dst = res.NewPath
			}
		}
		if res.Resolution.SkipReason != "" {
			item.SkipReason = res.Resolution.SkipReason
		}
		if res.Resolution.Err != nil {
			item.ErrorMsg = res.Resolution.Err.Error()
		}
		if res.ApplyErr != nil {
			item.ErrorMsg = res.ApplyErr.Error()
		}
		rr.Items = append(rr.Items, item)
	}
	rr.Finalize()
	return rr
}

// emitReport 维持 stdout 契约：TTY 打印人读摘要；非 TTY 输出且仅输出一个 JSON。
func emitReport(rr domain.RunReport) {
	if stdoutIsTTY() {
		fmt.Fprintf(os.Stdout, "完成：renamed=%d unchanged=%d skipped=%d failed=%d\n",
			rr.Summary.Renamed, rr.Summary.Unchanged, rr.Summary.Skipped, rr.Summary.Failed)
		if rr.Cancelled {
			fmt.Fprintln(os.Stdout, "（用户取消，批处理未跑完）")
		}
		for _, it := range rr.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			fmt.Fprintf(os.Stderr, "%s: %s\n", it.Src, it.ErrorMsg)
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：renamed=%d unchanged=%d skipped=%d failed=%d\n",
		rr.Summary.Renamed, rr.Summary.Unchanged, rr.Summary.Skipped, rr.Summary.Failed)
}
