package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/CSRN/internal/config"
	"github.com/John-Robertt/CSRN/internal/csfd"
	"github.com/John-Robertt/CSRN/internal/infra/httpx"
	"github.com/John-Robertt/CSRN/internal/probe"
)

// errSilentExit 表示“结果已输出、只差非零退出码”的失败（不再重复打印错误）。
var errSilentExit = errors.New("silent exit")

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "csrn",
		Short:         "交互式媒体库改名工具（CSFD 检索 + Title (Year) 规范命名）",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newRenameCommand())
	rootCmd.AddCommand(newLookupCommand())
	rootCmd.AddCommand(newMissingCommand())
	return rootCmd
}

// newLogger 构造 stderr 上的控制台日志器。级别来自配置（flag > file > 默认）。
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// newSource 按生效配置组装 CSFD 客户端；use_csfd=false 时返回 (nil, nil)。
func newSource(eff config.EffectiveConfig, log zerolog.Logger) (*csfd.Client, error) {
	if !eff.UseCSFD {
		return nil, nil
	}
	httpc, err := httpx.NewClient(eff.ProxyURL, time.Duration(eff.TimeoutS)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("构造 HTTP 客户端失败：%w", err)
	}
	c := &csfd.Client{
		HTTP:       httpc,
		MaxResults: eff.MaxResults,
		Log:        log,
	}
	if eff.SearchURL != "" {
		c.SearchURL = eff.SearchURL
	}
	return c, nil
}

func newProber(log zerolog.Logger) *probe.FFProbe {
	return &probe.FFProbe{Log: log}
}

func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}
