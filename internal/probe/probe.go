// Package probe 用外部 ffprobe 读取本地媒体时长。
//
// 约束：探测失败不是错误——ffprobe 未安装、文件损坏、输出不可解析，
// 一律表达为“不可用”，展示层渲染为 n/a；绝不因此中断解析流程。
package probe

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/CSRN/internal/domain"
)

// FFProbe 包装外部 ffprobe 二进制。Path 为空时从 PATH 查找。
type FFProbe struct {
	Path string
	Log  zerolog.Logger
}

// DurationMinutes 返回文件时长（分钟，四舍五入）。ok==false 表示不可用。
func (p *FFProbe) DurationMinutes(ctx context.Context, filePath string) (int, bool) {
	if _, err := os.Stat(filePath); err != nil {
		return 0, false
	}
	bin := p.Path
	if bin == "" {
		found, err := exec.LookPath("ffprobe")
		if err != nil {
			p.Log.Warn().Msg("未找到 ffprobe；安装 FFmpeg 后才能对比媒体时长")
			return 0, false
		}
		bin = found
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration:stream=duration",
		"-of", "json",
		filePath,
	)
	out, err := cmd.Output()
	if err != nil {
		p.Log.Debug().Err(err).Str("file", filePath).Msg("ffprobe 执行失败")
		return 0, false
	}
	return parseOutput(out)
}

// parseOutput 解析 ffprobe 的 JSON 输出。
// 取 format 与各 stream 时长的最大值（容器元数据偶尔缺 format.duration）。
func parseOutput(out []byte) (int, bool) {
	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			Duration string `json:"duration"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, false
	}

	best := 0.0
	if v, ok := parseSeconds(payload.Format.Duration); ok && v > best {
		best = v
	}
	for _, s := range payload.Streams {
		if v, ok := parseSeconds(s.Duration); ok && v > best {
			best = v
		}
	}
	if best <= 0 {
		return 0, false
	}
	minutes := int(math.Round(best / 60))
	if minutes <= 0 {
		return 0, false
	}
	return minutes, true
}

func parseSeconds(s string) (float64, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// Delta 计算 本地时长 - 来源时长（分钟，带符号）。
// 任一侧缺失时 Known==false。
func Delta(localM int, localOK bool, publishedM int) domain.DurationDelta {
	if !localOK || publishedM <= 0 {
		return domain.DurationDelta{}
	}
	return domain.DurationDelta{Minutes: localM - publishedM, Known: true}
}
