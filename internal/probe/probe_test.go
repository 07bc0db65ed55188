package probe

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseOutput(t *testing.T) {
	cases := []struct {
		name   string
		json   string
		wantM  int
		wantOK bool
	}{
		{
			name:   "format 优先可用",
			json:   `{"format":{"duration":"7020.5"},"streams":[{"duration":"7000.0"}]}`,
			wantM:  117,
			wantOK: true,
		},
		{
			name:   "format 缺失时取 stream 最大值",
			json:   `{"streams":[{"duration":"300.0"},{"duration":"5400.2"}]}`,
			wantM:  90,
			wantOK: true,
		},
		{
			name:   "N/A 与空值视为缺失",
			json:   `{"format":{"duration":"N/A"},"streams":[{"duration":""}]}`,
			wantOK: false,
		},
		{
			name:   "非 JSON 输出",
			json:   `not json`,
			wantOK: false,
		},
		{
			name:   "零时长不可用",
			json:   `{"format":{"duration":"0"}}`,
			wantOK: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := parseOutput([]byte(tc.json))
			if ok != tc.wantOK {
				t.Fatalf("ok=%v，期望 %v", ok, tc.wantOK)
			}
			if ok && m != tc.wantM {
				t.Fatalf("期望 %d 分钟，实际 %d", tc.wantM, m)
			}
		})
	}
}

func TestDelta(t *testing.T) {
	d := Delta(120, true, 117)
	if !d.Known || d.Minutes != 3 {
		t.Fatalf("期望 Δ=+3，实际 %+v", d)
	}

	d = Delta(110, true, 117)
	if !d.Known || d.Minutes != -7 {
		t.Fatalf("期望 Δ=-7，实际 %+v", d)
	}

	if Delta(0, false, 117).Known {
		t.Fatalf("本地时长缺失时 Delta 应不可用")
	}
	if Delta(120, true, 0).Known {
		t.Fatalf("来源时长缺失时 Delta 应不可用")
	}
}

func TestDurationMinutes_MissingFile(t *testing.T) {
	p := &FFProbe{Log: zerolog.Nop()}
	if _, ok := p.DurationMinutes(context.Background(), "/nonexistent/file.mkv"); ok {
		t.Fatalf("不存在的文件应返回不可用")
	}
}
