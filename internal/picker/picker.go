// Package picker 是解析器的终端交互实现：候选列表 TUI + 行式降级。
//
// 约束：
// - 选择器只产出 resolve.Choice，状态机语义全部留在 resolve 包
// - 无超时：交互会话无限等待用户
// - stdout 留给运行报告（JSON），全部交互渲染走 stderr
// - 非 TTY 环境降级为编号行式提示，功能等价（选/跳/改查询/取消）
package picker

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/resolve"
)

const pageSize = 10

// Terminal 实现 resolve.UI。零值不可用，用 NewTerminal。
type Terminal struct {
	in  *os.File
	out *os.File
	r   *bufio.Reader
}

func NewTerminal() *Terminal {
	return &Terminal{
		in:  os.Stdin,
		out: os.Stderr,
		r:   bufio.NewReader(os.Stdin),
	}
}

func (t *Terminal) interactive() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(t.in.Fd()) && isatty.IsTerminal(t.out.Fd())
}

// Present 展示一次选择会话并阻塞到用户给出离散选择。
func (t *Terminal) Present(sess resolve.Session) resolve.Choice {
	if !t.interactive() {
		return t.presentPlain(sess)
	}
	p := tea.NewProgram(newModel(sess), tea.WithInput(t.in), tea.WithOutput(t.out))
	final, err := p.Run()
	if err != nil {
		return resolve.Choice{Kind: resolve.ChoiceCancel}
	}
	m, ok := final.(model)
	if !ok {
		return resolve.Choice{Kind: resolve.ChoiceCancel}
	}
	return m.choice
}

// PromptRetry 在来源故障后询问下一步。回车/r=重试，s=跳过，q=取消。
func (t *Terminal) PromptRetry(query string, cause error) resolve.RetryChoice {
	fmt.Fprintf(t.out, "检索 %q 失败：%v\n", query, cause)
	fmt.Fprint(t.out, "[Enter] 重试  [s] 跳过  [q] 取消 > ")
	line := strings.ToLower(strings.TrimSpace(t.readLine()))
	switch line {
	case "", "r":
		return resolve.RetryAgain
	case "s":
		return resolve.RetrySkip
	default:
		return resolve.RetryCancel
	}
}

// PromptYear 询问发行年份；留空或解析失败返回 0。
func (t *Terminal) PromptYear(title string) int {
	fmt.Fprintf(t.out, "%q 缺少年份，请输入（留空跳过）> ", title)
	line := strings.TrimSpace(t.readLine())
	y, err := strconv.Atoi(line)
	if err != nil || y < 1900 || y > 2099 {
		return 0
	}
	return y
}

// NotifyMatched 在采纳候选后回显来源时长、本地时长与 Δ。
func (t *Terminal) NotifyMatched(note resolve.MatchNote) {
	label := note.Candidate.Title
	if note.Candidate.Year != 0 {
		label += fmt.Sprintf(" (%d)", note.Candidate.Year)
	}
	line := "✓ " + label
	if note.HasDetail && note.Detail.RuntimeM > 0 {
		line += fmt.Sprintf("  来源 %d min", note.Detail.RuntimeM)
	}
	if note.LocalOK {
		line += fmt.Sprintf("  本地 %d min", note.LocalM)
	}
	line += "  " + FormatDelta(note.Delta)
	fmt.Fprintln(t.out, line)
}

func (t *Terminal) readLine() string {
	line, err := t.r.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

// presentPlain 是非 TTY 的编号行式降级：
// 数字=选中，回车/s=跳过，q=取消，其余文本=改查询（手动模式即手动标题）。
func (t *Terminal) presentPlain(sess resolve.Session) resolve.Choice {
	fmt.Fprintf(t.out, "\n[%d/%d] %s\n", sess.Progress.Index, sess.Progress.Total, sess.FileName)
	if sess.FileDurationOK {
		fmt.Fprintf(t.out, "本地时长：%d min\n", sess.FileDurationM)
	}
	if sess.ManualMode {
		fmt.Fprint(t.out, "手动模式：输入标题（可带年份），回车跳过，q 取消 > ")
	} else {
		fmt.Fprintf(t.out, "查询：%s\n", queryLabel(sess.Query))
		for i, c := range sess.Candidates {
			fmt.Fprintf(t.out, "  %2d) %s\n", i+1, candidateLabel(c))
		}
		if sess.SuggestSkip {
			fmt.Fprintln(t.out, "当前命名已与首位候选一致，建议跳过。")
		}
		fmt.Fprint(t.out, "编号=选中，回车/s=跳过，q=取消，其他文本=改查询 > ")
	}

	line := strings.TrimSpace(t.readLine())
	switch {
	case line == "" || strings.EqualFold(line, "s"):
		return resolve.Choice{Kind: resolve.ChoiceSkip}
	case strings.EqualFold(line, "q"):
		return resolve.Choice{Kind: resolve.ChoiceCancel}
	}
	if !sess.ManualMode {
		if n, err := strconv.Atoi(line); err == nil {
			if n >= 1 && n <= len(sess.Candidates) {
				return resolve.Choice{Kind: resolve.ChoiceSelect, Index: n - 1}
			}
			return resolve.Choice{Kind: resolve.ChoiceSkip}
		}
	}
	return resolve.Choice{Kind: resolve.ChoiceRequery, Query: line}
}

// model 是候选列表的 bubbletea 模型。
// cursor==-1 表示“跳过”行；候选行为 0..len-1，导航始终夹在这个区间内。
type model struct {
	sess   resolve.Session
	cursor int

	editing bool
	input   textinput.Model

	choice resolve.Choice
}

func newModel(sess resolve.Session) model {
	ti := textinput.New()
	if sess.ManualMode {
		ti.Placeholder = "标题（可带年份），留空=跳过"
	} else {
		ti.Placeholder = "新的查询串"
	}
	ti.CharLimit = 200
	ti.Width = 60

	m := model{sess: sess, input: ti}
	switch {
	case sess.ManualMode:
		m.editing = true
		m.input.Focus()
	case sess.SuggestSkip || len(sess.Candidates) == 0:
		m.cursor = -1
	default:
		m.cursor = 0
	}
	return m
}

func (m model) Init() tea.Cmd {
	if m.editing {
		return textinput.Blink
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		switch key.String() {
		case "ctrl+c":
			m.choice = resolve.Choice{Kind: resolve.ChoiceCancel}
			return m, tea.Quit
		case "esc":
			if m.sess.ManualMode {
				m.choice = resolve.Choice{Kind: resolve.ChoiceCancel}
				return m, tea.Quit
			}
			m.editing = false
			m.input.Blur()
			m.input.SetValue("")
			return m, nil
		case "enter":
			m.choice = resolve.Choice{Kind: resolve.ChoiceRequery, Query: strings.TrimSpace(m.input.Value())}
			return m, tea.Quit
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.choice = resolve.Choice{Kind: resolve.ChoiceCancel}
		return m, tea.Quit

	case "up", "k":
		m.cursor = clamp(m.cursor-1, -1, len(m.sess.Candidates)-1)
	case "down", "j":
		m.cursor = clamp(m.cursor+1, -1, len(m.sess.Candidates)-1)
	case "pgup", "b":
		m.cursor = clamp(m.cursor-pageSize, -1, len(m.sess.Candidates)-1)
	case "pgdown", "f":
		m.cursor = clamp(m.cursor+pageSize, -1, len(m.sess.Candidates)-1)
	case "home", "g":
		m.cursor = -1
	case "end", "G":
		m.cursor = clamp(len(m.sess.Candidates)-1, -1, len(m.sess.Candidates)-1)

	case "s":
		m.choice = resolve.Choice{Kind: resolve.ChoiceSkip}
		return m, tea.Quit

	case "r":
		m.editing = true
		m.input.Focus()
		return m, textinput.Blink

	case "enter":
		if m.cursor < 0 {
			m.choice = resolve.Choice{Kind: resolve.ChoiceSkip}
		} else {
			m.choice = resolve.Choice{Kind: resolve.ChoiceSelect, Index: m.cursor}
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var sb strings.Builder

	prog := m.sess.Progress
	sb.WriteString(headerStyle.Render(fmt.Sprintf("[%d/%d]  改名 %d  未变 %d  跳过 %d",
		prog.Index, prog.Total, prog.Renamed, prog.Unchanged, prog.Skipped)) + "\n")
	sb.WriteString(titleStyle.Render(m.sess.FileName) + "\n")
	sb.WriteString(dimStyle.Render(m.sess.FilePath) + "\n")

	info := "查询：" + queryLabel(m.sess.Query)
	if m.sess.FileDurationOK {
		info += fmt.Sprintf("   本地时长：%d min", m.sess.FileDurationM)
	}
	sb.WriteString(headerStyle.Render(info) + "\n")
	if m.sess.SuggestSkip {
		sb.WriteString(warnStyle.Render("当前命名已与首位候选一致，建议跳过。") + "\n")
	}
	sb.WriteString("\n")

	if m.editing {
		if m.sess.ManualMode {
			sb.WriteString("手动输入标题：\n")
		} else {
			sb.WriteString("改查询：\n")
		}
		sb.WriteString("  " + m.input.View() + "\n\n")
		sb.WriteString(helpStyle.Render("enter 提交（留空=跳过）  esc 返回"))
		return sb.String()
	}

	// 跳过行固定在列表顶部（cursor == -1）。
	sb.WriteString(renderRow(m.cursor == -1, dimStyle.Render("✗ 跳过此文件")) + "\n")
	start, end := window(m.cursor, len(m.sess.Candidates))
	for i := start; i < end; i++ {
		sb.WriteString(renderRow(m.cursor == i, candidateLabel(m.sess.Candidates[i])) + "\n")
	}
	if end < len(m.sess.Candidates) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("   … 还有 %d 个候选", len(m.sess.Candidates)-end)) + "\n")
	}
	if len(m.sess.Candidates) == 0 {
		sb.WriteString(dimStyle.Render("   （没有候选；r 改查询，enter 跳过）") + "\n")
	}

	sb.WriteString("\n" + helpStyle.Render("↑/k ↓/j 移动  enter 确认  r 改查询  s 跳过  q/esc 取消"))
	return sb.String()
}

// window 把候选列表裁到包含 cursor 的一页。
func window(cursor, n int) (int, int) {
	if n <= pageSize {
		return 0, n
	}
	start := 0
	if cursor >= pageSize {
		start = cursor - pageSize + 1
	}
	end := start + pageSize
	if end > n {
		end = n
		start = end - pageSize
	}
	return start, end
}

func renderRow(selected bool, label string) string {
	if selected {
		return cursorStyle.Render(" ▸ ") + selectedStyle.Render(label)
	}
	return "   " + label
}

func candidateLabel(c domain.Candidate) string {
	label := c.Title
	if c.Year != 0 {
		label += " " + yearStyle.Render(fmt.Sprintf("(%d)", c.Year))
	}
	if c.Kind == domain.KindShow {
		label += " " + kindStyle.Render("[seriál]")
	}
	return label
}

func queryLabel(q domain.SearchQuery) string {
	label := q.Title
	if q.Year != 0 {
		label += fmt.Sprintf(" (%d)", q.Year)
	}
	if label == "" {
		label = "（空）"
	}
	return label
}

// FormatDelta 渲染本地时长与条目时长的带符号差，按绝对值阈值着色：
// ≤5 min 视为吻合，≤15 min 存疑，更大视为可疑匹配。
func FormatDelta(d domain.DurationDelta) string {
	if !d.Known {
		return dimStyle.Render("Δ —")
	}
	label := fmt.Sprintf("Δ %+d min", d.Minutes)
	abs := d.Minutes
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= 5:
		return deltaGoodStyle.Render(label)
	case abs <= 15:
		return deltaWarnStyle.Render(label)
	default:
		return deltaBadStyle.Render(label)
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ resolve.UI = (*Terminal)(nil)
