package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/systock/internal/ports"
	"github.com/betbot/systock/kis/types"
)

var (
	// 样式定义
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")) // 红色（韩国市场上涨为红）

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")) // 蓝色

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// row 一只股票的最近一次报价
type row struct {
	quote     *types.Quote
	err       error
	updatedAt time.Time
}

// model 是应用程序的状态
type model struct {
	ctx      context.Context
	quotes   ports.QuoteGetter
	symbols  []string
	interval time.Duration
	now      func() time.Time

	rows    map[string]row
	polling bool
}

// tickMsg 定时器消息
type tickMsg time.Time

// quoteMsg 单只股票的报价结果
type quoteMsg struct {
	symbol string
	quote  *types.Quote
	err    error
}

// pollDoneMsg 一轮轮询结束
type pollDoneMsg struct{}

func newModel(ctx context.Context, quotes ports.QuoteGetter, symbols []string, interval time.Duration) model {
	return model{
		ctx:      ctx,
		quotes:   quotes,
		symbols:  symbols,
		interval: interval,
		now:      time.Now,
		rows:     make(map[string]row, len(symbols)),
	}
}

func (m model) Init() tea.Cmd {
	return m.pollCmd()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// pollCmd 顺序查询所有股票，避免并发触发券商的每秒请求限制
func (m model) pollCmd() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.symbols)+1)
	for _, symbol := range m.symbols {
		cmds = append(cmds, m.fetchCmd(symbol))
	}
	cmds = append(cmds, func() tea.Msg { return pollDoneMsg{} })
	return tea.Sequence(cmds...)
}

func (m model) fetchCmd(symbol string) tea.Cmd {
	return func() tea.Msg {
		q, err := m.quotes.Quote(m.ctx, symbol)
		return quoteMsg{symbol: symbol, quote: q, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if !m.polling {
				m.polling = true
				return m, m.pollCmd()
			}
		}

	case tickMsg:
		if m.polling {
			return m, nil
		}
		m.polling = true
		return m, m.pollCmd()

	case quoteMsg:
		r := m.rows[msg.symbol]
		r.err = msg.err
		if msg.err == nil {
			r.quote = msg.quote
			r.updatedAt = m.now()
		}
		m.rows[msg.symbol] = r
		return m, nil

	case pollDoneMsg:
		m.polling = false
		return m, tickCmd(m.interval)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("KIS 行情监控"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  每 %s 刷新", m.interval)))
	b.WriteString("\n\n")

	lines := make([]string, 0, len(m.symbols)+1)
	lines = append(lines, fmt.Sprintf("%-8s %12s %8s %14s  %s", "代码", "现价", "涨跌%", "成交量", "更新时间"))
	for _, symbol := range m.symbols {
		lines = append(lines, renderRow(symbol, m.rows[symbol]))
	}
	b.WriteString(borderStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("r 立即刷新 · q 退出"))
	return b.String()
}

func renderRow(symbol string, r row) string {
	if r.quote == nil {
		if r.err != nil {
			return fmt.Sprintf("%-8s %s", symbol, downStyle.Render(shortError(r.err)))
		}
		return fmt.Sprintf("%-8s %12s", symbol, dimStyle.Render("..."))
	}

	q := r.quote
	change := fmt.Sprintf("%+7.2f%%", q.Change)
	switch {
	case q.Change > 0:
		change = upStyle.Render(change)
	case q.Change < 0:
		change = downStyle.Render(change)
	}
	line := fmt.Sprintf("%-8s %12d %8s %14d  %s", symbol, q.Price, change, q.Volume, r.updatedAt.Format("15:04:05"))
	if r.err != nil {
		// 保留上一次成功的报价，同时提示本轮失败
		line += " " + downStyle.Render("!")
	}
	return line
}

func shortError(err error) string {
	if apiErr, ok := types.AsApiError(err); ok {
		return apiErr.Code
	}
	s := err.Error()
	if len(s) > 48 {
		s = s[:48] + "..."
	}
	return s
}
