package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/betbot/systock/kis/broker"
	"github.com/betbot/systock/pkg/config"
	"github.com/betbot/systock/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	symbolList := flag.String("symbols", "005930,000660", "股票代码（逗号分隔）")
	interval := flag.Duration("interval", 3*time.Second, "刷新间隔")
	flag.Parse()

	if err := run(*configPath, *symbolList, *interval); err != nil {
		fmt.Fprintf(os.Stderr, "quote-watcher-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, symbolList string, interval time.Duration) error {
	symbols := splitSymbols(symbolList)
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols given")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// TUI 占用终端，日志只写文件
	if err := logger.Init(cfg.LoggerConfig(true)); err != nil {
		return err
	}

	b, err := broker.New(cfg, nil)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newModel(ctx, b, symbols, interval), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func splitSymbols(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}
