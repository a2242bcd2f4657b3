package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/betbot/systock/kis/broker"
	"github.com/betbot/systock/kis/realtime"
	"github.com/betbot/systock/pkg/config"
	"github.com/betbot/systock/pkg/logger"
	"github.com/betbot/systock/pkg/shutdown"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	symbolList := flag.String("symbols", "005930", "股票代码（逗号分隔）")
	trID := flag.String("tr", realtime.TrIDDomesticTrade, "订阅的 tr_id，如 H0STCNT0 / H0STASP0 / HDFSCNT0")
	wsURL := flag.String("url", "", "websocket 地址，为空按交易环境选择")
	flag.Parse()

	if err := run(*configPath, *symbolList, *trID, *wsURL); err != nil {
		fmt.Fprintf(os.Stderr, "realtime-monitor: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, symbolList, trID, wsURL string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.LoggerConfig(false)); err != nil {
		return err
	}

	b, err := broker.New(cfg, nil)
	if err != nil {
		return err
	}
	defer b.Close()

	if wsURL == "" {
		wsURL = realtime.URLFor(b.Credential().Environment)
	}
	rt := realtime.NewClient(b, realtime.Config{URL: wsURL})

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	if err := rt.Connect(ctx); err != nil {
		return err
	}
	defer rt.Close()

	var symbols []string
	for _, s := range strings.Split(symbolList, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if err := rt.Subscribe(trID, s); err != nil {
			return fmt.Errorf("订阅 %s 失败: %w", s, err)
		}
		symbols = append(symbols, s)
	}
	logger.Infof("已订阅 %s: %v", trID, symbols)

	for {
		select {
		case <-ctx.Done():
			logger.Info("收到退出信号")
			return nil
		case err := <-rt.Errors():
			logger.Warnf("实时连接错误: %v", err)
		case f, ok := <-rt.Frames():
			if !ok {
				return fmt.Errorf("实时连接已断开")
			}
			printFrame(f)
		}
	}
}

func printFrame(f realtime.Frame) {
	if f.Control {
		logger.WithFields(logrus.Fields{
			"tr_id":  f.Header.TrID,
			"tr_key": f.Header.TrKey,
			"msg":    f.Body.Msg1,
		}).Debug("控制帧")
		return
	}
	if f.Encrypted {
		fmt.Printf("%s encrypted %d bytes\n", f.TrID, len(f.Raw))
		return
	}
	// 每条记录的字段数 = len(Fields) / Count
	per := len(f.Fields)
	if f.Count > 1 {
		per = len(f.Fields) / f.Count
	}
	for i := 0; i+per <= len(f.Fields) && per > 0; i += per {
		fmt.Printf("%s %s\n", f.TrID, strings.Join(f.Fields[i:i+per], " "))
	}
}
