package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/betbot/systock/internal/gateway"
	"github.com/betbot/systock/kis/broker"
	"github.com/betbot/systock/pkg/config"
	"github.com/betbot/systock/pkg/logger"
	"github.com/betbot/systock/pkg/shutdown"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	listen := flag.String("listen", "", "监听地址，覆盖配置中的 gateway.listen")
	flag.Parse()

	if err := run(*configPath, *listen); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, listen string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.Gateway.Listen = listen
	}
	if err := cfg.ValidateGateway(); err != nil {
		return err
	}
	if err := logger.Init(cfg.LoggerConfig(false)); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	b, err := broker.New(cfg, nil)
	if err != nil {
		return err
	}
	srv, err := gateway.New(b, gateway.Config{JWTSecret: cfg.Gateway.JWTSecret})
	if err != nil {
		_ = b.Close()
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Gateway.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sm := shutdown.NewManager()
	sm.OnShutdown("token store", func(context.Context) error { return b.Close() })
	sm.OnShutdown("http", httpSrv.Shutdown)

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("gateway listening on %s", cfg.Gateway.Listen)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("收到退出信号")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := sm.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	return err
}
