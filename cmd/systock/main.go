// systock 命令行：对一个 KIS 账户执行单次操作，结果以 JSON 输出到 stdout。
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/systock/internal/gateway"
	"github.com/betbot/systock/kis/broker"
	"github.com/betbot/systock/kis/types"
	"github.com/betbot/systock/pkg/config"
	"github.com/betbot/systock/pkg/logger"
)

type command struct {
	usage string
	run   func(ctx context.Context, b *broker.Broker, args []string) (any, error)
}

var commands = map[string]command{
	"token":            {"", runToken},
	"approval":         {"", runApproval},
	"quote":            {"<symbol>", runQuote},
	"order":            {"-side buy|sell -qty N [-price P] [-type limit|market|...] <symbol>", runOrder},
	"balance":          {"", runBalance},
	"open-orders":      {"", runOpenOrders},
	"cancel":           {"-branch <no> <order-id>", runCancel},
	"cancel-all":       {"<symbol> | -all", runCancelAll},
	"overseas-quote":   {"<exchange> <symbol>", runOverseasQuote},
	"overseas-order":   {"-exchange NASD -side buy|sell -qty N -price P <symbol>", runOverseasOrder},
	"overseas-balance": {"[-exchange NASD] [-currency USD]", runOverseasBalance},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: systock [-config file] [-timeout 30s] <command> [args]")
	names := make([]string, 0, len(commands)+1)
	for name := range commands {
		names = append(names, name)
	}
	names = append(names, "gateway-token")
	sort.Strings(names)
	for _, name := range names {
		u := commands[name].usage
		if name == "gateway-token" {
			u = "[-subject name] [-ttl 12h]"
		}
		fmt.Fprintf(os.Stderr, "  %-17s %s\n", name, u)
	}
}

func main() {
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	timeout := flag.Duration("timeout", 30*time.Second, "整个命令的超时时间")
	verbose := flag.Bool("v", false, "在 stderr 输出日志")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	out, err := dispatch(*configPath, *timeout, *verbose, args[0], args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "systock %s: %v\n", args[0], err)
		os.Exit(exitCode(err))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func dispatch(configPath string, timeout time.Duration, verbose bool, name string, args []string) (any, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.LoggerConfig(!verbose)); err != nil {
		return nil, err
	}

	if name == "gateway-token" {
		return runGatewayToken(cfg, args)
	}
	cmd, ok := commands[name]
	if !ok {
		usage()
		return nil, fmt.Errorf("unknown command %q", name)
	}

	b, err := broker.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return cmd.run(ctx, b, args)
}

// exitCode 1 = 券商拒绝, 2 = 参数/配置, 3 = 网络或认证
func exitCode(err error) int {
	var authErr *types.AuthError
	switch _, rejected := types.AsApiError(err); {
	case rejected:
		return 1
	case types.IsRetryable(err), errors.As(err, &authErr):
		return 3
	}
	return 2
}

func oneArg(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("expected exactly one %s", what)
	}
	return strings.TrimSpace(args[0]), nil
}

func mask(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:6] + "..." + token[len(token)-6:]
}

func runToken(ctx context.Context, b *broker.Broker, _ []string) (any, error) {
	tok, err := b.Session().EnsureToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"account": b.Credential().AccountKey(), "token": mask(tok)}, nil
}

func runApproval(ctx context.Context, b *broker.Broker, _ []string) (any, error) {
	key, err := b.ApprovalKey(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"approval_key": key}, nil
}

func runQuote(ctx context.Context, b *broker.Broker, args []string) (any, error) {
	symbol, err := oneArg(args, "symbol")
	if err != nil {
		return nil, err
	}
	return b.Quote(ctx, symbol)
}

func runOrder(ctx context.Context, b *broker.Broker, args []string) (any, error) {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	side := fs.String("side", "", "buy / sell")
	qty := fs.Int64("qty", 0, "数量")
	price := fs.Int64("price", 0, "价格，0 = 市价")
	orderType := fs.String("type", "", "limit / market / conditional_limit / best_limit / priority_limit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	symbol, err := oneArg(fs.Args(), "symbol")
	if err != nil {
		return nil, err
	}
	s, err := types.ParseSide(*side)
	if err != nil {
		return nil, err
	}
	intent := types.OrderIntent{Symbol: symbol, Side: s, Quantity: *qty, Price: *price}
	if *orderType != "" {
		if intent.OrderType, err = types.ParseOrderType(*orderType); err != nil {
			return nil, err
		}
	}
	return b.PlaceOrder(ctx, intent)
}

func runBalance(ctx context.Context, b *broker.Broker, _ []string) (any, error) {
	return b.Balance(ctx)
}

func runOpenOrders(ctx context.Context, b *broker.Broker, _ []string) (any, error) {
	return b.OpenOrders(ctx)
}

func runCancel(ctx context.Context, b *broker.Broker, args []string) (any, error) {
	fs := flag.NewFlagSet("cancel", flag.ContinueOnError)
	branch := fs.String("branch", "", "KRX_FWDG_ORD_ORGNO")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	id, err := oneArg(fs.Args(), "order id")
	if err != nil {
		return nil, err
	}
	if *branch == "" {
		return nil, fmt.Errorf("-branch is required")
	}
	ref := types.OrderRef{OrderID: id, BranchNo: *branch}
	if err := b.CancelOrder(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

func runCancelAll(ctx context.Context, b *broker.Broker, args []string) (any, error) {
	fs := flag.NewFlagSet("cancel-all", flag.ContinueOnError)
	all := fs.Bool("all", false, "撤销所有股票的未成交订单")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	var symbol string
	switch {
	case fs.NArg() == 1 && !*all:
		symbol = strings.TrimSpace(fs.Arg(0))
	case fs.NArg() == 0 && *all:
	default:
		return nil, fmt.Errorf("expected exactly one of <symbol> or -all")
	}
	if symbol == "" && !*all {
		return nil, fmt.Errorf("symbol is empty")
	}

	ids, err := b.CancelAll(ctx, symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "canceled before error: %v\n", ids)
		return nil, err
	}
	return map[string][]string{"canceled": ids}, nil
}

func runOverseasQuote(ctx context.Context, b *broker.Broker, args []string) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected <exchange> <symbol>")
	}
	exchange, err := types.ParseExchange(args[0])
	if err != nil {
		return nil, err
	}
	return b.OverseasQuote(ctx, exchange, args[1])
}

func runOverseasOrder(ctx context.Context, b *broker.Broker, args []string) (any, error) {
	fs := flag.NewFlagSet("overseas-order", flag.ContinueOnError)
	exchange := fs.String("exchange", string(types.ExchangeNasdaq), "NASD / NYSE / AMEX")
	side := fs.String("side", "", "buy / sell")
	qty := fs.Int64("qty", 0, "数量")
	price := fs.String("price", "", "限价（外币）")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	symbol, err := oneArg(fs.Args(), "symbol")
	if err != nil {
		return nil, err
	}
	s, err := types.ParseSide(*side)
	if err != nil {
		return nil, err
	}
	p, err := decimal.NewFromString(*price)
	if err != nil {
		return nil, fmt.Errorf("invalid -price %q: %w", *price, err)
	}
	return b.PlaceOverseasOrder(ctx, types.OverseasOrderIntent{
		Exchange: types.Exchange(*exchange),
		Symbol:   symbol,
		Side:     s,
		Quantity: *qty,
		Price:    p,
	})
}

func runOverseasBalance(ctx context.Context, b *broker.Broker, args []string) (any, error) {
	fs := flag.NewFlagSet("overseas-balance", flag.ContinueOnError)
	exchange := fs.String("exchange", "", "NASD / NYSE / AMEX，为空按 NASD")
	currency := fs.String("currency", "USD", "结算货币")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	var ex types.Exchange
	if *exchange != "" {
		var err error
		if ex, err = types.ParseExchange(*exchange); err != nil {
			return nil, err
		}
	}
	return b.OverseasBalance(ctx, ex, strings.ToUpper(*currency))
}

func runGatewayToken(cfg *config.Config, args []string) (any, error) {
	fs := flag.NewFlagSet("gateway-token", flag.ContinueOnError)
	subject := fs.String("subject", "systock-cli", "令牌主体")
	ttl := fs.Duration("ttl", cfg.Gateway.TokenTTL.Duration, "有效期")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Gateway.TokenTTL.Duration = *ttl
	if err := cfg.ValidateGateway(); err != nil {
		return nil, err
	}
	now := time.Now()
	tok, err := gateway.IssueToken(cfg.Gateway.JWTSecret, *subject, *ttl, now)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"token":      tok,
		"expires_at": now.Add(*ttl).Format(time.RFC3339),
	}, nil
}
