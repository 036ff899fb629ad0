package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"gmocoin-bot/api"
	"gmocoin-bot/chart"
	"gmocoin-bot/config"
	"gmocoin-bot/daemon"
	"gmocoin-bot/internal/constants"
	"gmocoin-bot/logging"
	"gmocoin-bot/models"
	"gmocoin-bot/order"
	"gmocoin-bot/report"
	"gmocoin-bot/scheduler"
	"gmocoin-bot/status"
	"gmocoin-bot/strategy"
	"gmocoin-bot/websocket"
)

var (
	cfg    *config.Config
	logger *logging.Logger
)

// Initialize logging with the provided configuration
func initLogging() error {
	logLevel := logging.LogLevel(cfg.LogLevel)
	if cfg.Debug {
		logLevel = logging.DEBUG
	}

	var err error
	logger, err = logging.NewLogger(
		cfg.LogFile,
		cfg.LogMaxSize,
		cfg.LogMaxBackups,
		cfg.LogMaxAge,
		cfg.LogCompress,
		logLevel,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func withoutFlag(args []string, name string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "-"+name && a != "--"+name {
			out = append(out, a)
		}
	}
	return out
}

func main() {
	if err := config.LoadEnvFile(""); err != nil {
		log.Printf("%v", err)
	}
	cfg = config.LoadConfig()

	daemonStart := flag.Bool("start-daemon", false, "Start the application as a daemon")
	daemonStop := flag.Bool("stop-daemon", false, "Stop the daemon process")
	daemonRestart := flag.Bool("restart-daemon", false, "Restart the daemon process")
	debugFlag := flag.Bool("debug", cfg.Debug, "enable debug logs")
	configPath := flag.String("config", cfg.BotConfigPath, "bot configuration file")
	simulate := flag.Bool("simulate", cfg.Simulation, "paper trade against live market data")
	flag.Parse()

	cfg.Debug = *debugFlag
	cfg.BotConfigPath = *configPath
	cfg.Simulation = *simulate
	cfg.DaemonMode = cfg.DaemonMode || daemon.IsDaemon()

	if err := initLogging(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	switch {
	case *daemonStart:
		logger.Info("Starting daemon...")
		if err := daemon.StartDaemon(withoutFlag(os.Args[1:], "start-daemon")); err != nil {
			logger.Fatal("Failed to start daemon: %v", err)
		}
		return
	case *daemonStop:
		logger.Info("Stopping daemon...")
		if err := daemon.StopDaemon(); err != nil {
			logger.Fatal("Failed to stop daemon: %v", err)
		}
		return
	case *daemonRestart:
		logger.Info("Restarting daemon...")
		if err := daemon.RestartDaemon(withoutFlag(os.Args[1:], "restart-daemon")); err != nil {
			logger.Fatal("Failed to restart daemon: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Fatal("%v", err)
	}
	_ = logger.Sync()
}

func run(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	bots, err := config.LoadBotConfigs(cfg.BotConfigPath)
	if err != nil {
		return err
	}

	logger.Info("Application starting: symbol=%s simulation=%t daemon=%t bots=%d",
		cfg.Symbol, cfg.Simulation, cfg.DaemonMode, len(bots))

	client := api.NewRESTClient(cfg, logger.WithPrefix("api"))
	if !cfg.Simulation {
		m, err := client.Margin(ctx)
		if err != nil {
			return fmt.Errorf("API authentication failed: %w", err)
		}
		logger.Info("API connection established, available margin %s", m.Available().StringFixed(0))
	}

	market := chart.New(cfg.CandlePeriod, cfg.ChartMaxLength, cfg.RSIPeriod)
	rep := report.New(logger)

	traders := make([]*strategy.Trader, 0, len(bots))
	for _, b := range bots {
		if b.Symbol != cfg.Symbol {
			logger.Warning("Skipping bot %s: symbol %s differs from chart symbol %s", b.Name, b.Symbol, cfg.Symbol)
			continue
		}
		botLog := logger.WithPrefix(b.Name)
		var exec order.Executor
		if cfg.Simulation {
			exec = order.NewPaperBroker(b.Symbol, decimal.NewFromFloat(cfg.PaperBalance), cfg.Leverage, botLog)
		} else {
			om := order.NewOrderManager(client, b.Symbol, cfg.Leverage, cfg.OrderLimitTime, botLog)
			om.MaxCancelIDs = cfg.MaxCancelIDs
			exec = om
		}
		tr, err := strategy.NewTrader(b, market, exec, client, rep, botLog)
		if err != nil {
			return err
		}
		traders = append(traders, tr)
	}
	if len(traders) == 0 {
		return fmt.Errorf("no bot trades %s", cfg.Symbol)
	}

	router := strategy.NewRouter(market, logger.WithPrefix("router"), traders...)

	channels := []websocket.Channel{
		{Name: constants.ChannelTicker, Handler: router.OnTicker},
		{Name: constants.ChannelTrades, Handler: router.OnTrade},
	}
	if !cfg.Simulation {
		channels = append(channels,
			websocket.Channel{Name: constants.ChannelExecutions, Private: true, Handler: router.OnExecutionEvent},
			websocket.Channel{Name: constants.ChannelOrders, Private: true, Handler: router.OnOrderEvent},
			websocket.Channel{Name: constants.ChannelPositions, Private: true, Handler: router.OnPositionEvent},
		)
	}
	wsLog := logger.WithPrefix("ws")
	sub := websocket.NewGorillaSubscriber(cfg.WSPublicURL, cfg.WSPrivateURL,
		time.Duration(cfg.PongWait)*time.Second, time.Duration(cfg.PingPeriod)*time.Second, wsLog)
	cm := websocket.NewChannelManager(sub, client, client, cfg.Symbol, cfg.SubscribeInterval, wsLog, channels...)
	cm.OnConnected = func() {
		router.Broadcast(func(ctx context.Context, t *strategy.Trader) {
			if t.State() != models.StateRunning {
				t.CheckServerStatus(ctx)
			}
		})
	}

	var wg sync.WaitGroup
	for _, t := range traders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.Run(ctx)
		}()
	}

	hub := status.NewHub(logger.WithPrefix("stream"))
	src := status.Source{
		Symbol:    cfg.Symbol,
		Simulated: cfg.Simulation,
		Bots:      router.Snapshots,
		Chart:     market.Snapshot,
		Channels:  cm.States,
		Stream:    hub,
	}
	srv := status.StartServer(cfg.StatusAddr, src, logger)
	if srv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()
	}

	sched := scheduler.New(time.Second, logger.WithPrefix("scheduler"))
	sched.EveryAsync("liveness", cfg.LivenessInterval, cm.Connect)
	if !cfg.Simulation {
		sched.EveryAsync("token", cfg.TokenInterval, cm.RenewToken)
	}
	sched.Every("sweep", cfg.SweepInterval, func(context.Context) {
		router.Broadcast(func(ctx context.Context, t *strategy.Trader) { t.Sweep(ctx) })
	})
	sched.Every("refresh", cfg.RefreshInterval, func(context.Context) {
		router.Broadcast(func(ctx context.Context, t *strategy.Trader) { t.RefreshPositions(ctx) })
	})
	sched.Every("status", cfg.StatusInterval, func(context.Context) {
		router.Broadcast(func(ctx context.Context, t *strategy.Trader) { t.CheckServerStatus(ctx) })
	})
	sched.Every("stats", cfg.StatsInterval, func(context.Context) {
		rep.Stats(router.Snapshots())
		logger.Info("Chart %s", market.Arrows(10))
	})
	if srv != nil {
		sched.Every("stream", cfg.StreamInterval, func(context.Context) {
			if hub.Clients() > 0 {
				hub.PublishStatus(src)
			}
		})
	}
	logger.Info("Scheduled jobs: %v", sched.Names())

	go cm.Connect(ctx)
	sched.Run(ctx)

	logger.Info("Shutting down...")
	closeCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	cm.Close(closeCtx)
	if srv != nil {
		_ = srv.Shutdown(closeCtx)
	}
	wg.Wait()
	rep.Stats(router.Snapshots())
	return nil
}
