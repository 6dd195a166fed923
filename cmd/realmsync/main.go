package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/realmsync/internal/broadcast"
	"github.com/l1jgo/realmsync/internal/config"
	"github.com/l1jgo/realmsync/internal/core/clock"
	"github.com/l1jgo/realmsync/internal/core/event"
	coresys "github.com/l1jgo/realmsync/internal/core/system"
	"github.com/l1jgo/realmsync/internal/data"
	"github.com/l1jgo/realmsync/internal/handler"
	gonet "github.com/l1jgo/realmsync/internal/net"
	"github.com/l1jgo/realmsync/internal/net/message"
	"github.com/l1jgo/realmsync/internal/persist"
	"github.com/l1jgo/realmsync/internal/relay"
	"github.com/l1jgo/realmsync/internal/scheduler"
	"github.com/l1jgo/realmsync/internal/scripting"
	"github.com/l1jgo/realmsync/internal/system"
	"github.com/l1jgo/realmsync/internal/validate"
	"github.com/l1jgo/realmsync/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              realmsync v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("REALMSYNC_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Content tables
	printSection("content")
	skills, err := data.LoadSkillTable(cfg.Content.Skills)
	if err != nil {
		return fmt.Errorf("skills: %w", err)
	}
	printStat("skills", skills.Count())
	puzzles, err := data.LoadPuzzleTable(cfg.Content.Puzzles)
	if err != nil {
		return fmt.Errorf("puzzles: %w", err)
	}
	printStat("puzzles", puzzles.Count())

	luaEngine, err := scripting.NewEngine(cfg.World.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printStat("world objects", len(luaEngine.Snapshot().Objects))
	fmt.Println()

	// 4. Authentication backend
	printSection("auth")
	var auth gonet.Authenticator = handler.OpenAuth{}
	if cfg.Auth.Mode == config.AuthModeDatabase {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.Open(ctx, cfg.Database, log)
		cancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected, migrations applied")
		auth = &handler.DBAuth{
			Accounts:   persist.NewAccountRepo(db),
			AutoCreate: cfg.Auth.AutoCreateAccounts,
			Log:        log,
		}
	}
	printOK(fmt.Sprintf("mode %s", cfg.Auth.Mode))
	fmt.Println()

	// 5. World state, bus, broadcaster
	clk := clock.Real{}
	state := world.NewState(cfg.World.CellSize)
	bus := event.NewBus()
	bc := broadcast.New(state, cfg.Network.MaxSendFailures, log)

	// 6. Event relay
	if cfg.Relay.Enabled {
		printSection("relay")
		url := cfg.Relay.URL
		if cfg.Relay.Embedded {
			ns, err := relay.NewEmbeddedServer(log, relay.WithPort(cfg.Relay.EmbeddedPort))
			if err != nil {
				return err
			}
			if err := ns.Start(); err != nil {
				return err
			}
			defer ns.Shutdown()
			url = ns.ClientURL()
			printOK("embedded NATS started")
		}
		rl, err := relay.Connect(url, cfg.Relay.SubjectPrefix, log)
		if err != nil {
			return fmt.Errorf("relay: %w", err)
		}
		defer rl.Close()
		rl.Attach(bus)
		printOK(fmt.Sprintf("publishing to %s.*", cfg.Relay.SubjectPrefix))
		fmt.Println()
	}

	// 7. Message registry and handlers
	reg := message.NewRegistry(log)
	deps := &handler.Deps{
		Config: cfg,
		Log:    log,
		State:  state,
		World:  luaEngine,
		Validator: validate.New(validate.Options{
			MaxSpeed:      cfg.World.MaxSpeed,
			SpeedSlack:    cfg.World.SpeedSlack,
			MaxCoordinate: cfg.World.MaxCoordinate,
			Skills:        skills,
			Puzzles:       puzzles,
		}),
		Skills:    skills,
		Broadcast: bc,
		Bus:       bus,
		Clock:     clk,
	}
	handler.RegisterAll(reg, deps)

	// 8. WebSocket gateway
	stats := &gonet.Stats{}
	srv := gonet.NewServer(gonet.ServerOptions{
		Path:             cfg.Network.WSPath,
		HandshakeTimeout: cfg.Network.HandshakeTimeout,
		Session: gonet.SessionOptions{
			InQueueSize:       cfg.Network.InQueueSize,
			OutQueueSize:      cfg.Network.OutQueueSize,
			MessagesPerSecond: cfg.Network.MessagesPerSecond,
			ReadTimeout:       cfg.Network.ReadTimeout,
			WriteTimeout:      cfg.Network.WriteTimeout,
			MaxMessageBytes:   cfg.Network.MaxMessageBytes,
		},
	}, auth, stats, log)
	if err := srv.Listen(cfg.Network.BindAddress); err != nil {
		return err
	}

	// 9. Systems, in phase order
	conns := system.NewConnections(deps)
	runner := coresys.NewRunner(log)
	runner.Register(system.NewInputSystem(system.FromServer(srv), conns, reg, cfg.Network.MaxMessagesPerTick, deps))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewWorldClockSystem(luaEngine, state, cfg.World.EnergyRegenPerSecond))
	runner.Register(system.NewSyncSystem(luaEngine, state, bc, stats))
	runner.Register(system.NewCleanupSystem(conns))
	runner.Register(system.NewEventSwapSystem(bus))

	sched := scheduler.New(clk, cfg.Tick.Interval(), runner, log)

	// 10. Start game loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdownCh
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s%s", srv.Addr().String(), cfg.Network.WSPath))
	printReady(fmt.Sprintf("game loop running (tick: %s)", sched.Interval()))
	fmt.Println()

	sched.Run(ctx)

	// The loop has stopped; drop every connection on this goroutine so the
	// cleanup runs against state nothing else is touching.
	conns.CloseAll()
	bus.SwapBuffers()
	bus.DispatchAll()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("server stopped",
		zap.Uint64("ticks", sched.Seq()),
		zap.Uint64("skipped", sched.Skipped()),
	)
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
