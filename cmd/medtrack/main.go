package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/gmsas95/medtrack/internal/app"
	"github.com/gmsas95/medtrack/internal/cli"
	"github.com/gmsas95/medtrack/internal/clock"
	"github.com/gmsas95/medtrack/internal/config"
	"github.com/gmsas95/medtrack/internal/logger"
	"github.com/gmsas95/medtrack/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	dataDir    = flag.String("data", "", "Path to data directory")
	version    = "dev"
)

func main() {
	flag.Usage = func() { cli.PrintExtendedHelp(os.Stderr) }
	flag.Parse()
	cli.Version = version

	if err := config.LoadEnvFiles(); err != nil {
		log.Printf("Warning: failed to load .env: %v", err)
	}
	if *configPath == "" {
		*configPath = config.GetEnvWithFallback("MEDTRACK_CONFIG", "MEDTRACK_CONFIG_FILE")
	}
	if *dataDir == "" {
		*dataDir = config.GetEnvDefault("MEDTRACK_DATA_DIR", "")
	}

	cmd := flag.Arg(0)
	args := flag.Args()
	if len(args) > 0 {
		args = args[1:]
	}

	switch cmd {
	case "help", "-h", "--help":
		cli.PrintExtendedHelp(os.Stdout)
		return
	case "version", "--version", "-v":
		fmt.Printf("medtrack version %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath, *dataDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	path := *configPath
	if path == "" {
		path = filepath.Join(cfg.Storage.DataDir, "medtrack.yaml")
	}

	switch cmd {
	case "config":
		exitOnError(cli.RunConfig(os.Stdout, args, path, cfg.Storage.DataDir))
		return
	case "channels":
		cli.RunChannels(os.Stdout, cfg)
		return
	case "token":
		exitOnError(cli.RunToken(os.Stdout, cfg, args))
		return
	}

	application := initApp(cfg, path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = runCommand(ctx, cmd, args, application)
	stop()

	_ = application.Logger.Sync()
	if cerr := application.Store.Close(); cerr != nil {
		log.Printf("Warning: failed to close store: %v", cerr)
	}
	exitOnError(err)
}

func runCommand(ctx context.Context, cmd string, args []string, application *app.App) error {
	switch cmd {
	case "", "serve", "server":
		application.RunServer()
		return nil
	case "tick":
		return cli.RunTick(ctx, os.Stdout, application)
	case "doses":
		return cli.RunDoses(ctx, os.Stdout, application, args)
	case "mark":
		return cli.RunMark(ctx, os.Stdout, application, args)
	case "summary":
		return cli.RunSummary(ctx, os.Stdout, application, args)
	case "ticks":
		return cli.RunTicks(os.Stdout, application, args)
	case "doctor":
		if n := cli.RunDoctor(os.Stdout, application); n > 0 {
			return fmt.Errorf("%d check(s) failed", n)
		}
		return nil
	}
	cli.PrintExtendedHelp(os.Stderr)
	return fmt.Errorf("unknown command: %s", cmd)
}

func initApp(cfg *config.Config, path string) *app.App {
	zlog, level, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zlog.Info("Starting medtrack",
		zap.String("version", version),
		zap.String("driver", cfg.Storage.Driver),
		zap.String("timezone", cfg.Scheduler.Timezone),
	)

	st, err := store.New(&cfg.Storage)
	if err != nil {
		zlog.Fatal("Failed to initialize store", zap.Error(err))
	}

	application := app.New(cfg, st, zlog, clock.System{}, version)
	application.Level = level
	application.ConfigPath = path
	return application
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
}
