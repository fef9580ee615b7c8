package orderservice

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"wheres-my-food/cmd/orderservice/server"
	"wheres-my-food/pkg/config"
	"wheres-my-food/pkg/logger"
)

// ErrHelp is returned when --help was requested.
var ErrHelp = errors.New("help requested")

// Execute runs the order service until a shutdown signal arrives or the
// server fails.
func Execute(ctx context.Context, args []string) error {
	newCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootLog := logger.NewLogger("order-service", logger.Options{})
	cfg, err := loadConfig(args)
	if err != nil {
		if !errors.Is(err, ErrHelp) {
			bootLog.Action("config_load_failed").Error("Failed to load configuration", err)
		}
		return err
	}

	mylog := logger.NewLogger(cfg.App.Name, logger.Options{Level: cfg.App.LogLevel, File: cfg.App.LogFile})
	mylog.Action("service_started").Info("Order Service starting")

	srv, err := server.New(newCtx, cfg, mylog)
	if err != nil {
		mylog.Action("startup_failed").Error("Failed to start order service", err)
		return err
	}

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- srv.Run()
	}()

	select {
	case <-newCtx.Done():
		mylog.Action("shutdown_signal_received").Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	case err := <-runErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			mylog.Action("order_service_failed").Error("Server failed unexpectedly", err)
			_ = srv.Stop(context.Background())
			return err
		}
		return nil
	}
}

// loadConfig reads the config file and applies command-line overrides,
// which win over both the file and the environment.
func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("order-service", flag.ContinueOnError)
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config-path", "", "path for config yaml")
	port := fs.Int("port", 3000, "Port to run the order service")
	maxConcurrent := fs.Int("max-concurrent", 50, "Max concurrent requests")

	if err := fs.Parse(args); err != nil {
		return nil, errors.New("cannot parse arguments")
	}
	if *showHelp {
		fs.Usage()
		return nil, ErrHelp
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.HTTP.Port = *port
		case "max-concurrent":
			cfg.HTTP.MaxConcurrent = *maxConcurrent
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
