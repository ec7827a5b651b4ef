package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/traincfg/internal/application"
	"github.com/eugenenazirov/traincfg/internal/config"
	"github.com/eugenenazirov/traincfg/internal/logging"
	"github.com/eugenenazirov/traincfg/internal/schedule"
	"github.com/eugenenazirov/traincfg/internal/schema"
)

var signalNotify = signal.Notify

func main() {
	app := kingpin.New("traincfg", "Training configuration validator and registry service")

	checkCmd := app.Command("check", "Validate a training configuration file and print a summary")
	checkFile := checkCmd.Arg("file", "Path to the training configuration document").Required().String()

	serveCmd := app.Command("serve", "Run the configuration registry HTTP service")
	configFile := serveCmd.Flag("config", "Path to YAML configuration file").String()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	preloadFlags := serveCmd.Flag("preload", "Training configuration to register at startup, as name=path (repeatable)").Strings()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch command {
	case checkCmd.FullCommand():
		if err := runCheck(*checkFile, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *checkFile, err)
			os.Exit(1)
		}

	case serveCmd.FullCommand():
		overrides := &config.CLIOverrides{
			ConfigFile: *configFile,
			Preload:    *preloadFlags,
		}

		if *port != "" {
			overrides.Port = port
		}

		if *rateLimitRPSFlag >= 0 {
			overrides.RateLimitRPS = rateLimitRPSFlag
		}

		if *rateLimitBurstFlag >= 0 {
			overrides.RateLimitBurst = rateLimitBurstFlag
		}

		runServe(overrides)
	}
}

// runCheck loads a training configuration and prints a human-readable
// summary of the normalized values and the derived plan.
func runCheck(path string, out io.Writer) error {
	cfg, err := schema.Load(path)
	if err != nil {
		return err
	}

	sizes := make([]string, len(cfg.Data.ImageSizes))
	for i, size := range cfg.Data.ImageSizes {
		sizes[i] = size.String()
	}

	plan := schedule.BuildPlan(cfg)

	fmt.Fprintf(out, "%s: OK\n", path)
	fmt.Fprintf(out, "  model      %s-%s (%d classes, pretrained=%t)\n", cfg.Model.Family, cfg.Model.Name, cfg.Model.NumClasses, cfg.Model.Pretrained)
	fmt.Fprintf(out, "  data       root=%s workers=%d sizes=%s\n", cfg.Data.Root, cfg.Data.NumWorkers, strings.Join(sizes, " "))
	fmt.Fprintf(out, "  train      bs=%d augment=%s\n", cfg.Data.Train.BatchSize, strings.Join(cfg.Data.Train.AugmentSteps, " "))
	fmt.Fprintf(out, "  val        bs=%d augment=%s\n", cfg.Data.Val.BatchSize, strings.Join(cfg.Data.Val.AugmentSteps, " "))
	fmt.Fprintf(out, "  hyp        epochs=%d (+%d warm) lr0=%g loss=%s optimizer=%s scheduler=%s\n",
		cfg.Hyp.Epochs, cfg.Hyp.WarmEpochs, cfg.Hyp.LR0, cfg.Hyp.Loss.Choice(), cfg.Hyp.Optimizer, cfg.Hyp.Scheduler)
	if cfg.Hyp.Strategy.ProgLearn {
		fmt.Fprintf(out, "  plan       mixup nodes=%v resize milestones=%v\n", plan.MixupChangeNodes, plan.ResizeMilestones)
	}

	return nil
}

func runServe(overrides *config.CLIOverrides) {
	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
