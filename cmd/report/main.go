package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"product-analyze-go/config"
	"product-analyze-go/internal/client"
	"product-analyze-go/internal/logger"
	"product-analyze-go/internal/report"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	server := flag.String("server", cfg.ServerURL, "analysis server base URL")
	out := flag.String("out", "report.html", "output HTML file")
	timeout := flag.Duration("timeout", cfg.AnalyzeTimeout, "request timeout")
	flag.Parse()

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		logrus.Fatalf("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *server, *out, *timeout, logger.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, server, out string, timeout time.Duration, log logrus.FieldLogger) error {
	page, err := report.NewDefaultPage()
	if err != nil {
		return err
	}

	c := client.New(server, client.WithTimeout(timeout), client.WithLogger(log))
	orch := report.New(c, page, report.WithLogger(log))
	triggerErr := orch.Trigger(ctx)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	log.WithField("state", orch.State()).Infof("Report written to %s", out)
	if triggerErr != nil {
		return fmt.Errorf("analysis failed: %w", triggerErr)
	}
	return nil
}
