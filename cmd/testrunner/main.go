// ABOUTME: Integrated test runner entry point
// ABOUTME: Aggregates serial console and test output while running the suite

package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harper/mcp-probe/internal/client"
	"github.com/harper/mcp-probe/internal/config"
	"github.com/harper/mcp-probe/internal/db"
	"github.com/harper/mcp-probe/internal/framing"
	"github.com/harper/mcp-probe/internal/livelog"
	"github.com/harper/mcp-probe/internal/logagg"
	"github.com/harper/mcp-probe/internal/logger"
	"github.com/harper/mcp-probe/internal/runner"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for the device to come up")
	skipChecks := flag.Bool("skip-checks", false, "skip built-in protocol checks")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	logger.SetVerbose(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	target := net.JoinHostPort(cfg.Target.Host, strconv.Itoa(cfg.Target.Port))
	log.Printf("loaded config: target=%s framing=%s serial=%s",
		target, cfg.Target.Framing, cfg.Serial.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("interrupted, shutting down")
		cancel()
	}()

	var live *livelog.Server
	if cfg.Log.LivePort > 0 {
		live = livelog.NewServer()
		if err := live.Listen(cfg.Log.LivePort); err != nil {
			log.Fatalf("failed to start live log server: %v", err)
		}
		defer live.Close()
		log.Printf("live log stream on ws://localhost:%d/logs", cfg.Log.LivePort)
	}

	aggCfg := logagg.Config{
		Target:     target,
		SerialPort: cfg.Serial.Port,
		BaudRate:   cfg.Serial.Baud,
		NoColor:    cfg.Log.NoColor,
	}
	if live != nil {
		aggCfg.Live = live
	}

	agg := logagg.New(aggCfg)
	if err := agg.Start(cfg.Log.File); err != nil {
		log.Fatalf("failed to start log aggregator: %v", err)
	}
	defer agg.Stop()

	mode, _ := framing.ParseMode(cfg.Target.Framing)
	opts := client.Options{
		Framing:     mode,
		DialTimeout: time.Duration(cfg.Target.TimeoutSeconds) * time.Second,
		CallTimeout: time.Duration(cfg.Target.TimeoutSeconds) * time.Second,
	}

	if cfg.Capture.Path != "" {
		capture, err := db.Open(cfg.Capture.Path)
		if err != nil {
			log.Fatalf("failed to open capture database: %v", err)
		}
		defer capture.Close()
		opts.Capture = capture
	}

	c := client.New(cfg.Target.Host, cfg.Target.Port, opts)
	r := runner.New(c, agg, target)

	if err := r.WaitForDevice(ctx, *wait); err != nil {
		agg.Stop()
		os.Exit(1)
	}

	if !*skipChecks {
		r.RunChecks(ctx)
	}
	r.RunSuite(ctx, cfg.Suite)

	summary := r.Finish()

	// Stop drains whatever is still queued before closing the sink.
	agg.Stop()

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
