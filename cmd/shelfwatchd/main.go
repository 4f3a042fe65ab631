package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shelfwatch/internal/config"
	"shelfwatch/internal/logging"
)

const version = "0.1.0"

func main() {
	configFlag := flag.String("config", "", "configuration file path")
	createUserFlag := flag.String("create-user", "", "create an account with the given email and exit")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("shelfwatchd %s\n", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	if *createUserFlag != "" {
		if err := createUser(ctx, cfg, *createUserFlag); err != nil {
			log.Fatalf("create user: %v", err)
		}
		return
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	d, err := buildDaemon(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shelfwatchd shutting down")
}
