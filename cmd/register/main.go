package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/possync/internal/buildinfo"
	"github.com/dmitrijs2005/possync/internal/client/cli"
	"github.com/dmitrijs2005/possync/internal/client/config"
	"github.com/dmitrijs2005/possync/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(os.Stderr, cfg.LogLevel, "text")

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "register stopped", "error", err)
	}

}
