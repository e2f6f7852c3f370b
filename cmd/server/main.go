package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/possync/internal/buildinfo"
	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server"
	"github.com/dmitrijs2005/possync/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
	}

}
