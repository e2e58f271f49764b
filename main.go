package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kulik199775/Web524HospitalDBQuery/cmd/cli"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/config"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/logger"
)

func main() {
	path := config.Path()

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Setup(cfg.Logging); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.HospitalReport(ctx, cfg, path, os.Args, os.Stdout); err != nil {
		stop()
		log.Fatal(err)
	}
}
