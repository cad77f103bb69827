package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"genderviz/internal/app"
	"genderviz/internal/datasets"
	"genderviz/pkg/contracts"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: genderviz.yaml if present)")
	version := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString("munge"))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApplication(*configPath)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}

	runErr := a.Munge(ctx, datasets.StemJobs())
	if err := a.Shutdown(context.Background()); err != nil {
		a.Logger.Warn("Shutdown incomplete", slog.String("error", err.Error()))
	}
	if runErr != nil {
		slog.Error("Munge failed", "error", runErr)
		os.Exit(1)
	}
}
