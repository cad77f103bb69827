package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"genderviz/internal/app"
	"genderviz/internal/datasets"
	"genderviz/pkg/contracts"
)

func main() {
	only := flag.String("only", "", "comma separated dashboards to build (default: all)")
	configPath := flag.String("config", "", "path to a YAML config file (default: genderviz.yaml if present)")
	writeCSV := flag.Bool("csv", false, "also write the cleaned table of each dashboard as CSV")
	list := flag.Bool("list", false, "list the available dashboards and exit")
	version := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString("dashboards"))
		return
	}

	if *list {
		for _, name := range datasets.Names() {
			fmt.Println(name)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, parseNames(*only), *writeCSV); err != nil {
		slog.Error("Dashboard build failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, names []string, writeCSV bool) error {
	a, err := app.NewApplication(configPath)
	if err != nil {
		return err
	}
	a.ExportCSV = writeCSV

	runErr := a.Run(ctx, names)
	if err := a.Shutdown(context.Background()); err != nil {
		a.Logger.Warn("Shutdown incomplete", slog.String("error", err.Error()))
	}
	return runErr
}

// parseNames splits the -only flag, dropping blanks
func parseNames(only string) []string {
	var names []string
	for _, n := range strings.Split(only, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
