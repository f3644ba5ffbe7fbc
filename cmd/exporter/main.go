// Package main runs the environment detection exporter.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/and161185/envdetect-exporter/internal/buildinfo"
	"github.com/and161185/envdetect-exporter/internal/config"
	"github.com/and161185/envdetect-exporter/internal/detector"
	"github.com/and161185/envdetect-exporter/internal/exporter"
)

func main() {
	buildinfo.PrintBuildInfo()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := config.NewExporterConfig()

	config.Logger.Infof("Exporter config: Addr=%s, FallbackAddr=%s, RefreshInterval=%d",
		config.Addr,
		config.FallbackAddr,
		config.RefreshInterval,
	)

	det := detector.New(config.Logger)

	exp := exporter.NewExporter(det, config)
	if err := exp.Run(ctx); err != nil {
		config.Logger.Fatal(err)
	}
}
