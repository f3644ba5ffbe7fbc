// Package config provides application configuration structures and helpers.
package config

import (
	"flag"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"
)

// ExporterConfig holds the configuration settings for the exporter.
type ExporterConfig struct {
	Addr            string // Primary HTTP listen address
	FallbackAddr    string // Address tried once when the primary fails to bind
	Logger          *zap.SugaredLogger
	RefreshInterval int // Interval for re-running detection (in seconds, 0 = detect once at startup)
}

// NewExporterConfig creates and returns a new ExporterConfig by parsing flags and environment variables.
func NewExporterConfig() *ExporterConfig {
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stdout"}

	logger := zap.Must(logCfg.Build())

	cfg := &ExporterConfig{}
	flag.StringVar(&cfg.Addr, "a", ":8080", "HTTP listen address")
	flag.StringVar(&cfg.FallbackAddr, "b", ":8082", "fallback HTTP listen address")
	flag.IntVar(&cfg.RefreshInterval, "i", 0, "detection refresh interval in seconds (0 = detect once)")
	flag.Parse()

	cfg.Logger = logger.Sugar()

	readExporterEnvironment(cfg)

	return cfg
}

func readExporterEnvironment(cfg *ExporterConfig) {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.Addr = addr
	}

	if addr := os.Getenv("FALLBACK_ADDRESS"); addr != "" {
		cfg.FallbackAddr = addr
	}

	refreshIntervalEnv := os.Getenv("REFRESH_INTERVAL")
	if refreshIntervalEnv != "" {
		v, err := strconv.Atoi(refreshIntervalEnv)
		if err == nil {
			cfg.RefreshInterval = v
		} else {
			log.Printf("invalid REFRESH_INTERVAL env var: %v", err)
		}
	}
}
