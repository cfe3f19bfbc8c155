package main

import (
	"log"
	"os"

	"flint.dev/internal/flint/config"
	"flint.dev/internal/flint/harness"
	"flint.dev/internal/flint/pipeline"
)

func main() {
	logger := log.New(os.Stdout, "[flint] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ad, err := harness.NewAdapter(logger)
	if err != nil {
		logger.Fatalf("adapter: %v", err)
	}
	info := ad.Info()
	logger.Printf("engine %s, specs from %s", info.EngineVersion, cfg.TestDir)

	summary, err := pipeline.New(cfg, ad, logger).Run()
	if err != nil {
		logger.Fatalf("run: %v", err)
	}
	summary.Print(logger)
	if !summary.Ok() {
		os.Exit(1)
	}
}
