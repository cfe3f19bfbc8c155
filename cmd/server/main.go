package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"flint.dev/internal/persistence/chunkdisk"
	"flint.dev/internal/sim/catalogs"
	"flint.dev/internal/sim/world"
	"flint.dev/internal/sim/world/terrain/store"
	"flint.dev/internal/transport/ws"
)

func main() {
	var (
		addr      = flag.String("addr", ":8080", "http listen address")
		worldID   = flag.String("world", "W1", "world id")
		seed      = flag.Int64("seed", 1337, "world seed")
		configDir = flag.String("configs", "", "catalog directory (empty: embedded catalogs)")
		dataDir   = flag.String("data", "./data", "runtime data directory")
		height    = flag.Int("height", 64, "world height")
		boundaryR = flag.Int("boundary", 4000, "world boundary radius")
		tickRate  = flag.Int("tick_rate", 20, "ticks per second")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	var cats *catalogs.Catalogs
	var err error
	if *configDir != "" {
		cats, err = catalogs.Load(*configDir)
	} else {
		cats, err = catalogs.Default()
	}
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	backend, err := chunkdisk.New(filepath.Join(worldDir, "chunks"))
	if err != nil {
		logger.Fatalf("chunk store: %v", err)
	}

	w, err := world.New(world.WorldConfig{
		ID:         *worldID,
		TickRateHz: *tickRate,
		Height:     *height,
		Seed:       *seed,
		BoundaryR:  *boundaryR,
	}, cats, backend, store.EmptyGen{})
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	// Generator block states must exist in the state table before any chunk
	// materializes, so raw indices in generated chunks decode correctly.
	surface, err := w.InternBlockState("GRASS", nil)
	if err != nil {
		logger.Fatalf("intern surface: %v", err)
	}
	filler, err := w.InternBlockState("DIRT", nil)
	if err != nil {
		logger.Fatalf("intern filler: %v", err)
	}
	deep, err := w.InternBlockState("STONE", nil)
	if err != nil {
		logger.Fatalf("intern deep: %v", err)
	}
	ore, err := w.InternBlockState("COAL_ORE", nil)
	if err != nil {
		logger.Fatalf("intern ore: %v", err)
	}
	w.SetGenerator(store.TerrainGen{
		Seed:        *seed,
		MinY:        *height / 4,
		MaxY:        *height / 2,
		Surface:     surface,
		Filler:      filler,
		Deep:        deep,
		Ore:         ore,
		OrePermille: 30,
	})

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("world %s listening on %s", *worldID, *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
	if err := w.Flush(); err != nil {
		logger.Printf("flush chunks: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
