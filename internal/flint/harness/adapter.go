// Package harness implements the runner's capability interfaces on top of
// the real engine: worlds built over memory-only storage, players wired to
// recording sinks, synchronous single-tick stepping.
package harness

import (
	"fmt"
	"log"
	"sync/atomic"

	"flint.dev/internal/flint"
	"flint.dev/internal/sim/catalogs"
	"flint.dev/internal/sim/world"
)

// Adapter builds one isolated EphemeralWorld per test case. Catalogs are
// loaded once and shared read-only; everything mutable is per-world.
type Adapter struct {
	cats *catalogs.Catalogs
	log  *log.Logger

	worldNum atomic.Uint64
}

func NewAdapter(logger *log.Logger) (*Adapter, error) {
	cats, err := catalogs.Default()
	if err != nil {
		return nil, fmt.Errorf("adapter: %w", err)
	}
	return &Adapter{cats: cats, log: logger}, nil
}

func (a *Adapter) CreateWorld() (flint.World, error) {
	n := a.worldNum.Add(1)
	cfg := world.WorldConfig{
		ID:        fmt.Sprintf("flint-%d", n),
		Height:    64,
		BoundaryR: 1024,
	}
	return newEphemeralWorld(cfg, a.cats, a.log)
}

func (a *Adapter) Info() flint.ServerInfo {
	return flint.ServerInfo{
		EngineVersion: world.EngineVersion,
		WorldID:       "flint",
		TickRateHz:    20,
	}
}
