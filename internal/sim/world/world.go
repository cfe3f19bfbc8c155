package world

import (
	"context"
	"fmt"
	"time"

	"flint.dev/internal/sim/catalogs"
	"flint.dev/internal/sim/world/terrain/store"
)

const EngineVersion = "0.4.2"

// New builds a world over the given chunk storage backend and terrain
// generator. A nil backend keeps every chunk in memory only.
func New(cfg WorldConfig, cats *catalogs.Catalogs, backend store.Storage, gen store.Generator) (*World, error) {
	cfg.applyDefaults()
	if cats == nil {
		return nil, fmt.Errorf("world %s: nil catalogs", cfg.ID)
	}
	if _, ok := cats.Blocks.Defs["AIR"]; !ok {
		return nil, fmt.Errorf("world %s: block catalog has no AIR", cfg.ID)
	}
	w := &World{
		cfg:        cfg,
		catalogs:   cats,
		chunks:     store.NewChunkStore(gen, backend, cfg.Height, cfg.BoundaryR),
		stateIndex: map[string]uint32{},
		agents:     map[string]*Agent{},
		clients:    map[string]*clientState{},
		falls:      map[uint64][]Vec3i{},
		inbox:      make(chan ActionEnvelope, 256),
		join:       make(chan JoinRequest, 8),
		leave:      make(chan string, 8),
		stop:       make(chan struct{}),
	}
	// State 0 must be AIR so zeroed chunks decode correctly.
	if idx := w.internState("AIR", nil); idx != 0 {
		return nil, fmt.Errorf("world %s: AIR interned as state %d", cfg.ID, idx)
	}
	return w, nil
}

func (w *World) ID() string                   { return w.cfg.ID }
func (w *World) TickRateHz() int              { return w.cfg.TickRateHz }
func (w *World) Seed() int64                  { return w.cfg.Seed }
func (w *World) CurrentTick() uint64          { return w.tick.Load() }
func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

// StepOnce advances the world by a single tick with the same ordering as the
// server loop. It is intended for deterministic tests and replays, and must
// not be mixed with a running Run loop.
func (w *World) StepOnce() uint64 {
	w.step(nil, nil, nil)
	return w.tick.Load()
}

func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	now := w.tick.Add(1)
	for _, req := range joins {
		w.handleJoin(req)
	}
	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, env := range actions {
		w.applyAction(env)
	}
	w.applyGravity(now)
}

// SetGenerator swaps the terrain generator. Must be called before the first
// chunk is materialized; callers intern the generator's block states first.
func (w *World) SetGenerator(gen store.Generator) { w.chunks.Gen = gen }

// Flush writes all materialized chunks to the storage backend.
func (w *World) Flush() error { return w.chunks.FlushAll() }

// Release drops chunks, agents and clients. Client connections are closed.
// The world is unusable afterwards.
func (w *World) Release() {
	for _, c := range w.clients {
		c.Conn.Close()
	}
	w.clients = nil
	w.agents = nil
	w.falls = nil
	w.chunks.Release()
}

// LoadedChunkCount reports how many chunks have been materialized so far.
func (w *World) LoadedChunkCount() int {
	return len(w.chunks.LoadedChunkKeys())
}
