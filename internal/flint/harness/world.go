package harness

import (
	"errors"
	"fmt"
	"log"

	"flint.dev/internal/flint"
	"flint.dev/internal/flint/sink"
	"flint.dev/internal/sim/catalogs"
	"flint.dev/internal/sim/world"
	"flint.dev/internal/sim/world/terrain/store"
)

// ErrTornDown is returned by every operation on a closed world.
var ErrTornDown = errors.New("world torn down")

// Phase tracks the lifecycle of one test case's world.
type Phase int

const (
	PhaseWorldReady Phase = iota
	PhasePlayerReady
	PhaseRunning
	PhaseCompleted
	PhaseFailed
	PhaseTornDown
)

func (p Phase) String() string {
	switch p {
	case PhaseWorldReady:
		return "world-ready"
	case PhasePlayerReady:
		return "player-ready"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	case PhaseTornDown:
		return "torn-down"
	}
	return "unknown"
}

// EphemeralWorld wraps a real engine world built over memory-only storage
// and an empty generator. Chunks materialize lazily on access and die with
// the world; nothing is read from or written to disk.
type EphemeralWorld struct {
	engine *world.World
	log    *log.Logger
	phase  Phase
}

func newEphemeralWorld(cfg world.WorldConfig, cats *catalogs.Catalogs, logger *log.Logger) (*EphemeralWorld, error) {
	w, err := world.New(cfg, cats, memStorage{}, store.EmptyGen{})
	if err != nil {
		return nil, fmt.Errorf("ephemeral world: %w", err)
	}
	return &EphemeralWorld{engine: w, log: logger, phase: PhaseWorldReady}, nil
}

func (e *EphemeralWorld) Phase() Phase { return e.phase }

// BeginRun marks the case as executing. It fails once the world is closed.
func (e *EphemeralWorld) BeginRun() error {
	if e.phase == PhaseTornDown {
		return ErrTornDown
	}
	e.phase = PhaseRunning
	return nil
}

// Finish records the case outcome. Close still runs afterwards.
func (e *EphemeralWorld) Finish(passed bool) {
	if e.phase == PhaseTornDown {
		return
	}
	if passed {
		e.phase = PhaseCompleted
	} else {
		e.phase = PhaseFailed
	}
}

func (e *EphemeralWorld) Tick(n int) error {
	if e.phase == PhaseTornDown {
		return ErrTornDown
	}
	for i := 0; i < n; i++ {
		e.engine.StepOnce()
	}
	return nil
}

func (e *EphemeralWorld) CurrentTick() uint64 { return e.engine.CurrentTick() }

func (e *EphemeralWorld) BlockAt(pos flint.BlockPos) (flint.Block, error) {
	if e.phase == PhaseTornDown {
		return flint.Block{}, ErrTornDown
	}
	st, err := e.engine.BlockStateAt(toVec(pos))
	if err != nil {
		return flint.Block{}, err
	}
	return flint.Block{ID: st.Block, Props: st.Props}, nil
}

func (e *EphemeralWorld) SetBlock(pos flint.BlockPos, b flint.Block) error {
	if e.phase == PhaseTornDown {
		return ErrTornDown
	}
	return e.engine.SetBlockState(toVec(pos), b.ID, b.Props)
}

// CreatePlayer joins a real agent through the production join path, wired to
// a fresh recording sink. The join handshake is drained so the player's
// packet log starts empty.
func (e *EphemeralWorld) CreatePlayer(name string) (flint.Player, error) {
	if e.phase == PhaseTornDown {
		return nil, ErrTornDown
	}
	s := sink.New()
	id, err := e.engine.JoinAgent(name, s)
	if err != nil {
		return nil, fmt.Errorf("join agent: %w", err)
	}
	s.Drain()
	if e.phase == PhaseWorldReady {
		e.phase = PhasePlayerReady
	}
	return &TestPlayer{world: e, agentID: id, sink: s}, nil
}

// Close tears the world down: chunks, agents and client connections are
// released. It is idempotent and must not be skippable; callers defer it.
func (e *EphemeralWorld) Close() error {
	if e.phase == PhaseTornDown {
		return nil
	}
	e.phase = PhaseTornDown
	e.engine.Release()
	return nil
}
