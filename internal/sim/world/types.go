package world

import (
	"sync/atomic"

	"github.com/google/uuid"

	"flint.dev/internal/protocol"
	"flint.dev/internal/sim/catalogs"
	"flint.dev/internal/sim/world/terrain/store"
)

type Vec3i struct {
	X int
	Y int
	Z int
}

// Conn is the transport seam between the world and a connected client.
// The production server backs it with a websocket; tests inject recorders.
type Conn interface {
	// Deliver hands one encoded message to the client. Implementations must
	// not block the world loop.
	Deliver(b []byte)
	Close()
}

// BlockState is one interned (block, properties) combination. State index 0
// is always AIR with no properties.
type BlockState struct {
	Block string
	Props map[string]string
}

type ItemStack struct {
	Item  string
	Count int
}

// Agent is one player in the world. Armor slots are ordered boots, leggings,
// chestplate, helmet.
type Agent struct {
	ID        string
	Name      string
	ProfileID uuid.UUID
	Pos       Vec3i

	Hotbar   [9]ItemStack
	OffHand  ItemStack
	Armor    [4]ItemStack
	Selected int // hotbar index 0..8
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs

	tick atomic.Uint64

	chunks *store.ChunkStore

	// Interned block states. Chunk cells are indices into states.
	states     []BlockState
	stateIndex map[string]uint32

	agents  map[string]*Agent
	clients map[string]*clientState

	// Gravity blocks scheduled to fall, keyed by the tick they fall on.
	falls map[uint64][]Vec3i

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	nextAgentNum atomic.Uint64
}

type clientState struct {
	Conn Conn
}

type ActionEnvelope struct {
	AgentID string
	Act     protocol.ActMsg
}

type JoinRequest struct {
	Name string
	Conn Conn
	Resp chan JoinResponse
}

type JoinResponse struct {
	AgentID string
	Err     error
}
