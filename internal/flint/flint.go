// Package flint defines the capability interfaces the conformance runner
// drives: isolated worlds, players bound to them, and single-tick stepping.
// Implementations live in flint/harness; the runner in flint/runner depends
// only on these contracts.
package flint

import (
	"fmt"
	"sort"
	"strings"
)

// BlockPos is a world coordinate, x/y/z.
type BlockPos [3]int

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// Block is a block id plus its state properties.
type Block struct {
	ID    string
	Props map[string]string
}

func (b Block) String() string {
	if len(b.Props) == 0 {
		return b.ID
	}
	keys := make([]string, 0, len(b.Props))
	for k := range b.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+b.Props[k])
	}
	return b.ID + "[" + strings.Join(parts, ",") + "]"
}

// Item is one inventory stack.
type Item struct {
	ID    string
	Count int
}

type ServerInfo struct {
	EngineVersion string
	WorldID       string
	TickRateHz    int
}

// World is one isolated engine world, exclusively owned by a single test
// case. The runner drives its lifecycle: BeginRun before the timeline,
// Finish with the verdict, then Close. Close releases the world and
// everything bound to it; every operation after Close fails.
type World interface {
	// BeginRun marks the case as executing. It fails on a closed world.
	BeginRun() error
	// Finish records the case verdict. Close still runs afterwards.
	Finish(passed bool)
	// Tick advances the engine by n ticks, synchronously.
	Tick(n int) error
	CurrentTick() uint64
	BlockAt(pos BlockPos) (Block, error)
	SetBlock(pos BlockPos, b Block) error
	// CreatePlayer joins a real agent whose transport is a recording sink.
	CreatePlayer(name string) (Player, error)
	Close() error
}

// Player is a real engine agent observed through its packet sink. Slots are
// named hotbar_1..hotbar_9, off_hand, boots, leggings, chestplate, helmet.
type Player interface {
	SetSlot(slot string, item string, count int) error
	Slot(slot string) (Item, error)
	SelectHotbar(n int) error
	SelectedHotbar() (int, error)
	UseItemOn(pos BlockPos, face string) error
	// Packets returns the captured outbound messages without clearing them.
	Packets() [][]byte
	// DrainPackets returns the captured messages and clears the sink.
	DrainPackets() [][]byte
}

// Adapter constructs isolated worlds for test cases.
type Adapter interface {
	CreateWorld() (World, error)
	Info() ServerInfo
}
