package harness

import (
	"flint.dev/internal/flint"
	"flint.dev/internal/flint/sink"
	"flint.dev/internal/sim/world"
)

// TestPlayer is a real engine agent whose only substitution is the
// transport: outbound messages land in its PacketSink instead of a socket.
// Every operation runs the unmodified production code path.
type TestPlayer struct {
	world   *EphemeralWorld
	agentID string
	sink    *sink.PacketSink
}

func (p *TestPlayer) AgentID() string { return p.agentID }

func (p *TestPlayer) SetSlot(slot, item string, count int) error {
	if p.world.phase == PhaseTornDown {
		return ErrTornDown
	}
	return p.world.engine.SetSlot(p.agentID, slot, item, count)
}

func (p *TestPlayer) Slot(slot string) (flint.Item, error) {
	if p.world.phase == PhaseTornDown {
		return flint.Item{}, ErrTornDown
	}
	st, err := p.world.engine.SlotOf(p.agentID, slot)
	if err != nil {
		return flint.Item{}, err
	}
	return flint.Item{ID: st.Item, Count: st.Count}, nil
}

func (p *TestPlayer) SelectHotbar(n int) error {
	if p.world.phase == PhaseTornDown {
		return ErrTornDown
	}
	return p.world.engine.SelectHotbar(p.agentID, n)
}

func (p *TestPlayer) SelectedHotbar() (int, error) {
	if p.world.phase == PhaseTornDown {
		return 0, ErrTornDown
	}
	return p.world.engine.SelectedSlot(p.agentID)
}

func (p *TestPlayer) UseItemOn(pos flint.BlockPos, face string) error {
	if p.world.phase == PhaseTornDown {
		return ErrTornDown
	}
	f, err := NormalizeFace(face)
	if err != nil {
		return err
	}
	return p.world.engine.UseItemOn(p.agentID, toVec(pos), f)
}

func (p *TestPlayer) Packets() [][]byte { return p.sink.Snapshot() }

func (p *TestPlayer) DrainPackets() [][]byte { return p.sink.Drain() }

// HotbarSlot names hotbar slot n the way the engine does, 1-based.
func HotbarSlot(n int) string { return world.HotbarSlot(n) }
