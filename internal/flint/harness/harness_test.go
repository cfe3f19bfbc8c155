package harness

import (
	"encoding/json"
	"io"
	"log"
	"testing"

	"flint.dev/internal/flint"
	"flint.dev/internal/protocol"
)

func newAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := NewAdapter(log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func newWorld(t *testing.T, a *Adapter) flint.World {
	t.Helper()
	w, err := a.CreateWorld()
	if err != nil {
		t.Fatalf("CreateWorld: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestMaterializeOnceReflectsMutations(t *testing.T) {
	w := newWorld(t, newAdapter(t))
	pos := flint.BlockPos{4, 2, 4}
	if err := w.SetBlock(pos, flint.Block{ID: "STONE"}); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	got, err := w.BlockAt(pos)
	if err != nil {
		t.Fatalf("BlockAt: %v", err)
	}
	if got.ID != "STONE" {
		t.Fatalf("got %s, want STONE", got)
	}
	// Same chunk, different cell: still air.
	got, err = w.BlockAt(flint.BlockPos{5, 2, 4})
	if err != nil {
		t.Fatalf("BlockAt: %v", err)
	}
	if got.ID != "AIR" {
		t.Fatalf("untouched cell = %s, want AIR", got)
	}
}

func TestWorldsAreIsolated(t *testing.T) {
	a := newAdapter(t)
	w1 := newWorld(t, a)
	w2 := newWorld(t, a)
	pos := flint.BlockPos{0, 0, 0}
	if err := w1.SetBlock(pos, flint.Block{ID: "STONE"}); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	got, err := w2.BlockAt(pos)
	if err != nil {
		t.Fatalf("BlockAt: %v", err)
	}
	if got.ID != "AIR" {
		t.Fatalf("w1 mutation leaked into w2: %s", got)
	}
}

func TestCloseIsIdempotentAndFinal(t *testing.T) {
	w := newWorld(t, newAdapter(t))
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := w.SetBlock(flint.BlockPos{0, 0, 0}, flint.Block{ID: "STONE"}); err != ErrTornDown {
		t.Fatalf("SetBlock after Close: %v, want ErrTornDown", err)
	}
	if _, err := w.BlockAt(flint.BlockPos{0, 0, 0}); err != ErrTornDown {
		t.Fatalf("BlockAt after Close: %v, want ErrTornDown", err)
	}
	if _, err := w.CreatePlayer("late"); err != ErrTornDown {
		t.Fatalf("CreatePlayer after Close: %v, want ErrTornDown", err)
	}
}

func TestPlayerStartsWithEmptyPacketLog(t *testing.T) {
	w := newWorld(t, newAdapter(t))
	p, err := w.CreatePlayer("probe")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if n := len(p.Packets()); n != 0 {
		t.Fatalf("fresh player has %d packets, want 0", n)
	}
}

func TestActionsEmitOnePacketEach(t *testing.T) {
	w := newWorld(t, newAdapter(t))
	p, err := w.CreatePlayer("probe")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	// Three block mutations, each broadcast once.
	for i, id := range []string{"STONE", "DIRT", "GRASS"} {
		if err := w.SetBlock(flint.BlockPos{i, 0, 0}, flint.Block{ID: id}); err != nil {
			t.Fatalf("SetBlock %d: %v", i, err)
		}
	}
	got := p.DrainPackets()
	if len(got) != 3 {
		t.Fatalf("captured %d packets, want 3", len(got))
	}
	for i, b := range got {
		var m protocol.BlockUpdateMsg
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if m.Type != protocol.TypeBlockUpdate {
			t.Fatalf("packet %d type %q", i, m.Type)
		}
		if m.Pos[0] != i {
			t.Fatalf("packet %d out of order: pos %v", i, m.Pos)
		}
	}
	if n := len(p.DrainPackets()); n != 0 {
		t.Fatalf("drain did not clear: %d", n)
	}
}

func TestPlayerPlacement(t *testing.T) {
	w := newWorld(t, newAdapter(t))
	p, err := w.CreatePlayer("builder")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	base := flint.BlockPos{0, 0, 0}
	if err := w.SetBlock(base, flint.Block{ID: "DIRT"}); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if err := p.SetSlot(HotbarSlot(2), "FENCE", 3); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}
	if err := p.SelectHotbar(2); err != nil {
		t.Fatalf("SelectHotbar: %v", err)
	}
	if sel, _ := p.SelectedHotbar(); sel != 2 {
		t.Fatalf("selected %d, want 2", sel)
	}
	if err := p.UseItemOn(base, "top"); err != nil {
		t.Fatalf("UseItemOn: %v", err)
	}
	got, err := w.BlockAt(flint.BlockPos{0, 1, 0})
	if err != nil {
		t.Fatalf("BlockAt: %v", err)
	}
	if got.ID != "FENCE" {
		t.Fatalf("placed %s, want FENCE", got)
	}
	st, err := p.Slot(HotbarSlot(2))
	if err != nil {
		t.Fatalf("Slot: %v", err)
	}
	if st.Count != 2 {
		t.Fatalf("stack count %d, want 2", st.Count)
	}
}

func TestTickAdvancesGravity(t *testing.T) {
	w := newWorld(t, newAdapter(t))
	if err := w.SetBlock(flint.BlockPos{0, 0, 0}, flint.Block{ID: "STONE"}); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if err := w.SetBlock(flint.BlockPos{0, 3, 0}, flint.Block{ID: "SAND"}); err != nil {
		t.Fatalf("SetBlock: %v", err)
	}
	if w.CurrentTick() != 0 {
		t.Fatalf("fresh world tick %d", w.CurrentTick())
	}
	if err := w.Tick(2); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if w.CurrentTick() != 2 {
		t.Fatalf("tick %d after Tick(2)", w.CurrentTick())
	}
	got, _ := w.BlockAt(flint.BlockPos{0, 1, 0})
	if got.ID != "SAND" {
		t.Fatalf("sand at y=1 after 2 ticks: %s", got)
	}
}

func TestPhaseTransitions(t *testing.T) {
	a := newAdapter(t)
	wi, err := a.CreateWorld()
	if err != nil {
		t.Fatalf("CreateWorld: %v", err)
	}
	w := wi.(*EphemeralWorld)
	if w.Phase() != PhaseWorldReady {
		t.Fatalf("phase %v", w.Phase())
	}
	if _, err := w.CreatePlayer("p"); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if w.Phase() != PhasePlayerReady {
		t.Fatalf("phase %v", w.Phase())
	}
	if err := w.BeginRun(); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if w.Phase() != PhaseRunning {
		t.Fatalf("phase %v", w.Phase())
	}
	w.Finish(false)
	if w.Phase() != PhaseFailed {
		t.Fatalf("phase %v", w.Phase())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.Phase() != PhaseTornDown {
		t.Fatalf("phase %v", w.Phase())
	}
	if err := w.BeginRun(); err != ErrTornDown {
		t.Fatalf("BeginRun after Close: %v", err)
	}
}
