package runner

import (
	"fmt"
	"io"
	"log"
	"testing"

	"flint.dev/internal/flint"
	"flint.dev/internal/flint/harness"
	"flint.dev/internal/flint/spec"
)

func testAdapter(t *testing.T) *harness.Adapter {
	t.Helper()
	a, err := harness.NewAdapter(log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func intp(n int) *int { return &n }

func TestPassingSpec(t *testing.T) {
	sp := spec.TestSpec{
		Name: "place_stone",
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "place", Pos: []int{0, 0, 0}, Block: spec.BlockRef{ID: "STONE"}},
			}},
			{Tick: 1, Do: []spec.Action{
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 0, 0}, Is: spec.BlockRef{ID: "STONE"}},
				}},
			}},
		},
	}
	r := RunSpec(testAdapter(t), sp)
	if r.Outcome != OutcomePass {
		t.Fatalf("outcome %s: %s", r.Outcome, r.Detail)
	}
	if r.Ticks != 1 {
		t.Fatalf("ticks %d, want 1", r.Ticks)
	}
}

func TestFailingAssertionStopsEarly(t *testing.T) {
	sp := spec.TestSpec{
		Name: "wrong_block",
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "place", Pos: []int{0, 0, 0}, Block: spec.BlockRef{ID: "DIRT"}},
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 0, 0}, Is: spec.BlockRef{ID: "STONE"}},
				}},
				// Must never run: the assert above fails first.
				{Action: "place", Pos: []int{1, 0, 0}, Block: spec.BlockRef{ID: "STONE"}},
			}},
		},
	}
	r := RunSpec(testAdapter(t), sp)
	if r.Outcome != OutcomeFail {
		t.Fatalf("outcome %s", r.Outcome)
	}
	if r.Detail == "" {
		t.Fatal("failure detail empty")
	}
}

func TestEngineErrorIsErrored(t *testing.T) {
	sp := spec.TestSpec{
		Name: "bad_block",
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "place", Pos: []int{0, 0, 0}, Block: spec.BlockRef{ID: "NOT_A_BLOCK"}},
			}},
		},
	}
	r := RunSpec(testAdapter(t), sp)
	if r.Outcome != OutcomeError {
		t.Fatalf("outcome %s", r.Outcome)
	}
}

func TestGravitySpecTimeline(t *testing.T) {
	sp := spec.TestSpec{
		Name: "falling_sand",
		Setup: spec.Setup{World: spec.WorldSetup{Blocks: []spec.Placement{
			{Pos: []int{0, 0, 0}, Block: spec.BlockRef{ID: "STONE"}},
		}}},
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "place", Pos: []int{0, 3, 0}, Block: spec.BlockRef{ID: "SAND"}},
			}},
			{Tick: 3, Do: []spec.Action{
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 1, 0}, Is: spec.BlockRef{ID: "SAND"}},
					{Pos: []int{0, 3, 0}, Is: spec.BlockRef{ID: "AIR"}},
				}},
			}},
		},
	}
	r := RunSpec(testAdapter(t), sp)
	if r.Outcome != OutcomePass {
		t.Fatalf("outcome %s: %s", r.Outcome, r.Detail)
	}
}

func TestPlayerTimelineWithPackets(t *testing.T) {
	sp := spec.TestSpec{
		Name: "fence_by_hand",
		Setup: spec.Setup{
			World: spec.WorldSetup{Blocks: []spec.Placement{
				{Pos: []int{0, 0, 0}, Block: spec.BlockRef{ID: "DIRT"}},
			}},
			Player: &spec.PlayerSetup{
				SelectedHotbar: 1,
				Inventory: map[string]spec.SlotSpec{
					"hotbar_1": {Item: "FENCE", Count: 2},
				},
			},
		},
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "use_item_on", Pos: []int{0, 0, 0}, Face: "top"},
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 1, 0}, Is: spec.BlockRef{ID: "FENCE"}},
				}},
				// The placement broadcasts one BLOCK_UPDATE and the consumed
				// item emits one INVENTORY message.
				{Action: "assert_packets", Packets: &spec.PacketCheck{Count: intp(2)}},
			}},
		},
	}
	r := RunSpec(testAdapter(t), sp)
	if r.Outcome != OutcomePass {
		t.Fatalf("outcome %s: %s", r.Outcome, r.Detail)
	}
}

func TestFillAndRemove(t *testing.T) {
	sp := spec.TestSpec{
		Name: "fill_floor",
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "fill", From: []int{0, 0, 0}, To: []int{2, 0, 2}, Block: spec.BlockRef{ID: "PLANKS"}},
				{Action: "remove", Pos: []int{1, 0, 1}},
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 0, 0}, Is: spec.BlockRef{ID: "PLANKS"}},
					{Pos: []int{2, 0, 2}, Is: spec.BlockRef{ID: "PLANKS"}},
					{Pos: []int{1, 0, 1}, Is: spec.BlockRef{ID: "AIR"}},
				}},
			}},
		},
	}
	r := RunSpec(testAdapter(t), sp)
	if r.Outcome != OutcomePass {
		t.Fatalf("outcome %s: %s", r.Outcome, r.Detail)
	}
}

func TestConnectPropsAssertable(t *testing.T) {
	sp := spec.TestSpec{
		Name: "fence_row",
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "place_each", Each: [][]int{{0, 0, 0}, {1, 0, 0}}, Block: spec.BlockRef{ID: "FENCE"}},
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 0, 0}, Is: spec.BlockRef{ID: "FENCE", Props: map[string]string{"east": "true", "west": "false"}}},
					{Pos: []int{1, 0, 0}, Is: spec.BlockRef{ID: "FENCE", Props: map[string]string{"west": "true"}}},
				}},
			}},
		},
	}
	r := RunSpec(testAdapter(t), sp)
	if r.Outcome != OutcomePass {
		t.Fatalf("outcome %s: %s", r.Outcome, r.Detail)
	}
}

// recordingWorld logs the lifecycle calls the runner makes against it.
type recordingWorld struct {
	tick          uint64
	calls         []string
	panicOnAssert bool
}

func (w *recordingWorld) BeginRun() error {
	w.calls = append(w.calls, "begin")
	return nil
}

func (w *recordingWorld) Finish(passed bool) {
	w.calls = append(w.calls, fmt.Sprintf("finish:%t", passed))
}

func (w *recordingWorld) Tick(n int) error {
	w.tick += uint64(n)
	return nil
}

func (w *recordingWorld) CurrentTick() uint64 { return w.tick }

func (w *recordingWorld) BlockAt(pos flint.BlockPos) (flint.Block, error) {
	if w.panicOnAssert {
		panic("boom")
	}
	return flint.Block{ID: "AIR"}, nil
}

func (w *recordingWorld) SetBlock(pos flint.BlockPos, b flint.Block) error { return nil }

func (w *recordingWorld) CreatePlayer(name string) (flint.Player, error) {
	return nil, fmt.Errorf("no players here")
}

func (w *recordingWorld) Close() error {
	w.calls = append(w.calls, "close")
	return nil
}

type recordingAdapter struct{ w *recordingWorld }

func (a recordingAdapter) CreateWorld() (flint.World, error) { return a.w, nil }

func (a recordingAdapter) Info() flint.ServerInfo { return flint.ServerInfo{} }

func TestRunDrivesWorldLifecycle(t *testing.T) {
	w := &recordingWorld{}
	sp := spec.TestSpec{
		Name: "air_everywhere",
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 0, 0}, Is: spec.BlockRef{ID: "AIR"}},
				}},
			}},
		},
	}
	r := RunSpec(recordingAdapter{w: w}, sp)
	if r.Outcome != OutcomePass {
		t.Fatalf("outcome %s: %s", r.Outcome, r.Detail)
	}
	want := []string{"begin", "finish:true", "close"}
	if len(w.calls) != len(want) {
		t.Fatalf("calls %v, want %v", w.calls, want)
	}
	for i := range want {
		if w.calls[i] != want[i] {
			t.Fatalf("call %d is %q, want %q (all: %v)", i, w.calls[i], want[i], w.calls)
		}
	}
}

func TestFailedRunFinishesAsNotPassed(t *testing.T) {
	w := &recordingWorld{}
	sp := spec.TestSpec{
		Name: "wants_stone",
		Timeline: []spec.Step{
			{Tick: 0, Do: []spec.Action{
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 0, 0}, Is: spec.BlockRef{ID: "STONE"}},
				}},
			}},
		},
	}
	r := RunSpec(recordingAdapter{w: w}, sp)
	if r.Outcome != OutcomeFail {
		t.Fatalf("outcome %s", r.Outcome)
	}
	found := false
	for _, c := range w.calls {
		if c == "finish:false" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no finish:false in %v", w.calls)
	}
}

func TestPanicResultKeepsTicks(t *testing.T) {
	w := &recordingWorld{panicOnAssert: true}
	sp := spec.TestSpec{
		Name: "explodes_late",
		Timeline: []spec.Step{
			{Tick: 2, Do: []spec.Action{
				{Action: "assert", Checks: []spec.Check{
					{Pos: []int{0, 0, 0}, Is: spec.BlockRef{ID: "AIR"}},
				}},
			}},
		},
	}
	r := RunSpec(recordingAdapter{w: w}, sp)
	if r.Outcome != OutcomeError {
		t.Fatalf("outcome %s", r.Outcome)
	}
	if r.Ticks != 2 {
		t.Fatalf("ticks %d, want 2", r.Ticks)
	}
}

func TestSummaryCounts(t *testing.T) {
	var s Summary
	s.Add(TestResult{Name: "a", Outcome: OutcomePass})
	s.Add(TestResult{Name: "b", Outcome: OutcomeFail})
	s.Add(TestResult{Name: "c", Outcome: OutcomeError})
	if s.Passed() != 1 || s.Failed() != 1 || s.Errored() != 1 {
		t.Fatalf("counts %d/%d/%d", s.Passed(), s.Failed(), s.Errored())
	}
	if s.Ok() {
		t.Fatal("summary with failures reported ok")
	}
}
