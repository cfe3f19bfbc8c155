// Package runner executes one test spec against an isolated world. The
// timeline is replayed tick by tick: the world steps to each entry's tick,
// runs its actions in order, and stops early on the first failed assertion.
package runner

import (
	"fmt"
	"sort"
	"time"

	"flint.dev/internal/flint"
	"flint.dev/internal/flint/spec"
	"flint.dev/internal/protocol"
)

// RunSpec executes sp against a fresh world from ad, driving the world's
// lifecycle: player setup, BeginRun, the timeline, Finish with the verdict.
// Teardown always runs: the world is closed via defer and a panic inside
// the run is converted into an errored result after teardown.
func RunSpec(ad flint.Adapter, sp spec.TestSpec) (result TestResult) {
	start := time.Now()
	result = TestResult{Name: sp.Name}
	var w flint.World
	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			result.Outcome = OutcomeError
			result.Detail = fmt.Sprintf("panic: %v", r)
			if w != nil {
				result.Ticks = w.CurrentTick()
			}
		}
	}()

	w, err := ad.CreateWorld()
	if err != nil {
		result.Outcome = OutcomeError
		result.Detail = fmt.Sprintf("create world: %v", err)
		return result
	}
	defer w.Close()

	run := &caseRun{w: w, sp: sp}
	// A declared player is part of setup, so it is bound before the run
	// starts; players are otherwise created lazily on first use.
	if sp.Setup.Player != nil {
		if _, err := run.playerFor(); err != nil {
			result.Outcome = OutcomeError
			result.Detail = fmt.Sprintf("player setup: %v", err)
			return result
		}
	}
	if err := w.BeginRun(); err != nil {
		result.Outcome = OutcomeError
		result.Detail = fmt.Sprintf("begin run: %v", err)
		return result
	}

	outcome, detail := run.execute()
	w.Finish(outcome == OutcomePass)
	result.Outcome = outcome
	result.Detail = detail
	result.Ticks = w.CurrentTick()
	return result
}

type caseRun struct {
	w      flint.World
	sp     spec.TestSpec
	player flint.Player
}

// playerFor creates the test player lazily, so pure block specs never
// construct one. Player setup from the spec is applied on first use.
func (c *caseRun) playerFor() (flint.Player, error) {
	if c.player != nil {
		return c.player, nil
	}
	name := "flint"
	if ps := c.sp.Setup.Player; ps != nil && ps.Name != "" {
		name = ps.Name
	}
	p, err := c.w.CreatePlayer(name)
	if err != nil {
		return nil, err
	}
	if ps := c.sp.Setup.Player; ps != nil {
		for slot, st := range ps.Inventory {
			count := st.Count
			if count < 1 {
				count = 1
			}
			if err := p.SetSlot(slot, st.Item, count); err != nil {
				return nil, err
			}
		}
		if ps.SelectedHotbar > 0 {
			if err := p.SelectHotbar(ps.SelectedHotbar); err != nil {
				return nil, err
			}
		}
		p.DrainPackets()
	}
	c.player = p
	return p, nil
}

func (c *caseRun) execute() (Outcome, string) {
	for _, pl := range c.sp.Setup.World.Blocks {
		if err := c.w.SetBlock(toPos(pl.Pos), flint.Block{ID: pl.Block.ID, Props: pl.Block.Props}); err != nil {
			return OutcomeError, fmt.Sprintf("setup block: %v", err)
		}
	}

	steps := make([]spec.Step, len(c.sp.Timeline))
	copy(steps, c.sp.Timeline)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Tick < steps[j].Tick })

	for _, step := range steps {
		for c.w.CurrentTick() < uint64(step.Tick) {
			if err := c.w.Tick(1); err != nil {
				return OutcomeError, fmt.Sprintf("tick: %v", err)
			}
		}
		for i, act := range step.Do {
			failure, err := c.apply(act)
			if err != nil {
				return OutcomeError, fmt.Sprintf("tick %d action %d (%s): %v", step.Tick, i, act.Action, err)
			}
			if failure != "" {
				return OutcomeFail, fmt.Sprintf("tick %d: %s", step.Tick, failure)
			}
		}
	}
	return OutcomePass, ""
}

// apply runs one action. It returns a non-empty failure string for
// assertion mismatches and an error for engine or harness faults.
func (c *caseRun) apply(act spec.Action) (string, error) {
	switch act.Action {
	case "place":
		return "", c.w.SetBlock(toPos(act.Pos), flint.Block{ID: act.Block.ID, Props: act.Block.Props})
	case "place_each":
		for _, pos := range act.Each {
			if err := c.w.SetBlock(toPos(pos), flint.Block{ID: act.Block.ID, Props: act.Block.Props}); err != nil {
				return "", err
			}
		}
		return "", nil
	case "fill":
		return "", c.fill(act)
	case "remove":
		return "", c.w.SetBlock(toPos(act.Pos), flint.Block{ID: "AIR"})
	case "use_item_on":
		p, err := c.playerFor()
		if err != nil {
			return "", err
		}
		if act.Item != "" {
			if err := c.holdItem(p, act); err != nil {
				return "", err
			}
		}
		return "", p.UseItemOn(toPos(act.Pos), act.Face)
	case "set_slot":
		p, err := c.playerFor()
		if err != nil {
			return "", err
		}
		return "", p.SetSlot(act.Slot, act.Item, act.Count)
	case "select_hotbar":
		p, err := c.playerFor()
		if err != nil {
			return "", err
		}
		return "", p.SelectHotbar(act.Hotbar)
	case "assert":
		return c.assertBlocks(act)
	case "assert_packets":
		return c.assertPackets(act)
	}
	return "", fmt.Errorf("unknown action %q", act.Action)
}

func (c *caseRun) fill(act spec.Action) error {
	from, to := toPos(act.From), toPos(act.To)
	for i := 0; i < 3; i++ {
		if from[i] > to[i] {
			from[i], to[i] = to[i], from[i]
		}
	}
	for x := from[0]; x <= to[0]; x++ {
		for y := from[1]; y <= to[1]; y++ {
			for z := from[2]; z <= to[2]; z++ {
				if err := c.w.SetBlock(flint.BlockPos{x, y, z}, flint.Block{ID: act.Block.ID, Props: act.Block.Props}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// holdItem puts the named item into the selected hotbar slot before a use,
// so specs can say what the player holds without a separate set_slot step.
func (c *caseRun) holdItem(p flint.Player, act spec.Action) error {
	sel, err := p.SelectedHotbar()
	if err != nil {
		return err
	}
	cur, err := p.Slot(hotbarName(sel))
	if err != nil {
		return err
	}
	if cur.ID == act.Item {
		return nil
	}
	count := act.Count
	if count < 1 {
		count = 1
	}
	return p.SetSlot(hotbarName(sel), act.Item, count)
}

func (c *caseRun) assertBlocks(act spec.Action) (string, error) {
	for _, check := range act.Checks {
		pos := toPos(check.Pos)
		got, err := c.w.BlockAt(pos)
		if err != nil {
			return "", err
		}
		if got.ID != check.Is.ID {
			want := flint.Block{ID: check.Is.ID, Props: check.Is.Props}
			return fmt.Sprintf("block at %s is %s, want %s", pos, got, want), nil
		}
		for k, v := range check.Is.Props {
			if got.Props[k] != v {
				return fmt.Sprintf("block at %s has %s=%q, want %q", pos, k, got.Props[k], v), nil
			}
		}
	}
	return "", nil
}

func (c *caseRun) assertPackets(act spec.Action) (string, error) {
	p, err := c.playerFor()
	if err != nil {
		return "", err
	}
	msgs := p.DrainPackets()
	pc := act.Packets
	if pc == nil {
		return "", fmt.Errorf("assert_packets without packets block")
	}
	if pc.Count != nil && len(msgs) != *pc.Count {
		return fmt.Sprintf("captured %d packets, want %d", len(msgs), *pc.Count), nil
	}
	if len(pc.Types) > 0 {
		if len(msgs) != len(pc.Types) {
			return fmt.Sprintf("captured %d packets, want types %v", len(msgs), pc.Types), nil
		}
		for i, want := range pc.Types {
			base, err := protocol.DecodeBase(msgs[i])
			if err != nil {
				return "", fmt.Errorf("decode packet %d: %w", i, err)
			}
			if base.Type != want {
				return fmt.Sprintf("packet %d is %s, want %s", i, base.Type, want), nil
			}
		}
	}
	return "", nil
}

func toPos(p []int) flint.BlockPos {
	var out flint.BlockPos
	copy(out[:], p)
	return out
}

func hotbarName(n int) string { return fmt.Sprintf("hotbar_%d", n) }
