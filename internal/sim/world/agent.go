package world

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrNoAgent = errors.New("no such agent")

// Slot names as they appear on the wire.
const (
	SlotOffHand    = "off_hand"
	SlotBoots      = "boots"
	SlotLeggings   = "leggings"
	SlotChestplate = "chestplate"
	SlotHelmet     = "helmet"
)

// HotbarSlot names hotbar slot n, 1-based.
func HotbarSlot(n int) string { return fmt.Sprintf("hotbar_%d", n) }

var armorSlots = [4]string{SlotBoots, SlotLeggings, SlotChestplate, SlotHelmet}

func (a *Agent) slotRef(slot string) (*ItemStack, error) {
	if rest, ok := strings.CutPrefix(slot, "hotbar_"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || n > 9 {
			return nil, fmt.Errorf("unknown slot %q", slot)
		}
		return &a.Hotbar[n-1], nil
	}
	if slot == SlotOffHand {
		return &a.OffHand, nil
	}
	for i, name := range armorSlots {
		if slot == name {
			return &a.Armor[i], nil
		}
	}
	return nil, fmt.Errorf("unknown slot %q", slot)
}

// SlotOf reads one inventory slot of an agent.
func (w *World) SlotOf(agentID, slot string) (ItemStack, error) {
	a := w.agents[agentID]
	if a == nil {
		return ItemStack{}, fmt.Errorf("%w: %s", ErrNoAgent, agentID)
	}
	ref, err := a.slotRef(slot)
	if err != nil {
		return ItemStack{}, err
	}
	return *ref, nil
}

// SetSlot overwrites one inventory slot. An empty item clears the slot.
// The owning agent receives an INVENTORY message.
func (w *World) SetSlot(agentID, slot, item string, count int) error {
	a := w.agents[agentID]
	if a == nil {
		return fmt.Errorf("%w: %s", ErrNoAgent, agentID)
	}
	ref, err := a.slotRef(slot)
	if err != nil {
		return err
	}
	if item == "" {
		*ref = ItemStack{}
		w.deliverInventory(agentID, slot, *ref)
		return nil
	}
	def, ok := w.catalogs.Items.Defs[item]
	if !ok {
		return fmt.Errorf("unknown item %q", item)
	}
	if count < 1 {
		count = 1
	}
	if def.MaxStack > 0 && count > def.MaxStack {
		return fmt.Errorf("item %q: count %d exceeds max stack %d", item, count, def.MaxStack)
	}
	*ref = ItemStack{Item: item, Count: count}
	w.deliverInventory(agentID, slot, *ref)
	return nil
}

// SelectHotbar sets the active hotbar slot, 1-based.
func (w *World) SelectHotbar(agentID string, n int) error {
	a := w.agents[agentID]
	if a == nil {
		return fmt.Errorf("%w: %s", ErrNoAgent, agentID)
	}
	if n < 1 || n > 9 {
		return fmt.Errorf("hotbar slot %d out of range", n)
	}
	a.Selected = n - 1
	return nil
}

// SelectedSlot reports the active hotbar slot, 1-based.
func (w *World) SelectedSlot(agentID string) (int, error) {
	a := w.agents[agentID]
	if a == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoAgent, agentID)
	}
	return a.Selected + 1, nil
}

// UseItemOn places the selected hotbar item against a face of the block at
// pos. The placed cell is the face neighbor, which must currently be AIR.
// One item is consumed from the stack on success.
func (w *World) UseItemOn(agentID string, pos Vec3i, face string) error {
	a := w.agents[agentID]
	if a == nil {
		return fmt.Errorf("%w: %s", ErrNoAgent, agentID)
	}
	stack := &a.Hotbar[a.Selected]
	if stack.Item == "" {
		return fmt.Errorf("agent %s: selected hotbar slot is empty", agentID)
	}
	def, ok := w.catalogs.Items.Defs[stack.Item]
	if !ok {
		return fmt.Errorf("unknown item %q", stack.Item)
	}
	if def.Places == "" {
		return fmt.Errorf("item %q cannot be placed", stack.Item)
	}
	off, err := faceOffset(face)
	if err != nil {
		return err
	}
	base, err := w.BlockStateAt(pos)
	if err != nil {
		return err
	}
	if base.Block == "AIR" {
		return fmt.Errorf("no block at (%d,%d,%d)", pos.X, pos.Y, pos.Z)
	}
	target := add(pos, off)
	if !w.chunks.InBounds(target.X, target.Y, target.Z) {
		return fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfBounds, target.X, target.Y, target.Z)
	}
	cur, err := w.BlockStateAt(target)
	if err != nil {
		return err
	}
	if cur.Block != "AIR" {
		return fmt.Errorf("target (%d,%d,%d) occupied by %s", target.X, target.Y, target.Z, cur.Block)
	}
	if err := w.SetBlockState(target, def.Places, nil); err != nil {
		return err
	}
	stack.Count--
	if stack.Count <= 0 {
		*stack = ItemStack{}
	}
	w.deliverInventory(agentID, HotbarSlot(a.Selected+1), *stack)
	return nil
}

func (w *World) applyAction(env ActionEnvelope) {
	var err error
	switch env.Act.Kind {
	case "USE_ITEM_ON":
		p := Vec3i{X: env.Act.Pos[0], Y: env.Act.Pos[1], Z: env.Act.Pos[2]}
		err = w.UseItemOn(env.AgentID, p, env.Act.Face)
	case "SET_SLOT":
		err = w.SetSlot(env.AgentID, env.Act.Slot, env.Act.Item, env.Act.Count)
	case "SELECT_HOTBAR":
		err = w.SelectHotbar(env.AgentID, env.Act.Hotbar)
	default:
		err = fmt.Errorf("unknown action kind %q", env.Act.Kind)
	}
	if err != nil {
		w.deliverAck(env.AgentID, false, "REJECTED", err.Error())
		return
	}
	w.deliverAck(env.AgentID, true, "", "")
}
