package world

import (
	"encoding/json"

	"flint.dev/internal/protocol"
)

func (w *World) deliverTo(agentID string, v any) {
	c := w.clients[agentID]
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Conn.Deliver(b)
}

func (w *World) broadcast(v any) {
	if len(w.clients) == 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	for _, c := range w.clients {
		c.Conn.Deliver(b)
	}
}

func (w *World) broadcastBlockUpdate(pos Vec3i, block string, props map[string]string) {
	w.broadcast(protocol.BlockUpdateMsg{
		Type:            protocol.TypeBlockUpdate,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick.Load(),
		Pos:             [3]int{pos.X, pos.Y, pos.Z},
		Block:           block,
		Props:           props,
	})
}

func (w *World) deliverInventory(agentID, slot string, st ItemStack) {
	w.deliverTo(agentID, protocol.InventoryMsg{
		Type:            protocol.TypeInventory,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick.Load(),
		Slot:            slot,
		Item:            st.Item,
		Count:           st.Count,
	})
}

func (w *World) deliverAck(agentID string, accepted bool, code, msg string) {
	w.deliverTo(agentID, protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		Accepted:        accepted,
		Code:            code,
		Message:         msg,
		Tick:            w.tick.Load(),
	})
}
