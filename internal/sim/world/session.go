package world

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"flint.dev/internal/protocol"
)

func normalizeAgentName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "agent"
	}
	if len(name) > 32 {
		name = name[:32]
	}
	return name
}

func (w *World) buildWelcome(a *Agent) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         a.ID,
		ProfileID:       a.ProfileID.String(),
		EngineVersion:   EngineVersion,
		WorldParams: protocol.WorldParams{
			WorldID:    w.cfg.ID,
			TickRateHz: w.cfg.TickRateHz,
			Height:     w.cfg.Height,
			BoundaryR:  w.cfg.BoundaryR,
			Seed:       w.cfg.Seed,
		},
		Catalogs: protocol.Digests{
			BlockPalette: w.catalogs.Blocks.PaletteDigest,
			ItemPalette:  w.catalogs.Items.PaletteDigest,
		},
	}
}

// JoinAgent creates an agent with a fresh profile id and attaches conn as its
// client. The WELCOME message is delivered over conn before JoinAgent
// returns.
func (w *World) JoinAgent(name string, conn Conn) (string, error) {
	name = normalizeAgentName(name)
	idNum := w.nextAgentNum.Add(1)
	a := &Agent{
		ID:        fmt.Sprintf("A%04d", idNum),
		Name:      name,
		ProfileID: uuid.New(),
	}
	w.agents[a.ID] = a
	if conn != nil {
		w.clients[a.ID] = &clientState{Conn: conn}
	}
	w.deliverTo(a.ID, w.buildWelcome(a))
	return a.ID, nil
}

// AgentProfile reports an agent's display name and profile id.
func (w *World) AgentProfile(agentID string) (name string, profileID uuid.UUID, err error) {
	a := w.agents[agentID]
	if a == nil {
		return "", uuid.UUID{}, fmt.Errorf("%w: %s", ErrNoAgent, agentID)
	}
	return a.Name, a.ProfileID, nil
}

func (w *World) handleJoin(req JoinRequest) {
	id, err := w.JoinAgent(req.Name, req.Conn)
	if req.Resp != nil {
		req.Resp <- JoinResponse{AgentID: id, Err: err}
	}
}

// handleLeave detaches the client. The agent itself stays in the world.
func (w *World) handleLeave(agentID string) {
	if c := w.clients[agentID]; c != nil {
		c.Conn.Close()
	}
	delete(w.clients, agentID)
}
