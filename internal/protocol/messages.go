package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	AgentID         string      `json:"agent_id"`
	ProfileID       string      `json:"profile_id"`
	EngineVersion   string      `json:"engine_version"`
	WorldParams     WorldParams `json:"world_params"`
	Catalogs        Digests     `json:"catalogs"`
}

type WorldParams struct {
	WorldID    string `json:"world_id"`
	TickRateHz int    `json:"tick_rate_hz"`
	Height     int    `json:"height"`
	BoundaryR  int    `json:"boundary_r"`
	Seed       int64  `json:"seed"`
}

type Digests struct {
	BlockPalette string `json:"block_palette"`
	ItemPalette  string `json:"item_palette"`
}

// ACT (client -> server): one player action per message.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Kind            string `json:"kind"` // USE_ITEM_ON | SET_SLOT | SELECT_HOTBAR
	Pos             [3]int `json:"pos,omitempty"`
	Face            string `json:"face,omitempty"`
	Slot            string `json:"slot,omitempty"`
	Item            string `json:"item,omitempty"`
	Count           int    `json:"count,omitempty"`
	Hotbar          int    `json:"hotbar,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Tick            uint64 `json:"tick"`
}

// BLOCK_UPDATE (server -> client): one block changed state.
type BlockUpdateMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	Tick            uint64            `json:"tick"`
	Pos             [3]int            `json:"pos"`
	Block           string            `json:"block"`
	Props           map[string]string `json:"props,omitempty"`
}

// INVENTORY (server -> client): one slot of the receiving agent changed.
type InventoryMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Slot            string `json:"slot"`
	Item            string `json:"item,omitempty"` // "" = slot cleared
	Count           int    `json:"count,omitempty"`
}
