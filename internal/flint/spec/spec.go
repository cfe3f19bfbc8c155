// Package spec loads declarative test specifications. A spec is a YAML
// `.spec` file naming a timeline of per-tick actions plus optional world and
// player setup; files are validated against an embedded schema before they
// are decoded.
package spec

// TestSpec is one discovered test case. It is immutable after load.
type TestSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Setup       Setup    `yaml:"setup"`
	Timeline    []Step   `yaml:"timeline"`

	SourcePath string `yaml:"-"`
}

type Setup struct {
	World  WorldSetup   `yaml:"world"`
	Player *PlayerSetup `yaml:"player"`
}

type WorldSetup struct {
	Blocks []Placement `yaml:"blocks"`
}

type Placement struct {
	Pos   []int    `yaml:"pos"`
	Block BlockRef `yaml:"block"`
}

type PlayerSetup struct {
	Name           string              `yaml:"name"`
	SelectedHotbar int                 `yaml:"selected_hotbar"`
	Inventory      map[string]SlotSpec `yaml:"inventory"`
}

type SlotSpec struct {
	Item  string `yaml:"item"`
	Count int    `yaml:"count"`
}

// Step is one timeline entry: the tick it runs on and its actions.
type Step struct {
	Tick int      `yaml:"tick"`
	Do   []Action `yaml:"do"`
}

// Action is a single runner instruction. Which fields apply depends on
// Action: place, place_each, fill, remove, use_item_on, set_slot,
// select_hotbar, assert, assert_packets.
type Action struct {
	Action string `yaml:"action"`

	Pos   []int    `yaml:"pos"`
	Each  [][]int  `yaml:"each"`
	From  []int    `yaml:"from"`
	To    []int    `yaml:"to"`
	Block BlockRef `yaml:"block"`

	Item   string `yaml:"item"`
	Count  int    `yaml:"count"`
	Face   string `yaml:"face"`
	Slot   string `yaml:"slot"`
	Hotbar int    `yaml:"hotbar"`

	Checks  []Check      `yaml:"checks"`
	Packets *PacketCheck `yaml:"packets"`
}

type BlockRef struct {
	ID    string            `yaml:"id"`
	Props map[string]string `yaml:"props"`
}

// Check asserts the block at Pos matches Is: the id exactly, and every
// property Is names (unnamed properties are ignored).
type Check struct {
	Pos []int    `yaml:"pos"`
	Is  BlockRef `yaml:"is"`
}

// PacketCheck asserts on the messages drained from the player's sink.
// Count (when present) must match exactly; Types (when set) must match the
// drained message types in order.
type PacketCheck struct {
	Count *int     `yaml:"count"`
	Types []string `yaml:"types"`
}
