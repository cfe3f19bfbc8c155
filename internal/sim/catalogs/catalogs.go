// Package catalogs loads the block and item definitions a world simulates.
// Defaults are embedded so a world can be constructed with zero disk access;
// a config directory may override them.
package catalogs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed blocks.yaml
var defaultBlocksYAML []byte

//go:embed items.yaml
var defaultItemsYAML []byte

// BlockDef describes one block type and its allowed state properties.
type BlockDef struct {
	ID       string              `yaml:"id"`
	Solid    bool                `yaml:"solid"`
	Gravity  bool                `yaml:"gravity,omitempty"`  // falls when unsupported
	Connects bool                `yaml:"connects,omitempty"` // tracks n/e/s/w neighbors
	Props    map[string][]string `yaml:"props,omitempty"`    // allowed values per property
	Default  map[string]string   `yaml:"default,omitempty"`  // default property values
}

// ItemDef describes one inventory item. Places names the block the item
// becomes when used on a block face ("" = not placeable).
type ItemDef struct {
	ID       string `yaml:"id"`
	Places   string `yaml:"places,omitempty"`
	MaxStack int    `yaml:"max_stack"`
}

type BlockCatalog struct {
	Defs          map[string]BlockDef
	Palette       []string // sorted ids, AIR first
	Index         map[string]int
	PaletteDigest string
}

type ItemCatalog struct {
	Defs          map[string]ItemDef
	Palette       []string
	PaletteDigest string
}

type Catalogs struct {
	Blocks BlockCatalog
	Items  ItemCatalog
}

type blocksFile struct {
	Blocks []BlockDef `yaml:"blocks"`
}

type itemsFile struct {
	Items []ItemDef `yaml:"items"`
}

// Default builds the embedded catalogs. It never reads the filesystem.
func Default() (*Catalogs, error) {
	return build(defaultBlocksYAML, defaultItemsYAML)
}

// Load reads blocks.yaml and items.yaml from dir, falling back to the
// embedded defaults for any file that is absent.
func Load(dir string) (*Catalogs, error) {
	blocks := defaultBlocksYAML
	items := defaultItemsYAML
	if raw, err := os.ReadFile(filepath.Join(dir, "blocks.yaml")); err == nil {
		blocks = raw
	}
	if raw, err := os.ReadFile(filepath.Join(dir, "items.yaml")); err == nil {
		items = raw
	}
	return build(blocks, items)
}

func build(blocksRaw, itemsRaw []byte) (*Catalogs, error) {
	var bf blocksFile
	if err := yaml.Unmarshal(blocksRaw, &bf); err != nil {
		return nil, fmt.Errorf("blocks.yaml: %w", err)
	}
	var itf itemsFile
	if err := yaml.Unmarshal(itemsRaw, &itf); err != nil {
		return nil, fmt.Errorf("items.yaml: %w", err)
	}

	bc := BlockCatalog{Defs: map[string]BlockDef{}, Index: map[string]int{}}
	for _, d := range bf.Blocks {
		if d.ID == "" {
			return nil, fmt.Errorf("blocks.yaml: block with empty id")
		}
		if _, dup := bc.Defs[d.ID]; dup {
			return nil, fmt.Errorf("blocks.yaml: duplicate block %q", d.ID)
		}
		bc.Defs[d.ID] = d
	}
	if _, ok := bc.Defs["AIR"]; !ok {
		return nil, fmt.Errorf("blocks.yaml: AIR block is required")
	}
	bc.Palette = paletteOf(bc.Defs, "AIR")
	for i, id := range bc.Palette {
		bc.Index[id] = i
	}
	bc.PaletteDigest = digestOf(bc.Palette)

	ic := ItemCatalog{Defs: map[string]ItemDef{}}
	for _, d := range itf.Items {
		if d.ID == "" {
			return nil, fmt.Errorf("items.yaml: item with empty id")
		}
		if _, dup := ic.Defs[d.ID]; dup {
			return nil, fmt.Errorf("items.yaml: duplicate item %q", d.ID)
		}
		if d.Places != "" {
			if _, ok := bc.Defs[d.Places]; !ok {
				return nil, fmt.Errorf("items.yaml: item %q places unknown block %q", d.ID, d.Places)
			}
		}
		ic.Defs[d.ID] = d
	}
	ic.Palette = paletteOf(ic.Defs, "")
	ic.PaletteDigest = digestOf(ic.Palette)

	return &Catalogs{Blocks: bc, Items: ic}, nil
}

func paletteOf[V any](defs map[string]V, first string) []string {
	out := make([]string, 0, len(defs))
	for id := range defs {
		if id == first {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	if first != "" {
		out = append([]string{first}, out...)
	}
	return out
}

func digestOf(palette []string) string {
	h := sha256.New()
	for _, id := range palette {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
