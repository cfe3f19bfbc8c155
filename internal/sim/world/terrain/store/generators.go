package store

import genpkg "flint.dev/internal/sim/world/terrain/gen"

// EmptyGen leaves every cell at state 0 (air). Test worlds use it so chunk
// materialization has no terrain side effects.
type EmptyGen struct{}

func (EmptyGen) Generate(c *Chunk) {}

// TerrainGen fills columns up to a hashed surface height: Deep below,
// Filler in the middle band, Surface on top. Cells in the deep band roll
// a per-cell hash against OrePermille and become Ore on a hit. State
// indices are interned by the owning world before the generator is
// constructed.
type TerrainGen struct {
	Seed    int64
	MinY    int
	MaxY    int
	Surface uint32
	Filler  uint32
	Deep    uint32

	Ore         uint32
	OrePermille int // 0 disables ore
}

func (g TerrainGen) Generate(c *Chunk) {
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			wx := c.CX*16 + x
			wz := c.CZ*16 + z
			top := genpkg.SurfaceY(g.Seed, wx, wz, g.MinY, g.MaxY)
			if top >= c.Height {
				top = c.Height - 1
			}
			for y := 0; y <= top; y++ {
				b := g.Filler
				switch {
				case y == top:
					b = g.Surface
				case top-y > 3:
					b = g.Deep
					if g.OrePermille > 0 && genpkg.Hash3(g.Seed, wx, y, wz)%1000 < uint64(g.OrePermille) {
						b = g.Ore
					}
				}
				c.Set(x, y, z, b)
			}
		}
	}
}
