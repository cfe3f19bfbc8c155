package store

import (
	"crypto/sha256"
	"encoding/binary"
)

// ChunkKey identifies a 16x16 column of blocks.
type ChunkKey struct {
	CX int
	CZ int
}

// Chunk holds the block states for one column: 16x16xHeight cells.
// Cells store indices into the owning world's block state table.
type Chunk struct {
	CX, CZ int
	Height int
	Blocks []uint32 // len = 16*16*Height

	dirty bool
	hash  [32]byte
}

func NewChunk(cx, cz, height int) *Chunk {
	return &Chunk{
		CX:     cx,
		CZ:     cz,
		Height: height,
		Blocks: make([]uint32, 16*16*height),
	}
}

func (c *Chunk) index(x, y, z int) int {
	return (y*16+z)*16 + x
}

func (c *Chunk) Get(x, y, z int) uint32 {
	return c.Blocks[c.index(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b uint32) {
	i := c.index(x, y, z)
	if c.Blocks[i] == b {
		return
	}
	c.Blocks[i] = b
	c.dirty = true
}

// Digest returns a sha256 over the chunk's cells, recomputed only after
// mutations.
func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [4]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint32(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// Storage is the persistence seam injected into a ChunkStore. The production
// backend reads and writes chunk files; test worlds inject a memory-only
// implementation so no chunk ever touches disk.
type Storage interface {
	// Load returns the stored chunk for key, or ok=false when the backend
	// has no record of it (the store then generates it).
	Load(key ChunkKey, height int) (*Chunk, bool, error)
	// Store persists a chunk. Backends may no-op.
	Store(c *Chunk) error
}

// Generator fills a freshly allocated chunk with terrain. Implementations
// must be deterministic in the chunk coordinates.
type Generator interface {
	Generate(c *Chunk)
}

// ChunkStore owns every materialized chunk of one world. Chunks are
// materialized at most once per coordinate: first from Storage, then from
// the Generator, and are reused for all later access.
type ChunkStore struct {
	Gen       Generator
	Backend   Storage
	Height    int
	BoundaryR int // blocks; 0 = unbounded

	Chunks map[ChunkKey]*Chunk
}

func NewChunkStore(gen Generator, backend Storage, height, boundaryR int) *ChunkStore {
	return &ChunkStore{
		Gen:       gen,
		Backend:   backend,
		Height:    height,
		BoundaryR: boundaryR,
		Chunks:    map[ChunkKey]*Chunk{},
	}
}
