package store

import (
	"fmt"
	"sort"

	genpkg "flint.dev/internal/sim/world/terrain/gen"
)

func (s *ChunkStore) InBounds(x, y, z int) bool {
	if y < 0 || y >= s.Height {
		return false
	}
	if s.BoundaryR > 0 {
		if x < -s.BoundaryR || x > s.BoundaryR || z < -s.BoundaryR || z > s.BoundaryR {
			return false
		}
	}
	return true
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// GetBlock returns the state index at a position. Out-of-bounds reads
// return 0 (air) without materializing a chunk.
func (s *ChunkStore) GetBlock(x, y, z int) (uint32, error) {
	if !s.InBounds(x, y, z) {
		return 0, nil
	}
	ch, err := s.GetOrLoadChunk(genpkg.FloorDiv(x, 16), genpkg.FloorDiv(z, 16))
	if err != nil {
		return 0, err
	}
	return ch.Get(genpkg.Mod(x, 16), y, genpkg.Mod(z, 16)), nil
}

// SetBlock writes the state index at a position. Out-of-bounds writes are
// rejected by the caller (World) before reaching here; a direct out-of-bounds
// call is a no-op.
func (s *ChunkStore) SetBlock(x, y, z int, b uint32) error {
	if !s.InBounds(x, y, z) {
		return nil
	}
	ch, err := s.GetOrLoadChunk(genpkg.FloorDiv(x, 16), genpkg.FloorDiv(z, 16))
	if err != nil {
		return err
	}
	ch.Set(genpkg.Mod(x, 16), y, genpkg.Mod(z, 16), b)
	return nil
}

// GetOrLoadChunk materializes the chunk at (cx, cz) exactly once: cache hit,
// then storage, then generator. Later calls return the same chunk with all
// in-between mutations intact.
func (s *ChunkStore) GetOrLoadChunk(cx, cz int) (*Chunk, error) {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.Chunks[k]; ok {
		return ch, nil
	}
	if s.Backend != nil {
		ch, ok, err := s.Backend.Load(k, s.Height)
		if err != nil {
			return nil, fmt.Errorf("load chunk (%d,%d): %w", cx, cz, err)
		}
		if ok {
			if len(ch.Blocks) != 16*16*s.Height {
				return nil, fmt.Errorf("load chunk (%d,%d): bad shape: %d cells for height %d", cx, cz, len(ch.Blocks), s.Height)
			}
			s.Chunks[k] = ch
			return ch, nil
		}
	}
	ch := NewChunk(cx, cz, s.Height)
	if s.Gen != nil {
		s.Gen.Generate(ch)
	}
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	return ch, nil
}

// FlushAll writes every materialized chunk back to storage.
func (s *ChunkStore) FlushAll() error {
	if s.Backend == nil {
		return nil
	}
	for _, k := range s.LoadedChunkKeys() {
		if err := s.Backend.Store(s.Chunks[k]); err != nil {
			return fmt.Errorf("store chunk (%d,%d): %w", k.CX, k.CZ, err)
		}
	}
	return nil
}

// Release drops every materialized chunk. The store is unusable afterwards.
func (s *ChunkStore) Release() {
	s.Chunks = nil
}
