package harness

import "flint.dev/internal/sim/world/terrain/store"

// memStorage is the disk-free chunk backend for ephemeral worlds. Load never
// finds anything, so the chunk store falls through to its generator; Store
// discards. No chunk touches durable storage.
type memStorage struct{}

func (memStorage) Load(key store.ChunkKey, height int) (*store.Chunk, bool, error) {
	return nil, false, nil
}

func (memStorage) Store(c *store.Chunk) error { return nil }
