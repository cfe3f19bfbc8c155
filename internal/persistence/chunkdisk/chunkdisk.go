// Package chunkdisk persists chunks as one zstd-compressed gob file per
// chunk coordinate. It is the production store.Storage backend; test worlds
// never construct it.
package chunkdisk

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"flint.dev/internal/sim/world/terrain/store"
)

type chunkV1 struct {
	Version int
	CX      int
	CZ      int
	Height  int
	Blocks  []uint32
}

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chunkdisk: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key store.ChunkKey) string {
	return filepath.Join(s.dir, fmt.Sprintf("c.%d.%d.zst", key.CX, key.CZ))
}

func (s *Store) Load(key store.ChunkKey, height int) (*store.Chunk, bool, error) {
	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("chunkdisk load (%d,%d): %w", key.CX, key.CZ, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, false, fmt.Errorf("chunkdisk load (%d,%d): %w", key.CX, key.CZ, err)
	}
	defer dec.Close()

	var v chunkV1
	if err := gob.NewDecoder(bufio.NewReader(dec)).Decode(&v); err != nil {
		return nil, false, fmt.Errorf("chunkdisk load (%d,%d): gob: %w", key.CX, key.CZ, err)
	}
	if v.Height != height {
		return nil, false, fmt.Errorf("chunkdisk load (%d,%d): stored height %d, world height %d", key.CX, key.CZ, v.Height, height)
	}
	ch := store.NewChunk(v.CX, v.CZ, v.Height)
	copy(ch.Blocks, v.Blocks)
	return ch, true, nil
}

func (s *Store) Store(c *store.Chunk) error {
	key := store.ChunkKey{CX: c.CX, CZ: c.CZ}
	tmp := s.path(key) + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("chunkdisk store (%d,%d): %w", c.CX, c.CZ, err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return fmt.Errorf("chunkdisk store (%d,%d): %w", c.CX, c.CZ, err)
	}
	bw := bufio.NewWriterSize(enc, 64*1024)
	v := chunkV1{Version: 1, CX: c.CX, CZ: c.CZ, Height: c.Height, Blocks: c.Blocks}
	if err := gob.NewEncoder(bw).Encode(&v); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("chunkdisk store (%d,%d): gob: %w", c.CX, c.CZ, err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(key))
}
