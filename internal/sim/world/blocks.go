package world

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"flint.dev/internal/sim/catalogs"
)

var (
	ErrOutOfBounds  = errors.New("position out of bounds")
	ErrUnknownBlock = errors.New("unknown block")
)

// Horizontal neighbor offsets in connect order.
var connectDirs = [4]struct {
	Name string
	Dx   int
	Dz   int
}{
	{"north", 0, -1},
	{"east", 1, 0},
	{"south", 0, 1},
	{"west", -1, 0},
}

func faceOffset(face string) (Vec3i, error) {
	switch face {
	case "up":
		return Vec3i{Y: 1}, nil
	case "down":
		return Vec3i{Y: -1}, nil
	case "north":
		return Vec3i{Z: -1}, nil
	case "south":
		return Vec3i{Z: 1}, nil
	case "east":
		return Vec3i{X: 1}, nil
	case "west":
		return Vec3i{X: -1}, nil
	}
	return Vec3i{}, fmt.Errorf("unknown face %q", face)
}

func add(a, b Vec3i) Vec3i { return Vec3i{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z} }

func stateKey(block string, props map[string]string) string {
	if len(props) == 0 {
		return block
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(block)
	for _, k := range keys {
		sb.WriteByte('|')
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(props[k])
	}
	return sb.String()
}

func (w *World) internState(block string, props map[string]string) uint32 {
	key := stateKey(block, props)
	if idx, ok := w.stateIndex[key]; ok {
		return idx
	}
	cp := make(map[string]string, len(props))
	for k, v := range props {
		cp[k] = v
	}
	idx := uint32(len(w.states))
	w.states = append(w.states, BlockState{Block: block, Props: cp})
	w.stateIndex[key] = idx
	return idx
}

// InternBlockState registers a (block, properties) combination and returns
// its state index. Callers that feed raw indices into the world, such as
// terrain generators, must intern their states before the first chunk is
// materialized.
func (w *World) InternBlockState(block string, props map[string]string) (uint32, error) {
	def, ok := w.catalogs.Blocks.Defs[block]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBlock, block)
	}
	merged, err := mergeProps(def, props)
	if err != nil {
		return 0, fmt.Errorf("block %q: %w", block, err)
	}
	return w.internState(block, merged), nil
}

func (w *World) stateOf(idx uint32) BlockState {
	if int(idx) >= len(w.states) {
		return w.states[0]
	}
	return w.states[idx]
}

// BlockStateAt returns the block state at pos. Out-of-bounds positions read
// as AIR without materializing a chunk.
func (w *World) BlockStateAt(pos Vec3i) (BlockState, error) {
	idx, err := w.chunks.GetBlock(pos.X, pos.Y, pos.Z)
	if err != nil {
		return BlockState{}, err
	}
	return w.stateOf(idx), nil
}

// SetBlockState writes a block at pos. Missing properties take the catalog
// defaults; connecting blocks derive their n/e/s/w properties from their
// neighbors, and neighbors are refreshed in turn. Every resulting cell change
// is broadcast as a BLOCK_UPDATE.
func (w *World) SetBlockState(pos Vec3i, block string, props map[string]string) error {
	if !w.chunks.InBounds(pos.X, pos.Y, pos.Z) {
		return fmt.Errorf("%w: (%d,%d,%d)", ErrOutOfBounds, pos.X, pos.Y, pos.Z)
	}
	def, ok := w.catalogs.Blocks.Defs[block]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBlock, block)
	}
	merged, err := mergeProps(def, props)
	if err != nil {
		return fmt.Errorf("block %q: %w", block, err)
	}
	if def.Connects {
		for _, d := range connectDirs {
			n, err := w.BlockStateAt(add(pos, Vec3i{X: d.Dx, Z: d.Dz}))
			if err != nil {
				return err
			}
			merged[d.Name] = boolProp(n.Block == block)
		}
	}
	if err := w.setCell(pos, block, merged); err != nil {
		return err
	}
	w.refreshNeighbors(pos)
	w.scheduleUnsupported(pos)
	w.scheduleUnsupported(add(pos, Vec3i{Y: 1}))
	return nil
}

func mergeProps(def catalogs.BlockDef, props map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(def.Default)+len(props))
	for k, v := range def.Default {
		merged[k] = v
	}
	for k, v := range props {
		allowed, ok := def.Props[k]
		if !ok {
			return nil, fmt.Errorf("no property %q", k)
		}
		found := false
		for _, a := range allowed {
			if a == v {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("property %s=%q not allowed", k, v)
		}
		merged[k] = v
	}
	if len(merged) == 0 {
		return nil, nil
	}
	return merged, nil
}

func boolProp(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// setCell interns and writes one cell and broadcasts the change. It does not
// touch neighbors.
func (w *World) setCell(pos Vec3i, block string, props map[string]string) error {
	idx := w.internState(block, props)
	cur, err := w.chunks.GetBlock(pos.X, pos.Y, pos.Z)
	if err != nil {
		return err
	}
	if cur == idx {
		return nil
	}
	if err := w.chunks.SetBlock(pos.X, pos.Y, pos.Z, idx); err != nil {
		return err
	}
	w.broadcastBlockUpdate(pos, block, props)
	return nil
}

// refreshNeighbors recomputes the connect properties of the four horizontal
// neighbors of pos.
func (w *World) refreshNeighbors(pos Vec3i) {
	for _, d := range connectDirs {
		np := add(pos, Vec3i{X: d.Dx, Z: d.Dz})
		st, err := w.BlockStateAt(np)
		if err != nil {
			continue
		}
		def, ok := w.catalogs.Blocks.Defs[st.Block]
		if !ok || !def.Connects {
			continue
		}
		props := make(map[string]string, len(st.Props))
		for k, v := range st.Props {
			props[k] = v
		}
		for _, nd := range connectDirs {
			nn, err := w.BlockStateAt(add(np, Vec3i{X: nd.Dx, Z: nd.Dz}))
			if err != nil {
				continue
			}
			props[nd.Name] = boolProp(nn.Block == st.Block)
		}
		_ = w.setCell(np, st.Block, props)
	}
}

// scheduleUnsupported queues a gravity block at pos to fall on the next tick
// when the cell below it is not solid.
func (w *World) scheduleUnsupported(pos Vec3i) {
	st, err := w.BlockStateAt(pos)
	if err != nil {
		return
	}
	def, ok := w.catalogs.Blocks.Defs[st.Block]
	if !ok || !def.Gravity {
		return
	}
	below := add(pos, Vec3i{Y: -1})
	if !w.chunks.InBounds(below.X, below.Y, below.Z) {
		return
	}
	if w.solidAt(below) {
		return
	}
	next := w.tick.Load() + 1
	w.falls[next] = append(w.falls[next], pos)
}

func (w *World) solidAt(pos Vec3i) bool {
	st, err := w.BlockStateAt(pos)
	if err != nil {
		return true
	}
	def, ok := w.catalogs.Blocks.Defs[st.Block]
	if !ok {
		return true
	}
	return def.Solid
}

// applyGravity moves every block scheduled for nowTick down one cell,
// rescheduling blocks that are still unsupported.
func (w *World) applyGravity(nowTick uint64) {
	posns := w.falls[nowTick]
	if len(posns) == 0 {
		return
	}
	delete(w.falls, nowTick)
	for _, pos := range posns {
		st, err := w.BlockStateAt(pos)
		if err != nil {
			continue
		}
		def, ok := w.catalogs.Blocks.Defs[st.Block]
		if !ok || !def.Gravity {
			continue
		}
		below := add(pos, Vec3i{Y: -1})
		if !w.chunks.InBounds(below.X, below.Y, below.Z) || w.solidAt(below) {
			continue
		}
		if err := w.setCell(below, st.Block, st.Props); err != nil {
			continue
		}
		_ = w.setCell(pos, "AIR", nil)
		w.scheduleUnsupported(below)
		w.scheduleUnsupported(add(pos, Vec3i{Y: 1}))
	}
}
