// Package sink captures outbound protocol messages in memory so tests can
// assert on them. A PacketSink stands in for a client connection.
package sink

import "sync"

// PacketSink is an append-only, ordered capture buffer. Record never blocks
// and never fails; duplicates are kept; nothing is coalesced. One sink is
// owned by exactly one test player.
type PacketSink struct {
	mu   sync.Mutex
	msgs [][]byte
}

func New() *PacketSink { return &PacketSink{} }

// Record appends a copy of b. The copy matters: the engine reuses buffers.
func (s *PacketSink) Record(b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	s.mu.Lock()
	s.msgs = append(s.msgs, cp)
	s.mu.Unlock()
}

// Deliver implements the engine's client connection seam.
func (s *PacketSink) Deliver(b []byte) { s.Record(b) }

// Close implements the connection seam. The captured messages stay readable.
func (s *PacketSink) Close() {}

// Drain returns every captured message in emission order and clears the
// sink.
func (s *PacketSink) Drain() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.msgs
	s.msgs = nil
	return out
}

// Snapshot returns the captured messages without clearing them.
func (s *PacketSink) Snapshot() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *PacketSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}
