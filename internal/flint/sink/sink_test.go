package sink

import (
	"bytes"
	"fmt"
	"testing"
)

func TestOrderAndDuplicates(t *testing.T) {
	s := New()
	s.Record([]byte("a"))
	s.Record([]byte("b"))
	s.Record([]byte("a"))
	got := s.Drain()
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "a"} {
		if string(got[i]) != want {
			t.Fatalf("msg %d = %q, want %q", i, got[i], want)
		}
	}
}

func TestDrainClears(t *testing.T) {
	s := New()
	s.Record([]byte("x"))
	if n := len(s.Drain()); n != 1 {
		t.Fatalf("first drain: %d", n)
	}
	if n := len(s.Drain()); n != 0 {
		t.Fatalf("second drain: %d, want 0", n)
	}
}

func TestSnapshotDoesNotClear(t *testing.T) {
	s := New()
	s.Record([]byte("x"))
	if n := len(s.Snapshot()); n != 1 {
		t.Fatalf("snapshot: %d", n)
	}
	if s.Len() != 1 {
		t.Fatalf("len after snapshot: %d", s.Len())
	}
}

func TestRecordCopies(t *testing.T) {
	s := New()
	buf := []byte("orig")
	s.Record(buf)
	copy(buf, "XXXX")
	got := s.Drain()
	if !bytes.Equal(got[0], []byte("orig")) {
		t.Fatalf("captured message mutated: %q", got[0])
	}
}

func TestConcurrentRecord(t *testing.T) {
	s := New()
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			for i := 0; i < 100; i++ {
				s.Record([]byte(fmt.Sprintf("%d-%d", g, i)))
			}
			done <- struct{}{}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
	if s.Len() != 400 {
		t.Fatalf("len=%d, want 400", s.Len())
	}
}
