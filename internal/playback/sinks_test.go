package playback

import (
	"errors"
	"testing"

	"tsunami/internal/shallow"
)

func TestSinksPublishOrderAndError(t *testing.T) {
	var order []string
	boom := errors.New("disk full")
	s := NewSinks("a")
	s.Add(func(shallow.Snapshot) error { order = append(order, "first"); return nil }, nil)
	s.Add(func(shallow.Snapshot) error { order = append(order, "second"); return boom }, nil)
	s.Add(func(shallow.Snapshot) error { order = append(order, "third"); return nil }, nil)

	if err := s.Publish(shallow.Snapshot{}); !errors.Is(err, boom) {
		t.Fatalf("Publish = %v, want %v", err, boom)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
}

func TestSinksRetag(t *testing.T) {
	var ids []string
	var steps []int
	s := NewSinks("a")
	s.Add(func(snap shallow.Snapshot) error { steps = append(steps, snap.Step); return nil },
		func(id string) { ids = append(ids, id) })
	s.Add(func(shallow.Snapshot) error { return nil }, nil)

	if err := s.Retag("b", shallow.Snapshot{Step: 0}); err != nil {
		t.Fatal(err)
	}
	if s.RunID() != "b" || len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("run id %q, retag calls %v", s.RunID(), ids)
	}
	if len(steps) != 1 || steps[0] != 0 {
		t.Fatalf("retag did not publish the fresh state: %v", steps)
	}
}
