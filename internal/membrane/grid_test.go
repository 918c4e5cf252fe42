package membrane

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name string
		side int
		ok   bool
	}{
		{"minimum", 3, true},
		{"default", DefaultSide, true},
		{"too small", 2, false},
		{"zero", 0, false},
		{"negative", -4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGrid(tt.side)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if g.Len() != tt.side*tt.side {
					t.Errorf("Len() = %d, want %d", g.Len(), tt.side*tt.side)
				}
				return
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestGridNeighbors(t *testing.T) {
	g, _ := NewGrid(4)

	tests := []struct {
		name string
		idx  int
		want []int
	}{
		{"top-left corner", 0, []int{1, 4}},
		{"interior", 5, []int{1, 4, 6, 9}},
		{"column zero wraps to previous row", 4, []int{0, 3, 5, 8}},
		{"last column wraps to next row", 7, []int{3, 6, 8, 11}},
		{"bottom-right corner", 15, []int{11, 14}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Neighbors(tt.idx)
			if len(got) != len(tt.want) {
				t.Fatalf("Neighbors(%d) = %v, want %v", tt.idx, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Neighbors(%d) = %v, want %v", tt.idx, got, tt.want)
					break
				}
			}
		})
	}
}

func TestGridCopyFromMismatch(t *testing.T) {
	a, _ := NewGrid(4)
	b, _ := NewGrid(5)
	if err := a.CopyFrom(b); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 63, 64, 65, 1000, 4097} {
		hits := make([]int32, n)
		ParallelFor(n, 4, 16, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestGuardCheck(t *testing.T) {
	g, _ := NewGrid(3)
	g.Nodes[4].Velocity = 50

	_, idx, err := Guard{Bound: 10, Policy: PolicyError}.Check(g)
	if !errors.Is(err, ErrNumericInstability) {
		t.Fatalf("expected ErrNumericInstability, got %v", err)
	}
	if idx != 4 {
		t.Errorf("index = %d, want 4", idx)
	}
	if g.Nodes[4].Velocity != 50 {
		t.Error("error policy must not modify the grid")
	}

	clamped, _, err := Guard{Bound: 10, Policy: PolicyClamp}.Check(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clamped != 1 || g.Nodes[4].Velocity != 10 {
		t.Errorf("clamped=%d velocity=%f, want 1 and 10", clamped, g.Nodes[4].Velocity)
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyError {
		t.Errorf("ParsePolicy(\"\") = %q, %v", p, err)
	}
	if p, err := ParsePolicy("clamp"); err != nil || p != PolicyClamp {
		t.Errorf("ParsePolicy(clamp) = %q, %v", p, err)
	}
	if _, err := ParsePolicy("ignore"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestSeed(t *testing.T) {
	a, _ := NewGrid(16)
	b, _ := NewGrid(16)
	if err := Seed(a, InitNoise, 42, 0.5); err != nil {
		t.Fatal(err)
	}
	if err := Seed(b, InitNoise, 42, 0.5); err != nil {
		t.Fatal(err)
	}

	nonZero := false
	for i := range a.Nodes {
		if a.Nodes[i] != b.Nodes[i] {
			t.Fatalf("seeding is not deterministic at node %d", i)
		}
		if a.Nodes[i].Height != 0 {
			nonZero = true
		}
		if a.Nodes[i].Velocity != 0 {
			t.Fatalf("node %d seeded with velocity", i)
		}
	}
	if !nonZero {
		t.Error("noise seeding produced a flat grid")
	}

	if err := Seed(a, InitFlat, 0, 0); err != nil {
		t.Fatal(err)
	}
	for i, n := range a.Nodes {
		if n != (Node{}) {
			t.Fatalf("flat seed left node %d at %+v", i, n)
		}
	}

	if err := Seed(a, "ripples", 0, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestTickErrorMessage(t *testing.T) {
	err := &TickError{Tick: 3, Time: 0.3, Index: 17, Wrapped: ErrNumericInstability}
	want := "tick 3 (t=0.3000) node 17: membrane: numeric instability (state diverged)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrNumericInstability) {
		t.Error("TickError must unwrap to its cause")
	}
}
