package graph

import (
	"errors"
	"testing"
)

type stubSource struct {
	edges []Edge
	err   error
}

func (s *stubSource) DependencyEdges() ([]Edge, error) {
	return s.edges, s.err
}

func validator(edges ...Edge) *Validator {
	return NewValidator(&stubSource{edges: edges})
}

func TestWouldCreateCycleSelfEdge(t *testing.T) {
	v := validator()
	cyclic, err := v.WouldCreateCycle(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !cyclic {
		t.Error("self-edge must be rejected as a trivial cycle")
	}
}

func TestWouldCreateCycleChain(t *testing.T) {
	// A depends on B, B depends on C
	v := validator(Edge{1, 2}, Edge{2, 3})

	// C -> A closes A -> B -> C -> A
	cyclic, err := v.WouldCreateCycle(3, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !cyclic {
		t.Error("C -> A should close a cycle")
	}

	// C -> unrelated sibling is fine
	cyclic, err = v.WouldCreateCycle(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if cyclic {
		t.Error("edge to unrelated task flagged as cyclic")
	}

	// Shorter cycles too
	cyclic, _ = v.WouldCreateCycle(2, 1)
	if !cyclic {
		t.Error("B -> A should close A -> B -> A")
	}

	// The forward direction that merely extends the chain is fine
	cyclic, _ = v.WouldCreateCycle(1, 3)
	if cyclic {
		t.Error("A -> C extends the DAG, no cycle")
	}
}

func TestWouldCreateCycleDiamond(t *testing.T) {
	// 1 -> {2, 3} -> 4: a diamond is still acyclic
	v := validator(Edge{1, 2}, Edge{1, 3}, Edge{2, 4}, Edge{3, 4})

	cyclic, err := v.WouldCreateCycle(4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !cyclic {
		t.Error("4 -> 1 closes a cycle through either branch")
	}

	cyclic, _ = v.WouldCreateCycle(2, 3)
	if cyclic {
		t.Error("cross edge 2 -> 3 is acyclic")
	}
}

func TestCircularDependencies(t *testing.T) {
	// 1 -> 2 -> 3 -> 1 is a stored cycle; 4 hangs off it; 5 is separate
	v := validator(Edge{1, 2}, Edge{2, 3}, Edge{3, 1}, Edge{2, 4}, Edge{5, 4})

	cycle, err := v.CircularDependencies(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycle) != 2 || cycle[0] != 2 || cycle[1] != 3 {
		t.Errorf("cycle through 1 = %v, want [2 3]", cycle)
	}

	// 4 is forward-reachable from 1 but never reaches back
	for _, id := range cycle {
		if id == 4 {
			t.Error("dead-end node reported as cyclic")
		}
	}

	cycle, err = v.CircularDependencies(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(cycle) != 0 {
		t.Errorf("acyclic node reported cycle %v", cycle)
	}
}

func TestValidatorPropagatesSourceError(t *testing.T) {
	wantErr := errors.New("source broken")
	v := NewValidator(&stubSource{err: wantErr})

	if _, err := v.WouldCreateCycle(1, 2); !errors.Is(err, wantErr) {
		t.Errorf("WouldCreateCycle err = %v, want source error", err)
	}
	if _, err := v.CircularDependencies(1); !errors.Is(err, wantErr) {
		t.Errorf("CircularDependencies err = %v, want source error", err)
	}
}
