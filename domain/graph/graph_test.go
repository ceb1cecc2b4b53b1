package graph

import (
	"strings"
	"testing"
)

func pipeline(t *testing.T) *Graph {
	t.Helper()
	g := New("g-1")
	a := g.AddNode("loader")
	b := g.AddNode("extractor")
	c := g.AddNode("scorer")
	if err := g.AddEdge(a, b, "feeds", "rows/v1"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge(b, c, "feeds", "spans/v1"); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGraph_ValidateAcceptsDAG(t *testing.T) {
	g := pipeline(t)
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestGraph_ValidateRejectsCycle(t *testing.T) {
	g := pipeline(t)
	if err := g.AddEdge(2, 0, "feeds", "loop"); err != nil {
		t.Fatal(err)
	}
	err := g.Validate()
	if err == nil {
		t.Fatal("expected cycle rejection")
	}
	if !strings.Contains(err.Error(), "DAG") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGraph_ValidateRejectsDecodedArenaViolations(t *testing.T) {
	// Graphs arriving over the wire are built by json.Unmarshal, not by
	// AddNode/AddEdge, so Validate must reject broken arenas with ordinary
	// errors rather than panicking inside the gonum view.
	tests := []struct {
		name string
		g    Graph
	}{
		{
			name: "duplicate node ids",
			g: Graph{ID: "g-wire", Nodes: []Node{
				{ID: 0, Method: "a"}, {ID: 0, Method: "b"},
			}},
		},
		{
			name: "node id not matching position",
			g: Graph{ID: "g-wire", Nodes: []Node{
				{ID: 1, Method: "a"},
			}},
		},
		{
			name: "self-edge",
			g: Graph{
				ID:    "g-wire",
				Nodes: []Node{{ID: 0, Method: "a"}},
				Edges: []Edge{{From: 0, To: 0, Kind: "feeds"}},
			},
		},
		{
			name: "negative node id",
			g: Graph{ID: "g-wire", Nodes: []Node{
				{ID: -1, Method: "a"},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.g.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGraph_AddEdgeRejectsSelfAndUnknown(t *testing.T) {
	g := pipeline(t)
	if err := g.AddEdge(0, 0, "feeds", ""); err == nil {
		t.Error("expected self-edge rejection")
	}
	if err := g.AddEdge(0, 99, "feeds", ""); err == nil {
		t.Error("expected unknown-endpoint rejection")
	}
}

func TestGraph_InterplayMembershipExclusive(t *testing.T) {
	g := pipeline(t)
	g.Interplays = []Interplay{
		{ID: "ip-a", Members: []NodeID{0, 1}},
		{ID: "ip-b", Members: []NodeID{1, 2}},
	}
	if err := g.Validate(); err == nil {
		t.Fatal("expected rejection of overlapping interplay membership")
	}

	g.Interplays = []Interplay{
		{ID: "ip-a", Members: []NodeID{0, 1}},
		{ID: "ip-b", Members: []NodeID{2}},
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}

	ip, ok := g.InterplayOf(1)
	if !ok || ip.ID != "ip-a" {
		t.Errorf("InterplayOf(1) = %v %v", ip, ok)
	}
	if _, ok := g.InterplayOf(99); ok {
		t.Error("unknown node should not resolve to an interplay")
	}
}

func TestGraph_ValidateRejectsBadInterplays(t *testing.T) {
	g := pipeline(t)
	g.Interplays = []Interplay{{ID: "ip-empty"}}
	if err := g.Validate(); err == nil {
		t.Error("expected rejection of memberless interplay")
	}
	g.Interplays = []Interplay{{ID: "ip-ghost", Members: []NodeID{42}}}
	if err := g.Validate(); err == nil {
		t.Error("expected rejection of unknown interplay member")
	}
}

func TestGraph_HashDeterministic(t *testing.T) {
	// The hash depends on content, not construction order.
	a := New("g-h")
	a.AddNode("loader")
	a.AddNode("scorer")
	_ = a.AddEdge(0, 1, "feeds", "rows/v1")
	_ = a.AddEdge(1, 0, "backref", "ids/v1") // order of Edges differs below

	b := New("g-h")
	b.AddNode("loader")
	b.AddNode("scorer")
	_ = b.AddEdge(1, 0, "backref", "ids/v1")
	_ = b.AddEdge(0, 1, "feeds", "rows/v1")

	if a.Hash() != b.Hash() {
		t.Error("edge insertion order must not change the hash")
	}
}

func TestGraph_HashSensitivity(t *testing.T) {
	a := pipeline(t)
	b := pipeline(t)
	if a.Hash() != b.Hash() {
		t.Fatal("identical graphs must hash identically")
	}

	n, _ := b.Node(1)
	n.ConceptTags = []string{"entity"}
	_ = b.SetNode(n)
	if a.Hash() == b.Hash() {
		t.Error("changing node content must change the hash")
	}
}

func TestGraph_InboundEdges(t *testing.T) {
	g := pipeline(t)
	in := g.InboundEdges(2)
	if len(in) != 1 || in[0].From != 1 {
		t.Errorf("InboundEdges(2) = %v", in)
	}
	if len(g.InboundEdges(0)) != 0 {
		t.Error("source node should have no inbound edges")
	}
}
