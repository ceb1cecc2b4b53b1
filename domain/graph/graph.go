// Package graph models the computation graph a calibration subject lives in.
// Nodes are stored arena-style and referenced by opaque integer ids, so the
// structure stays serializable and hashable; there are no native object
// back-references.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"calengine/domain/core"
)

// NodeID is an opaque arena index. Ids are assigned by AddNode and never
// reused within one graph.
type NodeID int64

// Node is one method instance inside the computation graph.
type Node struct {
	ID          NodeID        `json:"id"`
	Method      core.MethodID `json:"method"`
	ConceptTags []string      `json:"concept_tags,omitempty"`
	OutputRange string        `json:"output_range,omitempty"` // e.g. "[0,1]"
	InputSchema string        `json:"input_schema,omitempty"`
}

// EdgeKind is the declared type of a data-flow edge.
type EdgeKind string

// Edge is a typed data-flow edge between two arena nodes.
type Edge struct {
	From   NodeID   `json:"from"`
	To     NodeID   `json:"to"`
	Kind   EdgeKind `json:"kind"`
	Schema string   `json:"schema,omitempty"`
}

// Interplay is the subset of nodes jointly contributing to one fused output.
type Interplay struct {
	ID             string   `json:"id"`
	Members        []NodeID `json:"members"`
	FusionRule     string   `json:"fusion_rule,omitempty"`
	RequiredInputs []string `json:"required_inputs,omitempty"`
	// RangeTransforms maps "rangeA->rangeB" to a declared conversion name.
	// Members with differing output ranges are still scale-congruent when a
	// transform between their ranges is declared.
	RangeTransforms map[string]string `json:"range_transforms,omitempty"`
}

// Graph is the arena. Construct with New, populate with AddNode/AddEdge,
// then Validate before use; a validated graph is treated as immutable.
type Graph struct {
	ID         core.GraphID `json:"id"`
	Nodes      []Node       `json:"nodes"`
	Edges      []Edge       `json:"edges"`
	Interplays []Interplay  `json:"interplays,omitempty"`
}

// New creates an empty graph.
func New(id core.GraphID) *Graph {
	return &Graph{ID: id}
}

// AddNode appends a node to the arena and returns its id.
func (g *Graph) AddNode(method core.MethodID) NodeID {
	id := NodeID(len(g.Nodes))
	g.Nodes = append(g.Nodes, Node{ID: id, Method: method})
	return id
}

// AddEdge appends a typed edge. Endpoints must already exist.
func (g *Graph) AddEdge(from, to NodeID, kind EdgeKind, schema string) error {
	if !g.hasNode(from) || !g.hasNode(to) {
		return fmt.Errorf("edge %d->%d references unknown node", from, to)
	}
	if from == to {
		return fmt.Errorf("self-edge on node %d", from)
	}
	g.Edges = append(g.Edges, Edge{From: from, To: to, Kind: kind, Schema: schema})
	return nil
}

// Node returns the node for id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if !g.hasNode(id) {
		return Node{}, false
	}
	return g.Nodes[int(id)], true
}

// SetNode replaces the stored node for n.ID.
func (g *Graph) SetNode(n Node) error {
	if !g.hasNode(n.ID) {
		return fmt.Errorf("unknown node %d", n.ID)
	}
	g.Nodes[int(n.ID)] = n
	return nil
}

// InboundEdges returns all edges terminating at id.
func (g *Graph) InboundEdges(id NodeID) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.To == id {
			in = append(in, e)
		}
	}
	return in
}

// InterplayOf returns the interplay containing node id, if any. A node
// belongs to at most one interplay; Validate enforces that.
func (g *Graph) InterplayOf(id NodeID) (Interplay, bool) {
	for _, ip := range g.Interplays {
		for _, m := range ip.Members {
			if m == id {
				return ip, true
			}
		}
	}
	return Interplay{}, false
}

// Validate checks structural integrity: arena ids matching positions, edge
// endpoints in range, no self-edges, acyclicity (via a gonum directed view
// and topological sort), and interplay membership. Wire-decoded graphs bypass
// AddNode/AddEdge, so the arena invariants are re-checked here; the gonum
// view panics on id collisions and self-edges otherwise.
func (g *Graph) Validate() error {
	for i, n := range g.Nodes {
		if n.ID != NodeID(i) {
			return fmt.Errorf("node at position %d carries id %d; arena ids must equal positions", i, n.ID)
		}
	}
	for _, e := range g.Edges {
		if !g.hasNode(e.From) || !g.hasNode(e.To) {
			return fmt.Errorf("edge %d->%d references unknown node", e.From, e.To)
		}
		if e.From == e.To {
			return fmt.Errorf("self-edge on node %d", e.From)
		}
	}

	dg := simple.NewDirectedGraph()
	for _, n := range g.Nodes {
		dg.AddNode(simple.Node(n.ID))
	}
	for _, e := range g.Edges {
		dg.SetEdge(simple.Edge{F: simple.Node(e.From), T: simple.Node(e.To)})
	}
	if _, err := topo.Sort(dg); err != nil {
		return fmt.Errorf("computation graph is not a DAG: %w", err)
	}

	seen := make(map[NodeID]string)
	for _, ip := range g.Interplays {
		if len(ip.Members) == 0 {
			return fmt.Errorf("interplay %s has no members", ip.ID)
		}
		for _, m := range ip.Members {
			if !g.hasNode(m) {
				return fmt.Errorf("interplay %s references unknown node %d", ip.ID, m)
			}
			if prev, dup := seen[m]; dup {
				return fmt.Errorf("node %d in interplays %s and %s", m, prev, ip.ID)
			}
			seen[m] = ip.ID
		}
	}
	return nil
}

// CanonicalString renders the graph deterministically: nodes by id, edges
// sorted by (from,to,kind), interplays by id with sorted members.
func (g *Graph) CanonicalString() string {
	var b strings.Builder
	b.WriteString("graph:")
	b.WriteString(g.ID.String())

	for _, n := range g.Nodes {
		tags := append([]string(nil), n.ConceptTags...)
		sort.Strings(tags)
		fmt.Fprintf(&b, "|n%d:%s:%s:%s:%s", n.ID, n.Method, strings.Join(tags, ","), n.OutputRange, n.InputSchema)
	}

	edges := append([]Edge(nil), g.Edges...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Kind < edges[j].Kind
	})
	for _, e := range edges {
		fmt.Fprintf(&b, "|e%d>%d:%s:%s", e.From, e.To, e.Kind, e.Schema)
	}

	ips := append([]Interplay(nil), g.Interplays...)
	sort.Slice(ips, func(i, j int) bool { return ips[i].ID < ips[j].ID })
	for _, ip := range ips {
		members := append([]NodeID(nil), ip.Members...)
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		parts := make([]string, len(members))
		for i, m := range members {
			parts[i] = fmt.Sprintf("%d", m)
		}
		req := append([]string(nil), ip.RequiredInputs...)
		sort.Strings(req)
		transforms := make(map[string]string, len(ip.RangeTransforms))
		for k, v := range ip.RangeTransforms {
			transforms[k] = v
		}
		fmt.Fprintf(&b, "|i%s:%s:%s:%s:%s",
			ip.ID, strings.Join(parts, ","), ip.FusionRule,
			strings.Join(req, ","), core.CanonicalMapString(transforms))
	}
	return b.String()
}

// Hash returns the deterministic graph hash used in audit trails.
func (g *Graph) Hash() core.GraphHash {
	return core.NewGraphHash([]byte(g.CanonicalString()))
}

func (g *Graph) hasNode(id NodeID) bool {
	return id >= 0 && int(id) < len(g.Nodes)
}
