package treestats

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeID identifies a node in a tree sequence. Valid IDs lie in
// [0, NumNodes); NullNode marks an absent parent, child or sibling.
type NodeID int32

// NullNode is the NodeID of a missing node.
const NullNode NodeID = -1

// NullMutation marks a mutation without a parent mutation.
const NullMutation = -1

// NodeIsSample is the node flag marking sample nodes.
const NodeIsSample uint32 = 1

// Node is a row of the node table.
type Node struct {
	Flags uint32
	Time  float64
}

// Edge is a row of the edge table: Parent is the parent of Child over the
// half-open genomic interval [Left, Right).
type Edge struct {
	Left   float64
	Right  float64
	Parent NodeID
	Child  NodeID
}

// Site is a row of the site table.
type Site struct {
	Position       float64
	AncestralState string
}

// Mutation is a row of the mutation table. Parent is the index of the mutation
// this one is nested under at the same site, or NullMutation.
type Mutation struct {
	Site         int
	Node         NodeID
	DerivedState string
	Parent       int
}

// TableCollection holds the raw tables a TreeSequence is built from.
// Sites must be sorted by position and the mutations of a site listed so that
// a parent mutation precedes its children.
type TableCollection struct {
	SequenceLength float64
	Nodes          []Node
	Edges          []Edge
	Sites          []Site
	Mutations      []Mutation
}

// tablesFile is the YAML layout read by ReadTables.
type tablesFile struct {
	SequenceLength float64 `yaml:"sequence_length"`
	Nodes          []struct {
		Flags uint32  `yaml:"flags"`
		Time  float64 `yaml:"time"`
	} `yaml:"nodes"`
	Edges []struct {
		Left     float64  `yaml:"left"`
		Right    float64  `yaml:"right"`
		Parent   NodeID   `yaml:"parent"`
		Child    NodeID   `yaml:"child"`
		Children []NodeID `yaml:"children"`
	} `yaml:"edges"`
	Sites []struct {
		Position       float64 `yaml:"position"`
		AncestralState string  `yaml:"ancestral_state"`
	} `yaml:"sites"`
	Mutations []struct {
		Site         int    `yaml:"site"`
		Node         NodeID `yaml:"node"`
		DerivedState string `yaml:"derived_state"`
		Parent       *int   `yaml:"parent"`
	} `yaml:"mutations"`
}

// ReadTables decodes a YAML table collection. An edge row may list several
// children, which expands into one edge per child. A mutation without a
// parent field has no parent.
func ReadTables(r io.Reader) (*TableCollection, error) {
	var f tablesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("treestats: decoding tables: %w", err)
	}

	tables := &TableCollection{SequenceLength: f.SequenceLength}
	for _, n := range f.Nodes {
		tables.Nodes = append(tables.Nodes, Node{Flags: n.Flags, Time: n.Time})
	}
	for _, e := range f.Edges {
		children := e.Children
		if len(children) == 0 {
			children = []NodeID{e.Child}
		}
		for _, c := range children {
			tables.Edges = append(tables.Edges, Edge{Left: e.Left, Right: e.Right, Parent: e.Parent, Child: c})
		}
	}
	for _, s := range f.Sites {
		tables.Sites = append(tables.Sites, Site{Position: s.Position, AncestralState: s.AncestralState})
	}
	for _, m := range f.Mutations {
		parent := NullMutation
		if m.Parent != nil {
			parent = *m.Parent
		}
		tables.Mutations = append(tables.Mutations, Mutation{
			Site:         m.Site,
			Node:         m.Node,
			DerivedState: m.DerivedState,
			Parent:       parent,
		})
	}
	return tables, nil
}

// LoadTables reads a YAML table collection from path.
func LoadTables(path string) (*TableCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("treestats: %w", err)
	}
	defer f.Close()
	return ReadTables(f)
}
