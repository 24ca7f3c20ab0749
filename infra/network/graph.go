package network

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kilianp07/ridepool/core/model"
	corenetwork "github.com/kilianp07/ridepool/core/network"
)

// Edge is a directed road segment with its traversal time in seconds.
type Edge struct {
	From    int64   `yaml:"from" json:"from"`
	To      int64   `yaml:"to" json:"to"`
	Seconds float64 `yaml:"seconds" json:"seconds"`
	// Bidirectional adds the reverse segment with the same time.
	Bidirectional bool `yaml:"bidirectional" json:"bidirectional"`
}

// GraphOracle computes shortest paths on a weighted road graph. Single-source
// shortest-path trees are computed on first use and cached.
type GraphOracle struct {
	g *simple.WeightedDirectedGraph

	mu    sync.RWMutex
	trees map[int64]path.Shortest
}

// NewGraphOracle builds the road graph from edges.
func NewGraphOracle(edges []Edge) (*GraphOracle, error) {
	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	add := func(from, to int64, w float64) {
		if g.Node(from) == nil {
			g.AddNode(simple.Node(from))
		}
		if g.Node(to) == nil {
			g.AddNode(simple.Node(to))
		}
		if from == to {
			return
		}
		if e := g.WeightedEdge(from, to); e != nil && e.Weight() <= w {
			return
		}
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(from), simple.Node(to), w))
	}
	for i, e := range edges {
		if e.Seconds < 0 || math.IsNaN(e.Seconds) {
			return nil, fmt.Errorf("edge %d: invalid travel time %v", i, e.Seconds)
		}
		add(e.From, e.To, e.Seconds)
		if e.Bidirectional {
			add(e.To, e.From, e.Seconds)
		}
	}
	return &GraphOracle{g: g, trees: make(map[int64]path.Shortest)}, nil
}

// Nodes returns the number of nodes in the road graph.
func (o *GraphOracle) Nodes() int { return o.g.Nodes().Len() }

func (o *GraphOracle) tree(from model.Location) (path.Shortest, error) {
	id := int64(from)
	o.mu.RLock()
	t, ok := o.trees[id]
	o.mu.RUnlock()
	if ok {
		return t, nil
	}
	n := o.g.Node(id)
	if n == nil {
		return path.Shortest{}, fmt.Errorf("%w: %d", corenetwork.ErrUnknownLocation, from)
	}
	t = path.DijkstraFrom(n, o.g)
	o.mu.Lock()
	o.trees[id] = t
	o.mu.Unlock()
	return t, nil
}

func (o *GraphOracle) TravelTime(a, b model.Location) (time.Duration, error) {
	if a == b {
		if o.g.Node(int64(a)) == nil {
			return 0, fmt.Errorf("%w: %d", corenetwork.ErrUnknownLocation, a)
		}
		return 0, nil
	}
	t, err := o.tree(a)
	if err != nil {
		return 0, err
	}
	if o.g.Node(int64(b)) == nil {
		return 0, fmt.Errorf("%w: %d", corenetwork.ErrUnknownLocation, b)
	}
	w := t.WeightTo(int64(b))
	if math.IsInf(w, 1) {
		return 0, fmt.Errorf("%w: %d -> %d", corenetwork.ErrUnreachable, a, b)
	}
	return secondsToDuration(w), nil
}

func (o *GraphOracle) RouteThrough(locs []model.Location) (time.Duration, error) {
	return corenetwork.SumLegs(o, locs)
}

func (o *GraphOracle) ShortestPath(a, b model.Location) ([]model.Location, error) {
	if a == b {
		if o.g.Node(int64(a)) == nil {
			return nil, fmt.Errorf("%w: %d", corenetwork.ErrUnknownLocation, a)
		}
		return []model.Location{a}, nil
	}
	t, err := o.tree(a)
	if err != nil {
		return nil, err
	}
	if o.g.Node(int64(b)) == nil {
		return nil, fmt.Errorf("%w: %d", corenetwork.ErrUnknownLocation, b)
	}
	nodes, w := t.To(int64(b))
	if len(nodes) == 0 || math.IsInf(w, 1) {
		return nil, fmt.Errorf("%w: %d -> %d", corenetwork.ErrUnreachable, a, b)
	}
	return toLocations(nodes), nil
}

func toLocations(nodes []graph.Node) []model.Location {
	out := make([]model.Location, len(nodes))
	for i, n := range nodes {
		out[i] = model.Location(n.ID())
	}
	return out
}
