// Package treeviz renders a search.Search's tree for debugging: DOT renders
// to Graphviz source via search.Search.Snapshot, and PNG rasterizes a small
// legend overlay on top of whatever the caller does with that DOT source.
// Neither function ever touches the Search or batch.Driver that produced the
// snapshot - a tree is walked once, copied out, and treeviz never looks back.
package treeviz

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"

	"github.com/as3richa/alpha3/search"
)

// Options controls how much of a snapshot DOT renders.
type Options struct {
	// Name is the graph's name; defaults to "tree" when empty.
	Name string
	// MaxDepth bounds how many levels below the root are rendered; zero
	// means unbounded.
	MaxDepth int
	// MoveLabel formats a move for display. Defaults to fmt.Sprint.
	MoveLabel func(move any) string
}

// DOT walks s's current tree via Snapshot and renders it as Graphviz source,
// labeling every node with its visit count, mean action value (Q), and
// prior, and every edge with the move that reaches the child.
func DOT[S any, M comparable](s *search.Search[S, M], opts Options) (string, error) {
	name := opts.Name
	if name == "" {
		name = "tree"
	}
	labelMove := opts.MoveLabel
	if labelMove == nil {
		labelMove = func(m any) string { return fmt.Sprint(m) }
	}

	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return "", errors.Wrap(err, "treeviz: setting graph name")
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.Wrap(err, "treeviz: setting graph direction")
	}

	root := s.Snapshot()
	if err := addNode[S, M](g, &root, "n0", 0, opts.MaxDepth, labelMove); err != nil {
		return "", err
	}
	return g.String(), nil
}

func addNode[S any, M comparable](g *gographviz.Graph, n *search.NodeView[S, M], id string, depth, maxDepth int, labelMove func(any) string) error {
	q := 0.0
	if n.Visits > 0 {
		q = n.TotalAV / float64(n.Visits)
	}
	label := fmt.Sprintf("%v\\nn=%d\\nQ=%.3f\\np=%.3f", n.State, n.Visits, q, n.Prior)
	attrs := map[string]string{"label": fmt.Sprintf("%q", label)}
	if err := g.AddNode(g.Name, id, attrs); err != nil {
		return errors.Wrapf(err, "treeviz: adding node %s", id)
	}

	if maxDepth > 0 && depth >= maxDepth {
		return nil
	}

	for i := range n.Children {
		child := &n.Children[i]
		childID := fmt.Sprintf("%s_%d", id, i)
		if err := addNode[S, M](g, child, childID, depth+1, maxDepth, labelMove); err != nil {
			return err
		}
		edgeAttrs := map[string]string{"label": fmt.Sprintf("%q", labelMove(child.Move))}
		if err := g.AddEdge(id, childID, true, edgeAttrs); err != nil {
			return errors.Wrapf(err, "treeviz: adding edge %s->%s", id, childID)
		}
	}
	return nil
}
