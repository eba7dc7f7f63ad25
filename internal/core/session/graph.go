package session

import (
	"fmt"

	"github.com/forklab-edu/forklab/internal/core/challenge"
	"github.com/forklab-edu/forklab/pkg/types"
)

// BuildGraph converts a snapshot into the node/edge form the tree
// visualization renders, nodes in creation order.
func BuildGraph(snap *types.TreeSnapshot) *types.TreeGraphData {
	graph := &types.TreeGraphData{
		Nodes: make([]types.TreeGraphNode, 0, snap.Len()),
		Edges: make([]types.TreeGraphEdge, 0),
		Stats: challenge.CollectStats(snap),
	}

	for _, id := range snap.Order {
		node := snap.Node(id)

		label := fmt.Sprintf("PID %d", node.PID)
		if id == snap.RootID {
			label = fmt.Sprintf("init (PID %d)", node.PID)
		}

		graph.Nodes = append(graph.Nodes, types.TreeGraphNode{
			ID:        node.ID,
			Label:     label,
			PID:       node.PID,
			PPID:      node.PPID,
			State:     node.State,
			Orphaned:  node.Orphaned,
			Depth:     node.Depth,
			ForkLevel: node.ForkLevel,
		})

		if node.ParentID != "" {
			graph.Edges = append(graph.Edges, types.TreeGraphEdge{
				ID:     fmt.Sprintf("%s->%s", node.ParentID, node.ID),
				Source: node.ParentID,
				Target: node.ID,
			})
		}
	}

	return graph
}
