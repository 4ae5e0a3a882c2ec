package autolayout

import "sort"

// sweeps is the number of down-and-up barycentre passes.
const sweeps = 4

// neighbours holds deduplicated adjacency in both directions.
type neighbours struct {
	out map[string][]string
	in  map[string][]string
}

func newNeighbours(g Graph) neighbours {
	nb := neighbours{
		out: make(map[string][]string, len(g.Nodes)),
		in:  make(map[string][]string, len(g.Nodes)),
	}
	seen := make(map[Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		if e.Source == e.Target || seen[e] {
			continue
		}
		seen[e] = true
		nb.out[e.Source] = append(nb.out[e.Source], e.Target)
		nb.in[e.Target] = append(nb.in[e.Target], e.Source)
	}
	return nb
}

// orderLayers reorders nodes within each layer to reduce edge crossings
// using the barycentre heuristic. The best ordering seen is kept, so the
// result never has more crossings than the input.
func orderLayers(layers [][]string, nb neighbours) [][]string {
	if len(layers) <= 1 {
		return layers
	}

	cur := make([][]string, len(layers))
	for i := range layers {
		cur[i] = append([]string(nil), layers[i]...)
	}
	pos := make(map[string]float64)
	for _, layer := range cur {
		for i, id := range layer {
			pos[id] = float64(i)
		}
	}

	best := cloneLayers(cur)
	bestCross := totalCrossings(cur, nb)

	for s := 0; s < sweeps && bestCross > 0; s++ {
		for l := 1; l < len(cur); l++ {
			sortByBarycentre(cur[l], nb.in, pos)
		}
		for l := len(cur) - 2; l >= 0; l-- {
			sortByBarycentre(cur[l], nb.out, pos)
		}
		if c := totalCrossings(cur, nb); c < bestCross {
			best, bestCross = cloneLayers(cur), c
		}
	}
	return best
}

// sortByBarycentre orders layer by the mean position of each node's
// neighbours in adj, then updates pos. Nodes without neighbours keep
// their position; ties fall back to id order.
func sortByBarycentre(layer []string, adj map[string][]string, pos map[string]float64) {
	bary := make(map[string]float64, len(layer))
	for _, id := range layer {
		sum, n := 0.0, 0
		for _, other := range adj[id] {
			if p, ok := pos[other]; ok {
				sum += p
				n++
			}
		}
		if n > 0 {
			bary[id] = sum / float64(n)
		} else {
			bary[id] = pos[id]
		}
	}
	sort.SliceStable(layer, func(i, j int) bool {
		bi, bj := bary[layer[i]], bary[layer[j]]
		if bi != bj {
			return bi < bj
		}
		return layer[i] < layer[j]
	})
	for i, id := range layer {
		pos[id] = float64(i)
	}
}

func totalCrossings(layers [][]string, nb neighbours) int {
	total := 0
	for l := 0; l+1 < len(layers); l++ {
		total += crossings(layers[l], layers[l+1], nb)
	}
	return total
}

// crossings counts pairs of edges between two adjacent layers that cross.
func crossings(upper, lower []string, nb neighbours) int {
	below := make(map[string]int, len(lower))
	for i, id := range lower {
		below[id] = i
	}
	var edges [][2]int
	for i, id := range upper {
		for _, to := range nb.out[id] {
			if j, ok := below[to]; ok {
				edges = append(edges, [2]int{i, j})
			}
		}
	}

	n := 0
	for i := 0; i < len(edges); i++ {
		for j := i + 1; j < len(edges); j++ {
			a, b := edges[i], edges[j]
			if (a[0] < b[0] && a[1] > b[1]) || (a[0] > b[0] && a[1] < b[1]) {
				n++
			}
		}
	}
	return n
}

func cloneLayers(layers [][]string) [][]string {
	out := make([][]string, len(layers))
	for i := range layers {
		out[i] = append([]string(nil), layers[i]...)
	}
	return out
}
