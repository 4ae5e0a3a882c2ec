package autolayout

import (
	"context"
	"math"

	"github.com/ha1tch/codemap/pkg/geom"
)

// layoutForceDirected runs a spring-electrical simulation. fcose seeds from
// a circle ordered by connectivity; cose starts from the nodes' current
// positions when they have any.
func layoutForceDirected(ctx context.Context, g Graph, p Params) (Positions, error) {
	n := len(g.Nodes)
	index := make(map[string]int, n)
	for i, node := range g.Nodes {
		index[node.ID] = i
	}

	posX := make([]float64, n)
	posY := make([]float64, n)
	seed(g, p, index, posX, posY)

	// Edge list by index, self-loops and dangling references dropped
	type link struct{ a, b int }
	links := make([]link, 0, len(g.Edges))
	for _, e := range g.Edges {
		a, okA := index[e.Source]
		b, okB := index[e.Target]
		if !okA || !okB || a == b {
			continue
		}
		links = append(links, link{a, b})
	}

	// Compound members are pulled towards their siblings' centroid
	groups := make(map[string][]int)
	for i, node := range g.Nodes {
		if node.Parent != "" {
			groups[node.Parent] = append(groups[node.Parent], i)
		}
	}
	groupOrder := make([]string, 0, len(groups))
	for _, node := range g.Nodes {
		if node.Parent != "" {
			if _, seen := groups[node.Parent]; seen && !containsString(groupOrder, node.Parent) {
				groupOrder = append(groupOrder, node.Parent)
			}
		}
	}

	centre := geom.Point{X: p.Width / 2, Y: p.Height / 2}
	repulsion := p.NodeRepulsion
	ideal := p.IdealEdgeLength
	const attraction = 0.1

	// Temperature caps the step per iteration and cools linearly
	temperature := math.Max(p.Width, p.Height) / 10
	cooling := temperature / float64(p.NumIter+1)

	forceX := make([]float64, n)
	forceY := make([]float64, n)

	for iter := 0; iter < p.NumIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range forceX {
			forceX[i] = 0
			forceY[i] = 0
		}

		// Repulsion between all pairs
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				dx := posX[a] - posX[b]
				dy := posY[a] - posY[b]
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist < 1 {
					// Coincident nodes: nudge apart along a fixed direction
					dx, dy, dist = float64(b-a), float64(a+1), 1
				}

				force := repulsion / (dist * dist)
				fx := force * dx / dist
				fy := force * dy / dist

				forceX[a] += fx
				forceY[a] += fy
				forceX[b] -= fx
				forceY[b] -= fy
			}
		}

		// Attraction along edges towards the ideal length
		for _, l := range links {
			dx := posX[l.b] - posX[l.a]
			dy := posY[l.b] - posY[l.a]
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist < 1 {
				continue
			}

			force := attraction * (dist - ideal)
			fx := force * dx / dist
			fy := force * dy / dist

			forceX[l.a] += fx
			forceY[l.a] += fy
			forceX[l.b] -= fx
			forceY[l.b] -= fy
		}

		for _, parent := range groupOrder {
			members := groups[parent]
			var cx, cy float64
			for _, m := range members {
				cx += posX[m]
				cy += posY[m]
			}
			cx /= float64(len(members))
			cy /= float64(len(members))
			for _, m := range members {
				forceX[m] += (cx - posX[m]) * attraction
				forceY[m] += (cy - posY[m]) * attraction
			}
		}

		// Gravity keeps disconnected components from drifting away
		for i := 0; i < n; i++ {
			forceX[i] += (centre.X - posX[i]) * p.Gravity * 0.01
			forceY[i] += (centre.Y - posY[i]) * p.Gravity * 0.01
		}

		// Apply forces, capped by temperature
		for i := 0; i < n; i++ {
			fx, fy := forceX[i], forceY[i]
			mag := math.Sqrt(fx*fx + fy*fy)
			if mag > temperature && mag > 0 {
				fx = fx / mag * temperature
				fy = fy / mag * temperature
			}
			posX[i] += fx
			posY[i] += fy
		}

		temperature -= cooling
		if temperature < 0.5 {
			temperature = 0.5
		}
	}

	positions := make(Positions, n)
	for i, node := range g.Nodes {
		positions[node.ID] = geom.Point{X: posX[i], Y: posY[i]}
	}
	return positions, nil
}

func seed(g Graph, p Params, index map[string]int, posX, posY []float64) {
	n := len(g.Nodes)

	if p.Name == CoSE {
		hasPositions := false
		for _, node := range g.Nodes {
			if node.X != 0 || node.Y != 0 {
				hasPositions = true
				break
			}
		}
		if hasPositions {
			for i, node := range g.Nodes {
				posX[i], posY[i] = node.X, node.Y
			}
			return
		}
		grid := layoutGrid(g, p)
		for i, node := range g.Nodes {
			posX[i], posY[i] = grid[node.ID].X, grid[node.ID].Y
		}
		return
	}

	// Start with circular layout, connected nodes adjacent on the ring
	ordered := orderByConnectivity(g)
	radius := math.Min(p.Width, p.Height) / 3
	for k, id := range ordered {
		i := index[id]
		angle := 2 * math.Pi * float64(k) / float64(n)
		posX[i] = p.Width/2 + radius*math.Cos(angle)
		posY[i] = p.Height/2 + radius*math.Sin(angle)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
