// Package pathfinding finds shortest tile paths with a breadth-first search.
//
// All steps cost one, including diagonal steps in 8-direction mode, so the
// result minimises the number of tiles walked rather than Euclidean length.
package pathfinding

import (
	"gridwalk/internal/direction"
	"gridwalk/internal/mathutil"
	"gridwalk/internal/tilemap"
)

// Options configure one search.
type Options struct {
	Mode direction.Mode

	// IsBlocking reports whether a tile on a layer may not be entered. The
	// goal is only exempt if the predicate says so.
	IsBlocking func(pos mathutil.Vec2, layer string) bool

	// Transition returns the layer a walker ends up on after entering pos from
	// layer. Optional.
	Transition func(pos mathutil.Vec2, layer string) (string, bool)

	// MaxSearchRadius limits the search to tiles within this distance of the
	// start, measured with Mode.Distance. 0 means unbounded.
	MaxSearchRadius int
}

// Result of a search. Path is empty when the goal cannot be reached.
type Result struct {
	Path []tilemap.LayerPosition

	// Closest is the reached tile nearest to the goal, and ClosestPath the
	// path to it. Equals the goal when Path is not empty.
	Closest     tilemap.LayerPosition
	ClosestPath []tilemap.LayerPosition

	// Steps counts the nodes taken off the queue.
	Steps int
}

// ShortestPath searches from start to goal. The path includes both ends; a
// start equal to the goal yields a path of length one.
func ShortestPath(start, goal tilemap.LayerPosition, opts Options) Result {
	if start == goal {
		path := []tilemap.LayerPosition{start}
		return Result{Path: path, Closest: start, ClosestPath: path}
	}

	isBlocking := opts.IsBlocking
	if isBlocking == nil {
		isBlocking = func(mathutil.Vec2, string) bool { return false }
	}
	neighbours := opts.Mode.NeighborDirections()

	previous := map[tilemap.LayerPosition]tilemap.LayerPosition{}
	visited := map[tilemap.LayerPosition]bool{start: true}
	queue := []tilemap.LayerPosition{start}

	closest := start
	closestDist := opts.Mode.Distance(start.Position, goal.Position)
	steps := 0

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		steps++

		if node == goal {
			path := backtrack(previous, start, goal)
			return Result{Path: path, Closest: goal, ClosestPath: path, Steps: steps}
		}

		if dist := opts.Mode.Distance(node.Position, goal.Position); dist < closestDist {
			closest, closestDist = node, dist
		}

		for _, dir := range neighbours {
			next := node.Position.Add(dir.Vector())
			if opts.MaxSearchRadius > 0 && opts.Mode.Distance(start.Position, next) > opts.MaxSearchRadius {
				continue
			}
			layer := node.Layer
			if opts.Transition != nil {
				if to, ok := opts.Transition(next, node.Layer); ok {
					layer = to
				}
			}
			neighbour := tilemap.LayerPosition{Position: next, Layer: layer}
			if visited[neighbour] {
				continue
			}
			if isBlocking(next, layer) {
				continue
			}
			visited[neighbour] = true
			previous[neighbour] = node
			queue = append(queue, neighbour)
		}
	}

	return Result{
		Closest:     closest,
		ClosestPath: backtrack(previous, start, closest),
		Steps:       steps,
	}
}

func backtrack(previous map[tilemap.LayerPosition]tilemap.LayerPosition, start, end tilemap.LayerPosition) []tilemap.LayerPosition {
	path := []tilemap.LayerPosition{end}
	for node := end; node != start; {
		node = previous[node]
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
