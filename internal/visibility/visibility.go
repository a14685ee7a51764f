// Package visibility decides which map cells an observer can see and keeps
// each player's remembered view of the map in sync with what they see.
package visibility

import (
	"github.com/siohaza/nuggets/pkg/grid"
)

// Visible reports whether target is in line of sight of observer on terrain.
// Occupants never block.
//
// Cells sharing a row or column are seen up to and including the first wall,
// so passages do not stop a straight ray. Any other target is checked twice: once stepping along x and once stepping along y. At every
// step the line's exact position on the other axis is bracketed by its floor
// and ceiling cells, and the ray is blocked only when neither of those two
// cells is a room spot.
func Visible(terrain *grid.Grid, observer, target grid.Point) bool {
	if observer == target {
		return true
	}
	if !terrain.InBounds(observer) || !terrain.InBounds(target) {
		return false
	}

	dx := target.X - observer.X
	dy := target.Y - observer.Y

	switch {
	case dy == 0:
		return clearRow(terrain, observer, target)
	case dx == 0:
		return clearColumn(terrain, observer, target)
	}

	return scanX(terrain, observer, dx, dy) && scanY(terrain, observer, dx, dy)
}

// MutuallyVisible reports whether two positions can see each other. The ray
// test is symmetric in its inputs, so one direction is enough.
func MutuallyVisible(terrain *grid.Grid, a, b grid.Point) bool {
	return Visible(terrain, a, b)
}

func clearRow(terrain *grid.Grid, from, to grid.Point) bool {
	step := sign(to.X - from.X)
	for x := from.X + step; x != to.X; x += step {
		if terrain.IsWall(grid.Point{X: x, Y: from.Y}) {
			return false
		}
	}
	return true
}

func clearColumn(terrain *grid.Grid, from, to grid.Point) bool {
	step := sign(to.Y - from.Y)
	for y := from.Y + step; y != to.Y; y += step {
		if terrain.IsWall(grid.Point{X: from.X, Y: y}) {
			return false
		}
	}
	return true
}

// scanX walks every intermediate column between observer and target.
func scanX(terrain *grid.Grid, observer grid.Point, dx, dy int) bool {
	step := sign(dx)
	for t := step; t != dx; t += step {
		num := dy * t
		low := observer.Y + floorDiv(num, dx)
		high := observer.Y + ceilDiv(num, dx)
		x := observer.X + t
		if !terrain.IsRoomSpot(grid.Point{X: x, Y: low}) && !terrain.IsRoomSpot(grid.Point{X: x, Y: high}) {
			return false
		}
	}
	return true
}

// scanY walks every intermediate row between observer and target.
func scanY(terrain *grid.Grid, observer grid.Point, dx, dy int) bool {
	step := sign(dy)
	for t := step; t != dy; t += step {
		num := dx * t
		low := observer.X + floorDiv(num, dy)
		high := observer.X + ceilDiv(num, dy)
		y := observer.Y + t
		if !terrain.IsRoomSpot(grid.Point{X: low, Y: y}) && !terrain.IsRoomSpot(grid.Point{X: high, Y: y}) {
			return false
		}
	}
	return true
}

// Refresh writes everything visible from pos into view. Terrain stays known
// once seen; remembered gold that is no longer in sight degrades to floor.
func Refresh(master, view *grid.Grid, pos grid.Point) {
	master.Each(func(p grid.Point) {
		if master.IsOutside(p) {
			return
		}
		if Visible(master, pos, p) {
			view.Set(p, grid.Cell{Terrain: master.At(p).Terrain})
			return
		}
		if view.IsGold(p) {
			view.SetTerrain(p, grid.KindFloor)
		}
	})
}

// VisibleSet returns every visible cell from pos, in row-major order.
func VisibleSet(master *grid.Grid, pos grid.Point) []grid.Point {
	var points []grid.Point
	master.Each(func(p grid.Point) {
		if !master.IsOutside(p) && Visible(master, pos, p) {
			points = append(points, p)
		}
	})
	return points
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
