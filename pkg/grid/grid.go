package grid

import (
	"strings"
)

type Kind uint8

const (
	KindOutside Kind = iota
	KindHorizontalWall
	KindVerticalWall
	KindCorner
	KindPassage
	KindFloor
	KindGold
)

// Cell is one map square. Terrain never carries a player; Occupant holds the
// letter of the player standing on it, or 0.
type Cell struct {
	Terrain  Kind
	Occupant byte
}

func (c Cell) Rune() byte {
	if c.Occupant != 0 {
		return c.Occupant
	}
	return c.Terrain.Rune()
}

func (k Kind) Rune() byte {
	switch k {
	case KindHorizontalWall:
		return '-'
	case KindVerticalWall:
		return '|'
	case KindCorner:
		return '+'
	case KindPassage:
		return '#'
	case KindFloor:
		return '.'
	case KindGold:
		return '*'
	default:
		return ' '
	}
}

func KindFromRune(r byte) (Kind, bool) {
	switch r {
	case ' ':
		return KindOutside, true
	case '-':
		return KindHorizontalWall, true
	case '|':
		return KindVerticalWall, true
	case '+':
		return KindCorner, true
	case '#':
		return KindPassage, true
	case '.':
		return KindFloor, true
	case '*':
		return KindGold, true
	default:
		return KindOutside, false
	}
}

func (k Kind) IsWall() bool {
	switch k {
	case KindOutside, KindHorizontalWall, KindVerticalWall, KindCorner:
		return true
	default:
		return false
	}
}

type Point struct {
	X, Y int
}

func (p Point) Add(d Direction) Point {
	return Point{X: p.X + d.DX, Y: p.Y + d.DY}
}

type Grid struct {
	rows  int
	cols  int
	cells []Cell
}

// New returns a rows x cols grid where every cell is outside the building.
func New(rows, cols int) *Grid {
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]Cell, rows*cols),
	}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.cols && p.Y >= 0 && p.Y < g.rows
}

func (g *Grid) index(p Point) int {
	return p.Y*g.cols + p.X
}

// At returns the cell at p. Out-of-bounds points read as outside.
func (g *Grid) At(p Point) Cell {
	if !g.InBounds(p) {
		return Cell{}
	}
	return g.cells[g.index(p)]
}

func (g *Grid) Set(p Point, c Cell) {
	if !g.InBounds(p) {
		return
	}
	g.cells[g.index(p)] = c
}

func (g *Grid) SetTerrain(p Point, k Kind) {
	if !g.InBounds(p) {
		return
	}
	g.cells[g.index(p)].Terrain = k
}

func (g *Grid) SetOccupant(p Point, letter byte) {
	if !g.InBounds(p) {
		return
	}
	g.cells[g.index(p)].Occupant = letter
}

func (g *Grid) ClearOccupant(p Point) {
	g.SetOccupant(p, 0)
}

func (g *Grid) IsWall(p Point) bool    { return g.At(p).Terrain.IsWall() }
func (g *Grid) IsPassage(p Point) bool { return g.At(p).Terrain == KindPassage }
func (g *Grid) IsGold(p Point) bool    { return g.At(p).Terrain == KindGold }
func (g *Grid) IsPlayer(p Point) bool  { return g.At(p).Occupant != 0 }
func (g *Grid) IsOutside(p Point) bool { return g.At(p).Terrain == KindOutside }

func (g *Grid) IsOpenFloor(p Point) bool {
	c := g.At(p)
	return c.Terrain == KindFloor && c.Occupant == 0
}

// IsRoomSpot reports whether p is floor or gold, the only terrain sight passes through.
func (g *Grid) IsRoomSpot(p Point) bool {
	return !g.IsWall(p) && !g.IsPassage(p)
}

// CanStep reports whether the cell one step from p in direction d is walkable.
// Callers bounds-check the destination first.
func (g *Grid) CanStep(p Point, d Direction) bool {
	return !g.IsWall(p.Add(d))
}

// Copy returns an independent grid with identical dimensions and content.
func (g *Grid) Copy() *Grid {
	cells := make([]Cell, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rows: g.rows, cols: g.cols, cells: cells}
}

// Count returns how many cells satisfy fn.
func (g *Grid) Count(fn func(Point) bool) int {
	n := 0
	g.Each(func(p Point) {
		if fn(p) {
			n++
		}
	})
	return n
}

func (g *Grid) Each(fn func(Point)) {
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			fn(Point{X: x, Y: y})
		}
	}
}

// String renders the grid as newline-terminated rows.
func (g *Grid) String() string {
	return g.Render(nil)
}

// Render serializes the grid, letting overlay replace the glyph of any cell.
// overlay returns 0 to keep the cell's own glyph.
func (g *Grid) Render(overlay func(Point) byte) string {
	var sb strings.Builder
	sb.Grow(g.rows * (g.cols + 1))
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			p := Point{X: x, Y: y}
			ch := g.cells[g.index(p)].Rune()
			if overlay != nil {
				if o := overlay(p); o != 0 {
					ch = o
				}
			}
			sb.WriteByte(ch)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
