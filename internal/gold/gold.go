package gold

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/siohaza/nuggets/pkg/grid"
)

const (
	DefaultTotal    = 250
	DefaultMinPiles = 10
	DefaultMaxPiles = 30
)

var ErrNotEnoughFloor = errors.New("not enough open floor for gold piles")

// Pool holds the pile sizes of one game. Piles are handed out in the order
// they were sized, whichever pile a player actually steps on.
type Pool struct {
	piles     []int
	index     int
	locations []grid.Point
}

// PileCount draws a pile count uniformly from [min, max].
func PileCount(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}

// Partition splits total into pileCount piles of at least one unit each.
func Partition(rng *rand.Rand, total, pileCount int) (*Pool, error) {
	if pileCount <= 0 {
		return nil, fmt.Errorf("invalid pile count %d", pileCount)
	}
	if total < pileCount {
		return nil, fmt.Errorf("cannot split %d gold into %d piles", total, pileCount)
	}

	piles := make([]int, pileCount)
	remaining := total
	for i := 0; i < pileCount-1; i++ {
		upper := remaining - (pileCount - i - 1)
		piles[i] = 1 + rng.Intn(upper)
		remaining -= piles[i]
	}
	piles[pileCount-1] = remaining

	return &Pool{piles: piles}, nil
}

// Scatter marks one distinct open-floor cell per pile as gold.
func (p *Pool) Scatter(rng *rand.Rand, g *grid.Grid) error {
	floor := g.Count(g.IsOpenFloor)
	if floor < len(p.piles) {
		return fmt.Errorf("%d piles on %d floor cells: %w", len(p.piles), floor, ErrNotEnoughFloor)
	}

	p.locations = make([]grid.Point, 0, len(p.piles))

	maxAttempts := 64 * g.Rows() * g.Cols()
	for attempt := 0; attempt < maxAttempts && len(p.locations) < len(p.piles); attempt++ {
		pt := grid.Point{X: rng.Intn(g.Cols()), Y: rng.Intn(g.Rows())}
		if g.IsOpenFloor(pt) {
			p.place(g, pt)
		}
	}

	if len(p.locations) < len(p.piles) {
		var free []grid.Point
		g.Each(func(pt grid.Point) {
			if g.IsOpenFloor(pt) {
				free = append(free, pt)
			}
		})
		rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
		for _, pt := range free[:len(p.piles)-len(p.locations)] {
			p.place(g, pt)
		}
	}

	return nil
}

func (p *Pool) place(g *grid.Grid, pt grid.Point) {
	g.SetTerrain(pt, grid.KindGold)
	p.locations = append(p.locations, pt)
}

// Collect returns the next pile in pickup order, or 0 once every pile is gone.
func (p *Pool) Collect() int {
	if p.index >= len(p.piles) {
		return 0
	}
	amount := p.piles[p.index]
	p.index++
	return amount
}

func (p *Pool) Remaining() int {
	sum := 0
	for _, n := range p.piles[p.index:] {
		sum += n
	}
	return sum
}

func (p *Pool) IsExhausted() bool {
	return p.index >= len(p.piles)
}

func (p *Pool) PileCount() int {
	return len(p.piles)
}

func (p *Pool) Collected() int {
	return p.index
}

func (p *Pool) Piles() []int {
	piles := make([]int, len(p.piles))
	copy(piles, p.piles)
	return piles
}

func (p *Pool) Locations() []grid.Point {
	locations := make([]grid.Point, len(p.locations))
	copy(locations, p.locations)
	return locations
}
