package grid

type Direction struct {
	DX, DY int
}

var (
	West      = Direction{DX: -1, DY: 0}
	East      = Direction{DX: 1, DY: 0}
	North     = Direction{DX: 0, DY: -1}
	South     = Direction{DX: 0, DY: 1}
	NorthWest = Direction{DX: -1, DY: -1}
	NorthEast = Direction{DX: 1, DY: -1}
	SouthWest = Direction{DX: -1, DY: 1}
	SouthEast = Direction{DX: 1, DY: 1}
)

// Directions lists the eight step directions.
var Directions = []Direction{West, East, North, South, NorthWest, NorthEast, SouthWest, SouthEast}

// DirectionForKey maps a movement key to its direction. Uppercase keys are
// runs; run reports which one was pressed.
func DirectionForKey(key byte) (d Direction, run bool, ok bool) {
	lower := key
	if key >= 'A' && key <= 'Z' {
		lower = key + ('a' - 'A')
		run = true
	}

	switch lower {
	case 'h':
		return West, run, true
	case 'l':
		return East, run, true
	case 'k':
		return North, run, true
	case 'j':
		return South, run, true
	case 'y':
		return NorthWest, run, true
	case 'u':
		return NorthEast, run, true
	case 'b':
		return SouthWest, run, true
	case 'n':
		return SouthEast, run, true
	default:
		return Direction{}, false, false
	}
}
