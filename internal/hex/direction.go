package hex

// Direction names one of the six unit steps on the lattice.
type Direction uint8

const (
	E Direction = iota
	NE
	NW
	W
	SW
	SE
)

// DirectionCount is the number of neighbours of every cell.
const DirectionCount = 6

var directionVectors = [DirectionCount]Cube{
	E:  {Q: 1, R: 0, S: -1},
	NE: {Q: 1, R: -1, S: 0},
	NW: {Q: 0, R: -1, S: 1},
	W:  {Q: -1, R: 0, S: 1},
	SW: {Q: -1, R: 1, S: 0},
	SE: {Q: 0, R: 1, S: -1},
}

var directionNames = [DirectionCount]string{"E", "NE", "NW", "W", "SW", "SE"}

// Directions returns all six directions in iteration order.
// The order carries no meaning beyond being fixed.
func Directions() [DirectionCount]Direction {
	return [DirectionCount]Direction{E, NE, NW, W, SW, SE}
}

// Cube returns the unit vector for d.
func (d Direction) Cube() Cube {
	return directionVectors[d%DirectionCount]
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return (d%DirectionCount + 3) % DirectionCount
}

func (d Direction) String() string {
	if d >= DirectionCount {
		return "Unknown"
	}
	return directionNames[d]
}

// Step returns the adjacent cell in direction d.
func (c Cube) Step(d Direction) Cube {
	return c.Add(d.Cube())
}

// Neighbours returns the six adjacent cells, one per direction.
func (c Cube) Neighbours() [DirectionCount]Cube {
	var result [DirectionCount]Cube
	for i, dir := range directionVectors {
		result[i] = c.Add(dir)
	}
	return result
}
