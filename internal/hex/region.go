package hex

// Ring returns the cells at exactly radius steps from c, walking the ring
// starting at its SW corner. Radius 0 yields c itself; negative yields nil.
func (c Cube) Ring(radius int) []Cube {
	if radius < 0 {
		return nil
	}
	if radius == 0 {
		return []Cube{c}
	}

	result := make([]Cube, 0, DirectionCount*radius)
	cell := c.Add(SW.Cube().Scale(radius))
	for _, d := range Directions() {
		for i := 0; i < radius; i++ {
			result = append(result, cell)
			cell = cell.Step(d)
		}
	}
	return result
}

// Within returns every cell at distance <= radius from c.
// A region of radius R contains 3R(R+1)+1 cells.
func (c Cube) Within(radius int) []Cube {
	if radius < 0 {
		return nil
	}
	result := make([]Cube, 0, 3*radius*(radius+1)+1)
	for q := -radius; q <= radius; q++ {
		for r := max(-radius, -q-radius); r <= min(radius, -q+radius); r++ {
			result = append(result, c.Add(Cube{Q: q, R: r, S: -q - r}))
		}
	}
	return result
}
