package crowd

// WorldBounds enables toroidal-wrap separation for worlds that wrap at
// their edges (a supplemented option beyond the non-toroidal core; grids
// that don't wrap simply omit it from Config).
type WorldBounds struct {
	Width, Height float32
}

// toroidalDelta returns the shortest-path delta from (x1,y1) to (x2,y2) on
// a torus of the given dimensions.
func toroidalDelta(x1, y1, x2, y2, w, h float32) (dx, dy float32) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}
	return dx, dy
}
