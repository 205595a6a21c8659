package pathfinding

import (
	"container/heap"
	"math"

	"github.com/arenacore/simcore/entities"
)

// Status is the outcome of a FindPath call.
type Status uint8

const (
	Success Status = iota
	Blocked
	Timeout
	InvalidStart
	InvalidGoal
)

// DefaultIterationCap bounds A* search steps before giving up with Timeout.
const DefaultIterationCap = 8000

// astarNode is one entry in the A* open set.
type astarNode struct {
	gx, gy int
	f, h   float32
	index  int
}

// nodeHeap is a min-heap on f, tie-broken by lower h (spec §4.3.1).
type nodeHeap []*astarNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].h < h[j].h
}
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *nodeHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}

// Planner runs A* over a GridSet, reusing its scratch maps across calls.
type Planner struct {
	grids *GridSet

	openHeap  *nodeHeap
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]float32

	iterationCap int
}

// NewPlanner creates a Planner over the given grid set.
func NewPlanner(grids *GridSet) *Planner {
	return &Planner{
		grids:        grids,
		openHeap:     &nodeHeap{},
		closedSet:    make(map[int]struct{}, 256),
		cameFrom:     make(map[int]int, 256),
		gScore:       make(map[int]float32, 256),
		iterationCap: DefaultIterationCap,
	}
}

// FindPath searches start -> goal on the grid for sizeClass. On Success,
// waypoints is a line-of-sight-simplified path in world coordinates of
// cell centers, running from the start cell's center to the goal cell's
// center (not the exact start/goal positions).
func (p *Planner) FindPath(start, goal entities.Vec2, sizeClass SizeClass) ([]entities.Vec2, Status) {
	grid := p.grids.Grid(sizeClass)

	startGX, startGY := grid.WorldToGrid(start.X, start.Y)
	goalGX, goalGY := grid.WorldToGrid(goal.X, goal.Y)

	if grid.IsBlocked(startGX, startGY) {
		return nil, InvalidStart
	}
	if grid.IsBlocked(goalGX, goalGY) {
		return nil, InvalidGoal
	}

	if startGX == goalGX && startGY == goalGY {
		x, y := grid.GridToWorld(goalGX, goalGY)
		return []entities.Vec2{{X: x, Y: y}}, Success
	}

	*p.openHeap = (*p.openHeap)[:0]
	for k := range p.closedSet {
		delete(p.closedSet, k)
	}
	for k := range p.cameFrom {
		delete(p.cameFrom, k)
	}
	for k := range p.gScore {
		delete(p.gScore, k)
	}

	startID := startGY*grid.width + startGX
	goalID := goalGY*grid.width + goalGX

	p.gScore[startID] = 0
	h0 := octile(startGX, startGY, goalGX, goalGY)
	heap.Push(p.openHeap, &astarNode{gx: startGX, gy: startGY, f: h0, h: h0})

	iterations := 0
	for p.openHeap.Len() > 0 {
		iterations++
		if iterations > p.iterationCap {
			return nil, Timeout
		}

		current := heap.Pop(p.openHeap).(*astarNode)
		currentID := current.gy*grid.width + current.gx

		if currentID == goalID {
			return p.reconstructPath(grid, startID, goalID), Success
		}
		if _, done := p.closedSet[currentID]; done {
			continue
		}
		p.closedSet[currentID] = struct{}{}

		neighbors := [8][2]int{
			{current.gx - 1, current.gy}, {current.gx + 1, current.gy},
			{current.gx, current.gy - 1}, {current.gx, current.gy + 1},
			{current.gx - 1, current.gy - 1}, {current.gx + 1, current.gy - 1},
			{current.gx - 1, current.gy + 1}, {current.gx + 1, current.gy + 1},
		}

		for i, n := range neighbors {
			ngx, ngy := n[0], n[1]
			if grid.IsBlocked(ngx, ngy) {
				continue
			}
			diagonal := i >= 4
			if diagonal {
				dx, dy := ngx-current.gx, ngy-current.gy
				if grid.IsBlocked(current.gx+dx, current.gy) || grid.IsBlocked(current.gx, current.gy+dy) {
					continue // no corner-cutting
				}
			}

			neighborID := ngy*grid.width + ngx
			if _, closed := p.closedSet[neighborID]; closed {
				continue
			}

			moveCost := float32(1.0)
			if diagonal {
				moveCost = math.Sqrt2
			}
			moveCost *= grid.costAt(ngx, ngy)

			tentativeG := p.gScore[currentID] + moveCost
			existingG, exists := p.gScore[neighborID]
			if exists && tentativeG >= existingG {
				continue
			}

			p.cameFrom[neighborID] = currentID
			p.gScore[neighborID] = tentativeG
			hCost := octile(ngx, ngy, goalGX, goalGY)
			heap.Push(p.openHeap, &astarNode{gx: ngx, gy: ngy, f: tentativeG + hCost, h: hCost})
		}
	}

	return nil, Blocked
}

// octile is the admissible heuristic for 8-connected grids with diagonal
// cost sqrt(2): favors cutting diagonally across equal-cost cardinal steps.
func octile(gx1, gy1, gx2, gy2 int) float32 {
	dx := float32(absInt(gx2 - gx1))
	dy := float32(absInt(gy2 - gy1))
	if dx > dy {
		return (dx-dy) + float32(math.Sqrt2)*dy
	}
	return (dy-dx) + float32(math.Sqrt2)*dx
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (p *Planner) reconstructPath(grid *Grid, startID, goalID int) []entities.Vec2 {
	var ids []int
	current := goalID
	for current != startID {
		ids = append(ids, current)
		next, ok := p.cameFrom[current]
		if !ok {
			break
		}
		current = next
	}
	ids = append(ids, startID)

	path := make([]entities.Vec2, len(ids))
	for i, id := range ids {
		gx, gy := id%grid.width, id/grid.width
		x, y := grid.GridToWorld(gx, gy)
		path[len(ids)-1-i] = entities.Vec2{X: x, Y: y}
	}

	return simplifyPath(path, grid)
}

// simplifyPath removes waypoints whose removal leaves an unobstructed
// line of sight between their neighbors (spec §4.3.1 post-processing).
func simplifyPath(path []entities.Vec2, grid *Grid) []entities.Vec2 {
	if len(path) <= 2 {
		return path
	}
	out := make([]entities.Vec2, 0, len(path))
	out = append(out, path[0])
	anchor := 0
	for i := 1; i < len(path)-1; i++ {
		if !hasLineOfSight(grid, path[anchor], path[i+1]) {
			out = append(out, path[i])
			anchor = i
		}
	}
	out = append(out, path[len(path)-1])
	return out
}

func hasLineOfSight(grid *Grid, a, b entities.Vec2) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	dist := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if dist < 0.01 {
		return true
	}
	step := grid.cellSize * 0.5
	steps := int(dist/step) + 1
	dx /= dist
	dy /= dist
	for i := 0; i <= steps; i++ {
		if grid.IsBlockedWorld(entities.Vec2{X: a.X + dx*float32(i)*step, Y: a.Y + dy*float32(i)*step}) {
			return false
		}
	}
	return true
}
