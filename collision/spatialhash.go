package collision

import "github.com/arenacore/simcore/entities"

// DefaultCellSize is the spatial hash cell edge length, per spec §4.2
// (configurable 32-64 px; the teacher's equivalent SpatialGrid defaults to
// a single cell size parameter too).
const DefaultCellSize = 48.0

// hash is a bounded (non-wrapping) spatial hash: cell key is
// (floor(x/cell), floor(y/cell)), clamped to the grid's bounds. Used once
// for static bodies and once for dynamic+kinematic bodies, per spec §4.2.
type hash struct {
	cellSize      float32
	cols, rows    int
	width, height float32
	cells         [][]entities.Handle
}

func newHash(width, height, cellSize float32) *hash {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	cells := make([][]entities.Handle, cols*rows)
	return &hash{cellSize: cellSize, cols: cols, rows: rows, width: width, height: height, cells: cells}
}

func (h *hash) clear() {
	for i := range h.cells {
		h.cells[i] = h.cells[i][:0]
	}
}

func (h *hash) colRow(x, y float32) (int, int) {
	col := int(x / h.cellSize)
	row := int(y / h.cellSize)
	if col < 0 {
		col = 0
	} else if col >= h.cols {
		col = h.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= h.rows {
		row = h.rows - 1
	}
	return col, row
}

// cellRange returns the inclusive [minCol,maxCol] x [minRow,maxRow] cells
// an AABB overlaps, clamped to bounds.
func (h *hash) cellRange(box AABB) (minCol, maxCol, minRow, maxRow int) {
	minCol, minRow = h.colRow(box.MinX, box.MinY)
	maxCol, maxRow = h.colRow(box.MaxX, box.MaxY)
	return
}

// insert adds handle to every cell its AABB overlaps.
func (h *hash) insert(handle entities.Handle, box AABB) {
	minCol, maxCol, minRow, maxRow := h.cellRange(box)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*h.cols + col
			h.cells[idx] = append(h.cells[idx], handle)
		}
	}
}

// remove drops handle from every cell in the given (previously inserted)
// range. Caller must pass the same range used at insert time.
func (h *hash) remove(handle entities.Handle, minCol, maxCol, minRow, maxRow int) {
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*h.cols + col
			cell := h.cells[idx]
			for i, e := range cell {
				if e == handle {
					cell[i] = cell[len(cell)-1]
					h.cells[idx] = cell[:len(cell)-1]
					break
				}
			}
		}
	}
}

// queryRegion appends every handle found in the cells overlapping box to
// dst, without deduplication (callers dedupe via a visited set since an
// entity spanning cells can appear more than once).
func (h *hash) queryRegion(dst []entities.Handle, box AABB) []entities.Handle {
	minCol, maxCol, minRow, maxRow := h.cellRange(box)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			dst = append(dst, h.cells[row*h.cols+col]...)
		}
	}
	return dst
}
