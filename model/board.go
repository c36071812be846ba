package model

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// neighborOffsets are the (dx, dy) positions of the Moore neighborhood
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Board is one generation of the game. Cells are addressed as (x, y) where
// x is the column and y the row. The engine never modifies a board it reads
// from; each generation is a new board.
type Board struct {
	width  int
	height int
	cells  [][]bool
}

// NewBoard creates an all-dead board with the specified dimensions
func NewBoard(width, height int) *Board {
	cells := make([][]bool, height)
	for i := range cells {
		cells[i] = make([]bool, width)
	}
	return &Board{
		width:  width,
		height: height,
		cells:  cells,
	}
}

// NewBoardFromRows copies rows into a new board. Rows must be non-empty and
// all of the same length.
func NewBoardFromRows(rows [][]bool) (*Board, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.Wrap(ErrEmptyBoard, "[NewBoardFromRows]")
	}
	b := NewBoard(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != b.width {
			return nil, errors.Wrapf(ErrRaggedRows, "[NewBoardFromRows] row %d has %d cells, want %d", y, len(row), b.width)
		}
		copy(b.cells[y], row)
	}
	return b, nil
}

// GetWidth returns the width of the board
func (b *Board) GetWidth() int {
	return b.width
}

// GetHeight returns the height of the board
func (b *Board) GetHeight() int {
	return b.height
}

// Reset resizes the board and kills every cell
func (b *Board) Reset(width, height int) {
	b.width = width
	b.height = height

	// Resize cells if needed
	if len(b.cells) != height {
		b.cells = make([][]bool, height)
	}
	for i := range b.cells {
		if len(b.cells[i]) != width {
			b.cells[i] = make([]bool, width)
		} else {
			clear(b.cells[i])
		}
	}
}

// Clear kills all cells
func (b *Board) Clear() {
	for y := range b.height {
		clear(b.cells[y])
	}
}

// Set sets a cell to alive (true) or dead (false). It is meant for boards
// that are still being built; positions outside the board are ignored.
func (b *Board) Set(x, y int, alive bool) {
	if b.inBounds(x, y) {
		b.cells[y][x] = alive
	}
}

// Get returns the state of a cell, positions outside the board are dead
func (b *Board) Get(x, y int) bool {
	if !b.inBounds(x, y) {
		return false
	}
	return b.cells[y][x]
}

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// CountNeighbors counts the living cells around (x, y). Neighbors beyond the
// edge of the board do not exist; there is no wraparound.
func (b *Board) CountNeighbors(x, y int) int {
	count := 0
	for _, off := range neighborOffsets {
		nx, ny := x+off[0], y+off[1]
		if b.inBounds(nx, ny) && b.cells[ny][nx] {
			count++
		}
	}
	return count
}

// NeighborPositions returns how many of the 8 neighbor positions of (x, y)
// lie on the board
func (b *Board) NeighborPositions(x, y int) (count int) {
	for _, off := range neighborOffsets {
		if b.inBounds(x+off[0], y+off[1]) {
			count++
		}
	}
	return
}

// CountLivingCells returns the total number of living cells
func (b *Board) CountLivingCells() (count int) {
	for y := range b.height {
		for x := range b.width {
			if b.cells[y][x] {
				count++
			}
		}
	}
	return
}

// GetBoardHash returns an MD5 hash of the current board state
func (b *Board) GetBoardHash() string {
	h := md5.New()
	for y := range b.height {
		for x := range b.width {
			if b.cells[y][x] {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// String encodes the board in the same text format LoadBoard reads
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow((b.width + 1) * b.height)
	for y := range b.height {
		for x := range b.width {
			if b.cells[y][x] {
				sb.WriteByte(aliveDigit)
			} else {
				sb.WriteByte(deadDigit)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
