package model

import "math/rand"

// RandomBoard creates a board where every cell is independently alive with
// probability rate
func RandomBoard(width, height int, rate float64, rnd *rand.Rand) *Board {
	b := NewBoard(width, height)
	b.Randomize(rate, rnd)
	return b
}

// Randomize fills the board with random living cells
func (b *Board) Randomize(rate float64, rnd *rand.Rand) {
	for y := range b.height {
		for x := range b.width {
			b.cells[y][x] = rnd.Float64() < rate
		}
	}
}
