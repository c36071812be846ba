package model

import "github.com/sheikhrachel/go-life/rules"

// Census counts how many cells each rule applies to when b advances
type Census map[rules.Outcome]int

// Census classifies every cell of the board without computing the next generation
func (b *Board) Census() Census {
	c := Census{}
	for y := range b.height {
		for x := range b.width {
			c[rules.Classify(b.CountNeighbors(x, y), b.cells[y][x])]++
		}
	}
	return c
}

// Births is the number of dead cells that come alive
func (c Census) Births() int {
	return c[rules.Reproduction]
}

// Deaths is the number of live cells that die
func (c Census) Deaths() int {
	return c[rules.Underpopulation] + c[rules.Overpopulation]
}
