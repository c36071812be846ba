package model

// historySize is how many recent generations are remembered for cycle detection
const historySize = 5

// History remembers the hashes of recent boards so that still lifes and
// short oscillators can be reported
type History struct {
	hashes []string
}

// UpdateHistory adds the board's hash to history and maintains size
func (h *History) UpdateHistory(b *Board) {
	h.hashes = append(h.hashes, b.GetBoardHash())

	if len(h.hashes) > historySize {
		h.hashes = h.hashes[1:]
	}
}

// IsStagnant checks if b repeats one of the last three recorded boards.
// Needs at least three recorded generations before it reports anything.
func (h *History) IsStagnant(b *Board) bool {
	if len(h.hashes) < 3 {
		return false
	}

	currentHash := b.GetBoardHash()
	for i := 1; i <= 3; i++ {
		if h.hashes[len(h.hashes)-i] == currentHash {
			return true
		}
	}
	return false
}

// Reset forgets every recorded generation
func (h *History) Reset() {
	h.hashes = nil
}
