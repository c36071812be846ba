package rules

// Outcome names the rule that decided a cell's next state.
type Outcome int

const (
	Stasis Outcome = iota
	Underpopulation
	Survival
	Overpopulation
	Reproduction
)

// Outcomes lists the four rules of the game, stasis excluded
var Outcomes = []Outcome{Underpopulation, Survival, Overpopulation, Reproduction}

var outcomeNames = [...]string{
	Stasis:          "stasis",
	Underpopulation: "underpopulation",
	Survival:        "survival",
	Overpopulation:  "overpopulation",
	Reproduction:    "reproduction",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// Alive reports whether the outcome leaves the cell alive.
func (o Outcome) Alive() bool {
	return o == Survival || o == Reproduction
}

/*
ApplyConwayRules applies Conway's Game of Life rules to determine the next state of a cell.

A live cell survives with 2 or 3 neighbors, a dead cell is born with exactly 3.
Every other combination is dead in the next generation.
*/
func ApplyConwayRules(neighbors int, alive bool) bool {
	if alive {
		return neighbors == 2 || neighbors == 3
	}
	return neighbors == 3
}

// Classify returns which of the four rules (or stasis) applies to a cell
func Classify(neighbors int, alive bool) Outcome {
	switch {
	case alive && neighbors <= 1:
		return Underpopulation
	case alive && neighbors <= 3:
		return Survival
	case alive:
		return Overpopulation
	case neighbors == 3:
		return Reproduction
	default:
		return Stasis
	}
}
