package model

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-life/utils"
)

func isErr(err, target error) bool {
	return err != nil && errors.Is(err, target)
}

func TestTransitionPatterns(t *testing.T) {
	tests := []struct {
		name  string
		board string
		want  string
	}{
		{
			name:  "block is stable",
			board: "0000\n0110\n0110\n0000\n",
			want:  "0000\n0110\n0110\n0000\n",
		},
		{
			name:  "blinker turns vertical",
			board: "00000\n00000\n01110\n00000\n00000\n",
			want:  "00000\n00100\n00100\n00100\n00000\n",
		},
		{
			name:  "isolated cell dies",
			board: "000\n010\n000\n",
			want:  "000\n000\n000\n",
		},
		{
			name:  "dead cell with three neighbors is born",
			board: "101\n000\n010\n",
			want:  "000\n010\n000\n",
		},
		{
			name:  "corner block survives at the edge",
			board: "11\n11\n",
			want:  "11\n11\n",
		},
		{
			name:  "single row",
			board: "111\n",
			want:  "010\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Transition(mustParse(t, tt.board))
			if got.String() != tt.want {
				t.Errorf("Transition() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestDeadCellStaysDeadWithTwoOrFourNeighbors(t *testing.T) {
	for _, board := range []string{
		"100\n000\n001\n", // two neighbors
		"101\n000\n101\n", // four neighbors
	} {
		next := Transition(mustParse(t, board))
		if next.Get(1, 1) {
			t.Errorf("center of\n%sbecame alive", board)
		}
	}
}

func TestBlinkerHasPeriodTwo(t *testing.T) {
	start := mustParse(t, "00000\n00000\n01110\n00000\n00000\n")
	once := Transition(start)
	twice := Transition(once)

	if sameBoard(once, start) {
		t.Error("blinker did not change after one generation")
	}
	if !sameBoard(twice, start) {
		t.Errorf("blinker after two generations =\n%s", twice)
	}
}

func TestTransitionPreservesDimensions(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, size := range [][2]int{{1, 1}, {1, 7}, {7, 1}, {13, 5}, {40, 25}} {
		b := RandomBoard(size[0], size[1], 0.4, rnd)
		next := Transition(b)
		if next.GetWidth() != size[0] || next.GetHeight() != size[1] {
			t.Errorf("%dx%d board became %dx%d", size[0], size[1], next.GetWidth(), next.GetHeight())
		}
	}
}

func TestAllDeadBoardStaysDead(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {3, 9}, {30, 20}} {
		next := Transition(NewBoard(size[0], size[1]))
		if next.CountLivingCells() != 0 {
			t.Errorf("%dx%d dead board produced %d living cells", size[0], size[1], next.CountLivingCells())
		}
	}
}

func TestTransitionDoesNotModifyInput(t *testing.T) {
	b := mustParse(t, "0100\n0010\n1110\n0000\n")
	before := b.String()

	next := Transition(b)
	if b.String() != before {
		t.Errorf("input board changed to\n%s", b)
	}
	if next == b {
		t.Error("Transition returned its input")
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	pool := NewBoardPool()

	for _, size := range [][2]int{{1, 1}, {5, 3}, {64, 97}, {100, 35}} {
		b := RandomBoard(size[0], size[1], 0.35, rnd)
		for range 5 {
			seq := b.NextGenerationSequential(nil)
			par := b.NextGenerationParallel(pool)
			if !sameBoard(seq, par) {
				t.Fatalf("%dx%d: parallel result differs from sequential", size[0], size[1])
			}
			BoardToPool(par, pool)
			b = seq
		}
	}
}

func TestNextGenerationUsesConfig(t *testing.T) {
	b := mustParse(t, "00000\n00000\n01110\n00000\n00000\n")
	want := Transition(b)

	config := utils.DefaultConfig()
	for _, parallel := range []bool{false, true} {
		config.UseParallel = parallel
		if got := b.NextGeneration(config, NewBoardPool()); !sameBoard(got, want) {
			t.Errorf("UseParallel=%v: got\n%s", parallel, got)
		}
	}
}

func TestPooledBoardHasNoStaleCells(t *testing.T) {
	pool := NewBoardPool()
	dirty := pool.Get(NewBoard(3, 3))
	dirty.Set(0, 0, true)
	dirty.Set(2, 2, true)
	pool.Put(dirty)

	next := NewBoard(3, 3).NextGenerationSequential(pool)
	if next.CountLivingCells() != 0 {
		t.Errorf("stale cells leaked into the next generation:\n%s", next)
	}
}
