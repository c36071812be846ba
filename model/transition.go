package model

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sheikhrachel/go-life/rules"
	"github.com/sheikhrachel/go-life/utils"
)

// Transition computes the next generation of b into a newly allocated board
func Transition(b *Board) *Board {
	return b.NextGenerationSequential(nil)
}

// NextGeneration calculates the next generation based on configuration
func (b *Board) NextGeneration(config utils.Config, pool *BoardPool) *Board {
	if config.UseParallel {
		return b.NextGenerationParallel(pool)
	}
	return b.NextGenerationSequential(pool)
}

// NextGenerationSequential calculates the next generation on the calling goroutine
func (b *Board) NextGenerationSequential(pool *BoardPool) *Board {
	next := b.blank(pool)
	b.stepRows(next, 0, b.height)
	return next
}

// NextGenerationParallel calculates the next generation using parallel processing
func (b *Board) NextGenerationParallel(pool *BoardPool) *Board {
	next := b.blank(pool)

	var (
		eg            errgroup.Group
		numWorkers    = runtime.NumCPU()
		rowsPerWorker = (b.height + numWorkers - 1) / numWorkers // Ceiling division
	)

	for i := range numWorkers {
		var (
			startRow = i * rowsPerWorker
			endRow   = min(startRow+rowsPerWorker, b.height)
		)
		if startRow >= b.height {
			break
		}

		eg.Go(func() error {
			b.stepRows(next, startRow, endRow)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		fmt.Printf("Error in parallel processing: %v\n", err)
	}

	return next
}

// stepRows writes rows [startRow, endRow) of the next generation. It only
// reads from b and only writes to its own rows of next.
func (b *Board) stepRows(next *Board, startRow, endRow int) {
	for y := startRow; y < endRow; y++ {
		for x := range b.width {
			next.cells[y][x] = rules.ApplyConwayRules(b.CountNeighbors(x, y), b.cells[y][x])
		}
	}
}

func (b *Board) blank(pool *BoardPool) *Board {
	if pool != nil {
		return pool.Get(b)
	}
	return NewBoard(b.width, b.height)
}
