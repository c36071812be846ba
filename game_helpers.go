package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/sheikhrachel/go-life/model"
	"github.com/sheikhrachel/go-life/rules"
	"github.com/sheikhrachel/go-life/spectate"
	"github.com/sheikhrachel/go-life/store"
	"github.com/sheikhrachel/go-life/utils"
)

// spectatorNewline ends frame lines for ssh ptys, which do not translate \n
const spectatorNewline = "\r\n"

// game owns the current board and everything the loop draws it with
type game struct {
	config     utils.Config
	board      *model.Board
	generation int
	pool       *model.BoardPool
	renderer   *model.TerminalRenderer
	out        io.Writer
	glyphs     model.Glyphs
	stats      *utils.Stats
	history    model.History
	db         *store.Database
	spectators *spectate.Server
}

// initializeGame sets up the initial game state
func initializeGame(ctx context.Context, config utils.Config) (*game, error) {
	g := &game{
		config: config,
		glyphs: model.Glyphs{Alive: config.AliveGlyph, Dead: config.DeadGlyph},
		stats:  utils.NewStats(),
		out:    os.Stdout,
	}
	if config.UseMemoryPool {
		g.pool = model.NewBoardPool()
	}

	if config.DBPath != "" {
		db, err := store.NewDatabase(config.DBPath, false)
		if err != nil {
			return nil, err
		}
		g.db = db
	}

	board, generation, err := initialBoard(config, g.db)
	if err != nil {
		g.closeDatabase()
		return nil, err
	}
	g.board, g.generation = board, generation

	if config.SSHAddr != "" {
		if g.spectators, err = startSpectators(ctx, config.SSHAddr, g.db); err != nil {
			g.closeDatabase()
			return nil, err
		}
	}

	g.renderer = model.NewTerminalRenderer(g.out, g.glyphs)
	g.renderer.HideCursor()
	return g, nil
}

// initialBoard picks the starting board: a file, the stored snapshot or a
// random seed, in that order
func initialBoard(config utils.Config, db *store.Database) (*model.Board, int, error) {
	switch {
	case config.LoadPath != "":
		board, err := model.LoadBoard(config.LoadPath)
		return board, 0, err
	case config.Resume:
		snap, err := db.LoadSnapshot(store.LatestSnapshot)
		if err != nil {
			return nil, 0, err
		}
		return snap.Board, snap.Generation, nil
	default:
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		return model.RandomBoard(config.Width, config.Height, config.SpawnRate, rnd), 0, nil
	}
}

// startSpectators serves the game over ssh until ctx is done. The host key
// comes from the database when there is one.
func startSpectators(ctx context.Context, addr string, db *store.Database) (*spectate.Server, error) {
	var (
		signer ssh.Signer
		err    error
	)
	if db != nil {
		signer, err = db.HostKey()
	} else {
		signer, err = ephemeralHostKey()
	}
	if err != nil {
		return nil, err
	}

	srv := spectate.NewServer(addr, signer)
	if err = srv.Listen(); err != nil {
		return nil, err
	}
	go srv.Serve(ctx)
	return srv, nil
}

func ephemeralHostKey() (ssh.Signer, error) {
	key, err := store.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "[ephemeralHostKey] failed to parse key")
	}
	return signer, nil
}

// displayGameInfo shows the initial game information
func (g *game) displayGameInfo() {
	fmt.Fprintf(g.out, "Features: Memory Pool: %v, Parallel: %v\n", g.config.UseMemoryPool, g.config.UseParallel)
	fmt.Fprintf(g.out, "Board: %dx%d | Initial living cells: %d\n",
		g.board.GetWidth(), g.board.GetHeight(), g.board.CountLivingCells())
	if g.spectators != nil {
		fmt.Fprintf(g.out, "Spectators can connect over ssh to %s\n", g.spectators.Addr())
	}
	fmt.Fprintln(g.out, "Press Ctrl+C to exit gracefully")
	fmt.Fprintln(g.out)
}

// updateGameState updates stats and history and returns status information
func (g *game) updateGameState(lastFrameTime time.Time) (int, float64, string, model.Census) {
	livingCells := g.board.CountLivingCells()
	density := float64(livingCells) / float64(g.board.GetWidth()*g.board.GetHeight()) * 100

	census := g.board.Census()
	g.stats.Update(g.generation, livingCells, census.Births(), census.Deaths(), time.Since(lastFrameTime))

	// stagnation is judged against earlier generations, so check before recording
	isStagnant := g.history.IsStagnant(g.board)
	g.history.UpdateHistory(g.board)

	status := "Active"
	if isStagnant {
		status = "Stagnant"
	}
	if livingCells == 0 {
		status = "Extinct"
	}

	return livingCells, density, status, census
}

// displayGameStatus shows the current game status
func (g *game) displayGameStatus(livingCells int, density float64, status string, census model.Census) {
	fmt.Fprintf(g.out, "Gen: %d | Living: %d | Density: %.1f%% | Status: %s\n",
		g.generation, livingCells, density, status)

	fmt.Fprint(g.out, "Next:")
	for i, outcome := range rules.Outcomes {
		if i > 0 {
			fmt.Fprint(g.out, " |")
		}
		fmt.Fprintf(g.out, " %s %d", outcome, census[outcome])
	}
	fmt.Fprintf(g.out, "\nBirths: %d | Deaths: %d (total %d / %d)\n",
		g.stats.Births, g.stats.Deaths, g.stats.TotalBirths, g.stats.TotalDeaths)

	fmt.Fprintf(g.out, "Performance: %.1f gen/sec | Avg Pop: %.1f | Runtime: %.1fs\n",
		g.stats.GenerationsPerSecond, g.stats.AveragePopulation, g.stats.Runtime().Seconds())
	if g.spectators != nil {
		fmt.Fprintf(g.out, "Spectators: %d\n", g.spectators.Spectators())
	}
}

// render draws the current generation locally and for spectators
func (g *game) render(lastFrameTime time.Time) {
	livingCells, density, status, census := g.updateGameState(lastFrameTime)

	g.renderer.Clear()
	g.renderer.Display(g.board)
	if g.config.ShowStats {
		g.displayGameStatus(livingCells, density, status, census)
	}

	if g.spectators != nil {
		g.spectators.Broadcast(g.glyphs.Frame(g.board, spectatorNewline))
	}
}

// persist stores the current generation as the resumable snapshot
func (g *game) persist() error {
	if g.db == nil {
		return nil
	}
	return g.db.SaveSnapshot(store.LatestSnapshot, store.Snapshot{
		Generation: g.generation,
		Board:      g.board,
	})
}

// step replaces the current board with the next generation
func (g *game) step() {
	next := g.board.NextGeneration(g.config, g.pool)

	// Return old board to pool if using memory pooling
	model.BoardToPool(g.board, g.pool)
	g.board = next
	g.generation++
}

// shutdown restores the terminal and writes out the final board
func (g *game) shutdown() error {
	g.renderer.Close()

	var err error
	if g.config.SavePath != "" {
		err = model.SaveBoard(g.config.SavePath, g.board)
	}
	g.closeDatabase()

	fmt.Fprintf(g.out, "Final stats: %d generations in %.1f seconds\n",
		g.generation, g.stats.Runtime().Seconds())
	fmt.Fprintf(g.out, "Average: %.1f gen/sec, %.1f avg population\n",
		g.stats.GenerationsPerSecond, g.stats.AveragePopulation)
	return err
}

func (g *game) closeDatabase() {
	if g.db != nil {
		g.db.Close()
		g.db = nil
	}
}
