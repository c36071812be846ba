package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sheikhrachel/go-life/model"
	"github.com/sheikhrachel/go-life/store"
	"github.com/sheikhrachel/go-life/utils"
)

const blinker = "00000\n00000\n01110\n00000\n00000\n"

func parseBoard(t *testing.T, text string) *model.Board {
	t.Helper()
	b, err := model.ParseBoard(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func newTestGame(t *testing.T, config utils.Config, board *model.Board) *game {
	t.Helper()
	g := &game{
		config: config,
		board:  board,
		glyphs: model.Glyphs{Alive: config.AliveGlyph, Dead: config.DeadGlyph},
		stats:  utils.NewStats(),
		pool:   model.NewBoardPool(),
		out:    io.Discard,
	}
	g.renderer = model.NewTerminalRenderer(io.Discard, g.glyphs)
	t.Cleanup(g.renderer.Close)
	return g
}

func TestInitialBoardFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plus.txt")
	if err := os.WriteFile(path, []byte("010\n111\n010\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	config := utils.DefaultConfig()
	config.LoadPath = path
	board, generation, err := initialBoard(config, nil)
	if err != nil {
		t.Fatalf("initialBoard failed: %v", err)
	}
	if generation != 0 {
		t.Errorf("generation = %d, want 0", generation)
	}
	if board.String() != "010\n111\n010\n" {
		t.Errorf("board = %q", board.String())
	}
}

func TestInitialBoardMissingFile(t *testing.T) {
	config := utils.DefaultConfig()
	config.LoadPath = filepath.Join(t.TempDir(), "missing.txt")
	if _, _, err := initialBoard(config, nil); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestInitialBoardRandom(t *testing.T) {
	config := utils.DefaultConfig()
	config.Width, config.Height = 12, 7
	board, _, err := initialBoard(config, nil)
	if err != nil {
		t.Fatalf("initialBoard failed: %v", err)
	}
	if board.GetWidth() != 12 || board.GetHeight() != 7 {
		t.Errorf("size = %dx%d, want 12x7", board.GetWidth(), board.GetHeight())
	}
}

func TestInitialBoardResume(t *testing.T) {
	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "life.db"), false)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	saved := parseBoard(t, blinker)
	if err = db.SaveSnapshot(store.LatestSnapshot, store.Snapshot{Generation: 41, Board: saved}); err != nil {
		t.Fatal(err)
	}

	config := utils.DefaultConfig()
	config.Resume = true
	board, generation, err := initialBoard(config, db)
	if err != nil {
		t.Fatalf("initialBoard failed: %v", err)
	}
	if generation != 41 || board.String() != saved.String() {
		t.Errorf("resumed generation %d board\n%s", generation, board)
	}
}

func TestRunStopsAfterMaxGenerations(t *testing.T) {
	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "life.db"), false)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	config := utils.DefaultConfig()
	config.FrameRate = time.Millisecond
	config.MaxGenerations = 3
	g := newTestGame(t, config, parseBoard(t, blinker))
	g.db = db

	run(g, make(chan os.Signal))

	if g.generation != 3 {
		t.Fatalf("generation = %d, want 3", g.generation)
	}
	want := "00000\n00100\n00100\n00100\n00000\n"
	if g.board.String() != want {
		t.Errorf("board after 3 generations =\n%s", g.board)
	}

	snap, err := db.LoadSnapshot(store.LatestSnapshot)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap.Generation != 3 || snap.Board.String() != want {
		t.Errorf("snapshot generation %d board\n%s", snap.Generation, snap.Board)
	}
}

func TestRunStopsOnSignal(t *testing.T) {
	config := utils.DefaultConfig()
	config.FrameRate = time.Hour
	g := newTestGame(t, config, parseBoard(t, blinker))

	sigChan := make(chan os.Signal, 1)
	sigChan <- syscall.SIGINT
	run(g, sigChan)

	if g.generation != 0 {
		t.Errorf("generation = %d, want 0", g.generation)
	}
}

func TestRunWithParallelEngine(t *testing.T) {
	config := utils.DefaultConfig()
	config.FrameRate = time.Millisecond
	config.MaxGenerations = 2
	config.UseParallel = true
	g := newTestGame(t, config, parseBoard(t, blinker))

	run(g, make(chan os.Signal))

	if g.board.String() != blinker {
		t.Errorf("blinker after 2 generations =\n%s", g.board)
	}
}

func TestShutdownSavesBoard(t *testing.T) {
	config := utils.DefaultConfig()
	config.SavePath = filepath.Join(t.TempDir(), "final.txt")
	g := newTestGame(t, config, parseBoard(t, blinker))

	if err := g.shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	saved, err := model.LoadBoard(config.SavePath)
	if err != nil {
		t.Fatalf("LoadBoard failed: %v", err)
	}
	if saved.String() != blinker {
		t.Errorf("saved board =\n%s", saved)
	}
}

func TestInitializeGameWithSpectators(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := utils.DefaultConfig()
	config.Width, config.Height = 8, 4
	config.DBPath = filepath.Join(t.TempDir(), "life.db")
	config.SSHAddr = "127.0.0.1:0"

	g, err := initializeGame(ctx, config)
	if err != nil {
		t.Fatalf("initializeGame failed: %v", err)
	}
	defer g.closeDatabase()
	defer g.renderer.Close()

	if g.spectators == nil || g.spectators.Addr() == nil {
		t.Fatal("spectator server was not started")
	}
	if g.db == nil {
		t.Fatal("database was not opened")
	}
	if g.board.GetWidth() != 8 || g.board.GetHeight() != 4 {
		t.Errorf("size = %dx%d, want 8x4", g.board.GetWidth(), g.board.GetHeight())
	}
}

func TestRenderShowsCensus(t *testing.T) {
	config := utils.DefaultConfig()
	config.ShowStats = true
	g := newTestGame(t, config, parseBoard(t, blinker))
	var out bytes.Buffer
	g.out = &out

	g.render(time.Now())

	for _, want := range []string{
		"Gen: 0 | Living: 3",
		"underpopulation 2 | survival 1 | overpopulation 0 | reproduction 2",
		"Births: 2 | Deaths: 2",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status output is missing %q:\n%s", want, out.String())
		}
	}
	if g.stats.TotalBirths != 2 || g.stats.TotalDeaths != 2 {
		t.Errorf("stats births/deaths = %d/%d, want 2/2", g.stats.TotalBirths, g.stats.TotalDeaths)
	}
}
