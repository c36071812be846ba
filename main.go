package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-life/utils"
)

func main() {
	log.SetFlags(0)

	config, err := utils.ParseArgs(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Cause(err) == flag.ErrHelp {
			os.Exit(0)
		}
		log.Fatalf("Error: %v", err)
	}
	if err = config.Validate(); err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, err := initializeGame(ctx, config)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if config.ShowStats {
		g.displayGameInfo()
	}

	// Handle Ctrl+C gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	run(g, sigChan)

	cancel()
	if err = g.shutdown(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// run is the game loop: draw, wait, advance. It returns on a signal or once
// the configured number of generations has been drawn.
func run(g *game, sigChan <-chan os.Signal) {
	lastFrameTime := time.Now()
	for {
		frameStart := time.Now()
		g.render(lastFrameTime)
		lastFrameTime = frameStart

		if err := g.persist(); err != nil {
			log.Printf("Error saving snapshot: %v", err)
		}

		if g.config.MaxGenerations > 0 && g.generation >= g.config.MaxGenerations {
			return
		}

		select {
		case <-sigChan:
			return
		case <-time.After(g.config.FrameRate):
		}

		g.step()
	}
}
