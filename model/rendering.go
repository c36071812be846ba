package model

import (
	"bytes"
	"io"
	"strings"
	"sync"

	"github.com/jpillora/ansi"
)

const (
	borderCorner     = "."
	borderHorizontal = "-"
	borderVertical   = "|"
)

// Glyphs are the strings drawn for live and dead cells
type Glyphs struct {
	Alive string
	Dead  string
}

// Frame draws b as a bordered grid, each line ended by newline
func (g Glyphs) Frame(b *Board, newline string) []byte {
	var buf bytes.Buffer
	border := borderCorner + strings.Repeat(borderHorizontal, b.width) + borderCorner + newline

	buf.WriteString(border)
	for y := range b.height {
		buf.WriteString(borderVertical)
		for x := range b.width {
			if b.cells[y][x] {
				buf.WriteString(g.Alive)
			} else {
				buf.WriteString(g.Dead)
			}
		}
		buf.WriteString(borderVertical)
		buf.WriteString(newline)
	}
	buf.WriteString(border)
	return buf.Bytes()
}

// TerminalRenderer draws boards on a terminal
type TerminalRenderer struct {
	term   *ansi.Ansi
	glyphs Glyphs
	closed chan struct{}
	once   sync.Once
}

// NewTerminalRenderer wraps out, usually os.Stdout. The renderer never reads
// from the terminal.
func NewTerminalRenderer(out io.Writer, glyphs Glyphs) *TerminalRenderer {
	closed := make(chan struct{})
	return &TerminalRenderer{
		term:   ansi.Wrap(drawOnly{Writer: out, closed: closed}),
		glyphs: glyphs,
		closed: closed,
	}
}

// Display renders the board to the terminal
func (r *TerminalRenderer) Display(b *Board) {
	r.term.Write(r.glyphs.Frame(b, "\n"))
}

// Clear clears the terminal screen and homes the cursor
func (r *TerminalRenderer) Clear() {
	r.term.EraseScreen()
	r.term.Goto(1, 1)
}

// HideCursor hides the cursor while the game is drawing
func (r *TerminalRenderer) HideCursor() {
	r.term.CursorHide()
}

// Close restores the cursor and terminal attributes
func (r *TerminalRenderer) Close() {
	r.once.Do(func() {
		r.term.CursorShow()
		r.term.Set(ansi.Reset)
		close(r.closed)
	})
}

// drawOnly adapts a writer to the io.ReadWriter ansi expects. Reads block
// until the renderer is closed.
type drawOnly struct {
	io.Writer
	closed <-chan struct{}
}

func (d drawOnly) Read([]byte) (int, error) {
	<-d.closed
	return 0, io.EOF
}
