package model

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	aliveDigit = '1'
	deadDigit  = '0'

	// maxLineLength bounds a single row of a board file
	maxLineLength = 1 << 20
)

var (
	ErrEmptyBoard     = errors.New("board has no cells")
	ErrRaggedRows     = errors.New("board rows differ in length")
	ErrInvalidCell    = errors.New("board cells must be '0' or '1'")
	ErrNotRegularFile = errors.New("not a regular file")
)

// LoadBoard reads a saved board from path. Every line is a row and every
// character a cell, '1' alive and '0' dead.
func LoadBoard(path string) (*Board, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "[LoadBoard] file '%s' does not exist", path)
		}
		return nil, errors.Wrapf(err, "[LoadBoard] failed to stat file: %+v", path)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Wrapf(ErrNotRegularFile, "[LoadBoard] file '%s'", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[LoadBoard] failed to open file: %+v", path)
	}
	defer f.Close()

	b, err := ParseBoard(f)
	if err != nil {
		return nil, errors.Wrapf(err, "[LoadBoard] failed to parse file: %+v", path)
	}
	return b, nil
}

// ParseBoard reads a board in the text format produced by Board.String.
// Windows line endings and trailing blank lines are accepted; ragged rows,
// blank rows in between and any character other than '0' or '1' are not.
func ParseBoard(r io.Reader) (*Board, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "[ParseBoard] failed to read board")
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, errors.Wrap(ErrEmptyBoard, "[ParseBoard]")
	}

	b := NewBoard(len(lines[0]), len(lines))
	for y, line := range lines {
		if len(line) != b.width {
			return nil, errors.Wrapf(ErrRaggedRows, "[ParseBoard] line %d has %d cells, want %d", y+1, len(line), b.width)
		}
		for x := 0; x < len(line); x++ {
			switch line[x] {
			case aliveDigit:
				b.cells[y][x] = true
			case deadDigit:
			default:
				return nil, errors.Wrapf(ErrInvalidCell, "[ParseBoard] line %d column %d is %q", y+1, x+1, line[x])
			}
		}
	}
	return b, nil
}

// SaveBoard writes b to path so that LoadBoard can read it back
func SaveBoard(path string, b *Board) error {
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "[SaveBoard] failed to write file: %+v", path)
	}
	return nil
}
