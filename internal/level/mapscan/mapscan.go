// Package mapscan converts the text block of a level map into a terrain grid.
package mapscan

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/levcomp/internal/diag"
	"github.com/cory-johannsen/levcomp/internal/level/ir"
	"github.com/cory-johannsen/levcomp/internal/level/terrain"
)

// Largest map the loader can place.
const (
	MaxWidth  = 76
	MaxHeight = 21
)

// DimensionError reports a map larger than MaxWidth × MaxHeight.
type DimensionError struct {
	Width, Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("map too large: %dx%d exceeds %dx%d", e.Width, e.Height, MaxWidth, MaxHeight)
}

// StripDigits removes every ASCII digit from s. Digits are line-numbering
// noise in map text and never terrain.
//
// Postcondition: StripDigits(StripDigits(s)) == StripDigits(s).
func StripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s)
}

// Rows splits map text into rows after stripping digits. A trailing newline
// does not start another row, and a trailing carriage return is dropped
// from each row.
func Rows(text string) []string {
	text = StripDigits(text)
	if text == "" {
		return nil
	}
	rows := strings.Split(text, "\n")
	if rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	for i, r := range rows {
		rows[i] = strings.TrimSuffix(r, "\r")
	}
	return rows
}

// Scan builds a grid from map text whose first row sits on ctx's token line.
// Unrecognized characters are reported as warnings on the line of their row
// and replaced by terrain.Default; short rows are padded with
// terrain.Default.
//
// Precondition: ctx must be non-nil.
// Postcondition: Returns a grid at least as wide as the longest row and as
// tall as the number of rows, containing only valid terrain codes, or a
// *DimensionError when the map exceeds the size limits.
func Scan(ctx *diag.Context, text string) (*ir.Grid, error) {
	rows := Rows(text)
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	height := len(rows)
	if width > MaxWidth || height > MaxHeight {
		return nil, &DimensionError{Width: width, Height: height}
	}

	first := ctx.Line(diag.AtToken)
	g := &ir.Grid{Width: width, Height: height, Rows: make([][]terrain.Type, height)}
	for y, r := range rows {
		cells := make([]terrain.Type, width)
		for x := range cells {
			if x >= len(r) {
				cells[x] = terrain.Default
				continue
			}
			t := terrain.FromChar(r[x])
			if t == terrain.Invalid {
				ctx.Report(diag.Diagnostic{
					Severity: diag.Warning,
					Line:     first + y,
					Message:  fmt.Sprintf("invalid character '%c' in map at row %d, column %d", r[x], y, x),
				})
				t = terrain.Default
			}
			cells[x] = t
		}
		g.Rows[y] = cells
	}
	return g, nil
}
