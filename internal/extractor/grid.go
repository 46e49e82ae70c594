package extractor

import (
	"math"
	"sort"
	"strings"
)

// Glyph is a positioned text fragment in PDF user space (Y grows upwards).
type Glyph struct {
	X, Y float64
	Size float64
	S    string
}

// Grid places glyphs on a character grid so the page reads like
// pdftotext -layout -fixed output.
type Grid struct {
	CharWidth float64 // points per column
}

const (
	defaultLineHeight = 12
	maxBlankLines     = 2
)

// Layout renders glyphs as lines, top of the page first. Glyphs whose
// rounded Y is equal share a line; a glyph that would overwrite text is
// pushed right.
func (g Grid) Layout(glyphs []Glyph) string {
	cw := g.CharWidth
	if cw <= 0 {
		cw = DefaultFixed
	}

	rows := make(map[int][]Glyph)
	var sizes []float64
	for _, gl := range glyphs {
		if strings.TrimSpace(gl.S) == "" {
			continue
		}
		y := int(math.Round(gl.Y))
		rows[y] = append(rows[y], gl)
		if gl.Size > 0 {
			sizes = append(sizes, gl.Size)
		}
	}
	if len(rows) == 0 {
		return ""
	}

	ys := make([]int, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))
	lh := median(sizes)

	var lines []string
	for i, y := range ys {
		if i > 0 {
			gap := int(math.Round(float64(ys[i-1]-y)/lh)) - 1
			for range min(max(gap, 0), maxBlankLines) {
				lines = append(lines, "")
			}
		}
		lines = append(lines, layoutRow(rows[y], cw))
	}
	return strings.Join(lines, "\n")
}

func layoutRow(row []Glyph, cw float64) string {
	sort.SliceStable(row, func(a, b int) bool { return row[a].X < row[b].X })

	var line []rune
	for _, gl := range row {
		col := max(int(math.Round(gl.X/cw)), len(line))
		for len(line) < col {
			line = append(line, ' ')
		}
		line = append(line, []rune(gl.S)...)
	}
	return strings.TrimRight(string(line), " ")
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return defaultLineHeight
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return s[len(s)/2]
}
