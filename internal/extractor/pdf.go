package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// DefaultFixed is the pdftotext -fixed pitch the worksheet column layout is
// calibrated for.
const DefaultFixed = 4

// ErrNoWorksheetText is returned when extraction produced text that does not
// look like a budget worksheet, e.g. a scanned document.
var ErrNoWorksheetText = errors.New("no readable worksheet text in PDF")

// Extractor turns a worksheet PDF into one text block per page.
type Extractor struct {
	PdftotextPath string
	Fixed         int
	Logger        zerolog.Logger
}

// New returns an extractor that shells out to pdftotext when it is
// installed and falls back to the pure Go reader otherwise.
func New(pdftotextPath string, fixed int, logger zerolog.Logger) *Extractor {
	return &Extractor{PdftotextPath: pdftotextPath, Fixed: fixed, Logger: logger}
}

func (e *Extractor) fixed() int {
	if e.Fixed <= 0 {
		return DefaultFixed
	}
	return e.Fixed
}

// ExtractText returns the layout text of every page of the PDF at path.
func (e *Extractor) ExtractText(ctx context.Context, path string) ([]string, error) {
	bin := e.PdftotextPath
	if bin == "" {
		bin = "pdftotext"
	}

	var (
		pages []string
		err   error
	)
	if resolved, lookErr := exec.LookPath(bin); lookErr == nil {
		pages, err = e.extractWithPdftotext(ctx, resolved, path)
	} else {
		e.Logger.Warn().Err(lookErr).Str("pdftotext", bin).
			Msg("pdftotext not available, using built-in layout reconstruction")
		pages, err = e.extractWithLibrary(path)
	}
	if err != nil {
		return nil, err
	}
	if !isWorksheetText(pages) {
		return nil, ErrNoWorksheetText
	}

	e.Logger.Debug().Str("file", path).Int("pages", len(pages)).Msg("text extracted")
	return pages, nil
}

func (e *Extractor) extractWithPdftotext(ctx context.Context, bin, path string) ([]string, error) {
	cmd := exec.CommandContext(ctx, bin, "-layout", "-fixed", strconv.Itoa(e.fixed()), path, "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pdftotext failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}
	return SplitPages(string(out)), nil
}

// SplitPages splits pdftotext output on form feeds. pdftotext terminates
// every page with a form feed, so a blank final element is dropped.
func SplitPages(text string) []string {
	if text == "" {
		return nil
	}
	pages := strings.Split(text, "\f")
	if last := pages[len(pages)-1]; strings.TrimSpace(last) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

// extractWithLibrary rebuilds each page's fixed-width layout from the text
// positions reported by ledongthuc/pdf.
func (e *Extractor) extractWithLibrary(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	if n == 0 {
		return nil, errors.New("PDF has no pages")
	}

	grid := Grid{CharWidth: float64(e.fixed())}
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, grid.Layout(glyphs(p.Content().Text)))
	}
	return pages, nil
}

func glyphs(texts []pdf.Text) []Glyph {
	out := make([]Glyph, 0, len(texts))
	for _, t := range texts {
		out = append(out, Glyph{X: t.X, Y: t.Y, Size: t.FontSize, S: t.S})
	}
	return out
}

// isWorksheetText reports whether any page carries the worksheet banner.
func isWorksheetText(pages []string) bool {
	for _, p := range pages {
		if strings.Contains(p, "BUDGET WORKSHEET") {
			return true
		}
	}
	return false
}
