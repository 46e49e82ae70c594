package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
	"github.com/insightdelivered/budget-worksheet-converter/internal/spans"
)

// Parser turns worksheet page text into records. It holds no state between
// pages: the span registry is passed in and returned explicitly.
type Parser struct {
	layout Layout
	logger zerolog.Logger
}

// New returns a parser for the given layout.
func New(layout Layout, logger zerolog.Logger) *Parser {
	return &Parser{layout: layout, logger: logger}
}

// Document is the result of parsing every page of one worksheet.
type Document struct {
	Pages    []*Page
	Registry spans.Registry
}

// Rows returns the output rows of every page in document order.
func (d *Document) Rows() []models.Row {
	var rows []models.Row
	for _, pg := range d.Pages {
		rows = append(rows, pg.Rows()...)
	}
	return rows
}

// InferPage parses the header and body of one page and merges the page's
// column evidence into reg. On error the returned registry is reg.
func (p *Parser) InferPage(reg spans.Registry, text string) (*Page, spans.Registry, error) {
	lines := strings.Split(NormalizePage(text), "\n")

	header, bodyStart, err := ParseHeader(lines)
	if err != nil {
		return nil, reg, err
	}
	if header.DepartmentCode != "" && header.Department == "" {
		p.logger.Warn().
			Int("page", header.PageNum).
			Str("department_code", header.DepartmentCode).
			Msg("department code not in lookup table")
	}

	pg := &Page{Header: header, Body: lines[bodyStart:]}
	if pg.Groups, err = p.layout.GroupLines(pg.Body); err != nil {
		return pg, reg, err
	}
	for _, content := range pg.contentLines(p.layout) {
		pg.Spans = spans.Union(pg.Spans, spans.FromLine(content))
	}

	next, err := reg.Merge(header.Kind, pg.Spans)
	if err != nil {
		var conflict *spans.SpanConflictError
		if errors.As(err, &conflict) {
			conflict.Lines = pg.conflictLines(p.layout, conflict)
			conflict.Context = pg.DebugString()
		}
		p.logger.Error().
			Int("page", header.PageNum).
			Str("kind", string(header.Kind)).
			Stringer("registry", reg.Get(header.Kind)).
			Stringer("incoming", pg.Spans).
			Msg("column evidence conflicts with confirmed spans")
		return pg, reg, err
	}

	p.logger.Debug().
		Int("page", header.PageNum).
		Str("kind", string(header.Kind)).
		Int("groups", len(pg.Groups)).
		Stringer("spans", next.Get(header.Kind)).
		Msg("page inferred")
	return pg, next, nil
}

// ExtractPage slices the page's groups with the confirmed spans for its kind.
func (p *Parser) ExtractPage(pg *Page, reg spans.Registry) error {
	kind := pg.Header.Kind
	cols, err := MapColumns(kind, reg.Get(kind), p.layout.Fields(kind))
	if err != nil {
		var conflict *spans.SpanConflictError
		if errors.As(err, &conflict) {
			conflict.Context = pg.DebugString()
		}
		return err
	}

	w := p.layout.ExplanationWidth(kind)
	pg.Records = make([]models.Record, 0, len(pg.Groups))
	for _, g := range pg.Groups {
		pg.Records = append(pg.Records, ExtractRecord(g, cols, w))
	}

	if e := p.logger.Debug(); e.Enabled() {
		e.Int("page", pg.Header.PageNum).Str("debug", pg.DebugString()).Msg("page extracted")
	}
	return nil
}

// ParseDocument infers every page in order, threading reg through, then
// extracts every page with the final registry so all pages of a kind are
// sliced with the same columns. Any error aborts the document.
func (p *Parser) ParseDocument(pages []string, reg spans.Registry) (*Document, error) {
	doc := &Document{}
	for i, text := range pages {
		pg, next, err := p.InferPage(reg, text)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pg.Index = i + 1
		doc.Pages = append(doc.Pages, pg)
		reg = next
	}

	for _, pg := range doc.Pages {
		if err := p.ExtractPage(pg, reg); err != nil {
			return nil, fmt.Errorf("page %d: %w", pg.Index, err)
		}
	}
	doc.Registry = reg

	p.logger.Info().
		Int("pages", len(doc.Pages)).
		Int("program_spans", len(reg.Program)).
		Int("department_spans", len(reg.DepartmentSummary)).
		Msg("document parsed")
	return doc, nil
}
