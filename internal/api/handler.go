package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/budget-worksheet-converter/internal/extractor"
	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
	"github.com/insightdelivered/budget-worksheet-converter/internal/parser"
	"github.com/insightdelivered/budget-worksheet-converter/internal/spans"
	"github.com/insightdelivered/budget-worksheet-converter/internal/writer"
)

// TextExtractor turns an uploaded PDF into page texts.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) ([]string, error)
}

// RowSink persists the rows of a converted document.
type RowSink interface {
	SaveRows(ctx context.Context, documentID string, rows []models.Row) error
}

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success    bool            `json:"success"`
	Error      string          `json:"error,omitempty"`
	DocumentID string          `json:"documentId,omitempty"`
	Pages      int             `json:"pages"`
	RowCount   int             `json:"rowCount"`
	Columns    []string        `json:"columns,omitempty"`
	Rows       []models.Row    `json:"rows"`
	Spans      *spans.Registry `json:"spans,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Layout    parser.Layout
	Extractor TextExtractor
	Sink      RowSink // optional
	Logger    zerolog.Logger
}

// NewApp builds the fiber app with the API routes mounted.
func NewApp(h *Handler, bodyLimitMB int) *fiber.App {
	if bodyLimitMB <= 0 {
		bodyLimitMB = 32
	}
	app := fiber.New(fiber.Config{
		AppName:               "budget-worksheet-converter",
		BodyLimit:             bodyLimitMB << 20,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"engine": "fiber",
	})
}

func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	format := strings.ToLower(c.FormValue("format", "json"))
	if format != "json" && format != "tsv" && format != "csv" {
		return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Unknown format %q. Use json, tsv, or csv.", format))
	}

	pages, ferr := h.pages(c)
	if ferr != nil {
		return writeError(c, ferr.Code, ferr.Message)
	}

	docID := uuid.NewString()
	log := h.Logger.With().Str("document_id", docID).Logger()

	doc, err := parser.New(h.Layout, log).ParseDocument(pages, spans.Registry{})
	if err != nil {
		log.Warn().Err(err).Msg("conversion failed")
		return writeError(c, parseErrorStatus(err), fmt.Sprintf("Parsing failed: %v", err))
	}
	rows := doc.Rows()

	if h.Sink != nil {
		if err := h.Sink.SaveRows(c.UserContext(), docID, rows); err != nil {
			log.Error().Err(err).Msg("failed to store rows")
			return writeError(c, fiber.StatusInternalServerError, "Failed to store rows.")
		}
	}
	log.Info().Int("pages", len(doc.Pages)).Int("rows", len(rows)).Msg("document converted")

	c.Set("X-Document-Id", docID)
	if format != "json" {
		w := writer.NewTSV()
		c.Set(fiber.HeaderContentType, "text/tab-separated-values; charset=utf-8")
		if format == "csv" {
			w.Delimiter = ','
			c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		}
		var buf bytes.Buffer
		if err := w.Write(&buf, rows); err != nil {
			return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Output generation failed: %v", err))
		}
		return c.Send(buf.Bytes())
	}

	// nil marshals to JSON null, not []
	if rows == nil {
		rows = []models.Row{}
	}
	return c.JSON(ConvertResponse{
		Success:    true,
		DocumentID: docID,
		Pages:      len(doc.Pages),
		RowCount:   len(rows),
		Columns:    models.Columns,
		Rows:       rows,
		Spans:      &doc.Registry,
	})
}

// pages reads the request input: pre-extracted text in the "text" field
// takes precedence over an uploaded PDF in "file".
func (h *Handler) pages(c *fiber.Ctx) ([]string, *fiber.Error) {
	if text := c.FormValue("text"); text != "" {
		return extractor.SplitPages(text), nil
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No input. Use form field 'file' (PDF) or 'text'.")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Only PDF files are supported.")
	}
	if h.Extractor == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "PDF extraction is not configured.")
	}

	dir, err := os.MkdirTemp("", "worksheet-*")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to create temp file.")
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload.pdf")
	if err := c.SaveFile(fh, path); err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}

	pages, err := h.Extractor.ExtractText(c.UserContext(), path)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}
	return pages, nil
}

// parseErrorStatus maps worksheet errors to 422 and anything else to 500.
func parseErrorStatus(err error) int {
	switch {
	case errors.Is(err, parser.ErrStructuralMismatch),
		errors.Is(err, parser.ErrGroupInconsistency),
		errors.Is(err, spans.ErrSpanConflict):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
	})
}
