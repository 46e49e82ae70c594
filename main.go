package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/budget-worksheet-converter/internal/config"
	"github.com/insightdelivered/budget-worksheet-converter/internal/extractor"
	"github.com/insightdelivered/budget-worksheet-converter/internal/logging"
	"github.com/insightdelivered/budget-worksheet-converter/internal/parser"
	"github.com/insightdelivered/budget-worksheet-converter/internal/spans"
	"github.com/insightdelivered/budget-worksheet-converter/internal/store"
	"github.com/insightdelivered/budget-worksheet-converter/internal/writer"
)

const version = "2.0.0"

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "budget-worksheet-converter",
		Short: "Convert Hawaii budget worksheet PDFs to delimited rows",
		Long: `Budget Worksheet Converter

Converts Hawaii State Legislature budget worksheets (program pages and
department summary pages) into one row per line item, inferring the
fixed-width column layout from the text of every page.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	root.AddCommand(newConvertCmd(opts), newServeCmd(opts))
	return root
}

// load reads the configuration and builds the logger.
func (o *rootOptions) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	return cfg, logging.New(level, cfg.Log.Pretty, os.Stderr), nil
}

type convertOptions struct {
	output      string
	delimiter   string
	noHeader    bool
	databaseURL string
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <input.pdf|input.txt> [input2 ...]",
		Short: "Convert worksheets to TSV/CSV",
		Example: `  # Convert a worksheet PDF to worksheet.tsv
  budget-worksheet-converter convert worksheet.pdf

  # Comma separated output to a chosen file
  budget-worksheet-converter convert --delimiter=comma --output=agr.csv worksheet.pdf

  # Text already produced by pdftotext -layout -fixed 4
  budget-worksheet-converter convert worksheet.txt

  # Also store the rows in PostgreSQL
  budget-worksheet-converter convert --database-url=postgres://localhost/budget worksheet.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "" && len(args) > 1 {
				return errors.New("--output can only be used with a single input file")
			}
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cmd.OutOrStdout(), cfg, logger, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file path (defaults to the input name with .tsv or .csv)")
	cmd.Flags().StringVarP(&opts.delimiter, "delimiter", "d", "tab", "Field delimiter: tab, comma, pipe, semicolon or a single character")
	cmd.Flags().BoolVar(&opts.noHeader, "no-header", false, "Omit the column header row")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL to store rows in (overrides database.url)")
	return cmd
}

func runConvert(ctx context.Context, out io.Writer, cfg *config.Config, logger zerolog.Logger, opts *convertOptions, inputs []string) error {
	delim, err := writer.ParseDelimiter(opts.delimiter)
	if err != nil {
		return err
	}
	w := &writer.DelimitedWriter{Delimiter: delim, IncludeHeader: !opts.noHeader}

	var sink *store.PostgresSink
	if url := firstNonEmpty(opts.databaseURL, cfg.Database.URL); url != "" {
		if sink, err = store.Open(ctx, url); err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	c := &converter{
		out:       out,
		extractor: extractor.New(cfg.Extract.Pdftotext, cfg.Extract.Fixed, logger),
		parser:    parser.New(cfg.ParserLayout(), logger),
		writer:    w,
		sink:      sink,
		logger:    logger,
	}
	for _, input := range inputs {
		if err := c.processFile(ctx, input, opts.output); err != nil {
			return fmt.Errorf("processing %s: %w", input, err)
		}
	}
	return nil
}

type converter struct {
	out       io.Writer
	extractor *extractor.Extractor
	parser    *parser.Parser
	writer    *writer.DelimitedWriter
	sink      *store.PostgresSink
	logger    zerolog.Logger
}

func (c *converter) processFile(ctx context.Context, inputPath, outputPath string) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %w", err)
	}

	fmt.Fprintf(c.out, "Processing: %s\n", inputPath)

	pages, err := c.readPages(ctx, inputPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "  Extracted text from %d page(s)\n", len(pages))

	// Each document starts from an empty registry.
	doc, err := c.parser.ParseDocument(pages, spans.Registry{})
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	rows := doc.Rows()
	fmt.Fprintf(c.out, "  Found %d row(s); program columns %v, department summary columns %v\n",
		len(rows), doc.Registry.Program, doc.Registry.DepartmentSummary)

	outPath := outputPath
	if outPath == "" {
		outPath = defaultOutputPath(inputPath, c.writer.Delimiter)
	}
	if outPath == inputPath {
		return fmt.Errorf("output path %s would overwrite the input", outPath)
	}
	if err := c.writer.WriteToFile(outPath, rows); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	c.logger.Debug().Str("file", inputPath).Str("output", outPath).Int("pages", len(doc.Pages)).Msg("file converted")
	fmt.Fprintf(c.out, "  Output: %s\n", outPath)

	if c.sink != nil {
		docID := uuid.NewString()
		if err := c.sink.SaveRows(ctx, docID, rows); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "  Stored as document %s\n", docID)
	}

	fmt.Fprintln(c.out, "  Done.")
	return nil
}

// readPages extracts PDFs and reads anything else as pdftotext output.
func (c *converter) readPages(ctx context.Context, path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err := c.extractor.ExtractText(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("PDF extraction failed: %w", err)
		}
		return pages, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return extractor.SplitPages(string(data)), nil
}

func defaultOutputPath(inputPath string, delim rune) string {
	ext := ".tsv"
	if delim == ',' {
		ext = ".csv"
	}
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ext
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

