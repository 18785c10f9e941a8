// Package ingest turns uploaded listing and guideline files into normalized
// documents ready for chunking and indexing.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kart-io/logger"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/kart-io/propertyai/internal/model"
)

// structuredMetaFields are the spreadsheet columns promoted into document
// metadata for filter matching.
var structuredMetaFields = map[string]bool{
	"location": true,
	"price":    true,
	"bhk":      true,
	"title":    true,
	"id":       true,
}

// cleanPattern matches every character stripped during normalization. Word
// characters, whitespace, common punctuation, and the rupee sign survive.
var cleanPattern = regexp.MustCompile(`[^\w\s.,;:!?\-()\[\]₹]`)

// CleanText strips control and decorative characters from extracted text and
// trims surrounding whitespace.
func CleanText(s string) string {
	return strings.TrimSpace(cleanPattern.ReplaceAllString(s, ""))
}

// Normalizer converts source files into model.Document values. Tabular rows
// become one property document each; a PDF becomes a single guidelines
// document with page markers.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeFile dispatches on the file extension. Supported: .csv, .xlsx,
// .xls, .pdf.
func (n *Normalizer) NormalizeFile(path, source string) ([]model.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return n.normalizeCSVFile(path, source)
	case ".xlsx", ".xls":
		return n.NormalizeExcel(path, source)
	case ".pdf":
		return n.NormalizePDF(path, source)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func (n *Normalizer) normalizeCSVFile(path, source string) ([]model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()
	return n.NormalizeCSV(f, source)
}

// NormalizeCSV reads header plus rows and emits one property document per
// row. Cells that are empty are omitted from the content entirely.
func (n *Normalizer) NormalizeCSV(r io.Reader, source string) ([]model.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}

	headers := records[0]
	docs := make([]model.Document, 0, len(records)-1)
	for i, row := range records[1:] {
		doc := n.rowDocument(headers, row, source, i)
		if doc.Content == "" {
			continue
		}
		docs = append(docs, doc)
	}

	logger.Infow("normalized tabular file", "source", source, "rows", len(docs))
	return docs, nil
}

// NormalizeExcel walks every sheet of a workbook and emits one property
// document per row, mirroring the CSV path. A sheet that fails to read or
// has no data rows is skipped; other sheets still contribute.
func (n *Normalizer) NormalizeExcel(path, source string) ([]model.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var docs []model.Document
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			logger.Warnw("skipping unreadable sheet", "source", source, "sheet", sheet, "error", err.Error())
			continue
		}
		if len(rows) < 2 {
			logger.Warnw("skipping sheet without data rows", "source", source, "sheet", sheet)
			continue
		}

		headers := rows[0]
		for i, row := range rows[1:] {
			doc := n.rowDocument(headers, row, source, i)
			if doc.Content == "" {
				continue
			}
			docs = append(docs, doc)
		}
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("workbook has no usable rows")
	}

	logger.Infow("normalized tabular file", "source", source, "rows", len(docs))
	return docs, nil
}

// rowDocument builds "header: value" fragments joined with " | " and
// promotes the known structured columns into metadata.
func (n *Normalizer) rowDocument(headers, row []string, source string, rowIdx int) model.Document {
	parts := make([]string, 0, len(headers))
	metadata := map[string]string{
		model.MetaSource:  source,
		model.MetaDocType: model.DocTypeProperty,
		model.MetaRowID:   fmt.Sprintf("%d", rowIdx),
	}

	for col, header := range headers {
		if col >= len(row) {
			break
		}
		value := strings.TrimSpace(row[col])
		if value == "" {
			continue
		}
		header = strings.TrimSpace(header)
		parts = append(parts, fmt.Sprintf("%s: %s", header, value))

		key := strings.ToLower(header)
		if structuredMetaFields[key] {
			metadata[key] = value
		}
	}

	return model.Document{
		Content:  CleanText(strings.Join(parts, " | ")),
		Metadata: metadata,
	}
}

// pageMarkerPattern matches the per-page separators inserted while
// assembling PDF text. They are removed from the final content.
var pageMarkerPattern = regexp.MustCompile(`---\s*Page\s+\d+\s*---`)

// whitespacePattern matches runs of whitespace collapsed to a single space
// in the final content.
var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizePDF extracts plain text per page and returns a single guidelines
// document. Page markers are stripped and whitespace runs collapsed so the
// content chunks on words alone. Pages whose extraction fails are skipped
// rather than failing the whole file.
func (n *Normalizer) NormalizePDF(path, source string) ([]model.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	pages := reader.NumPage()
	extracted := 0
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warnw("failed to extract pdf page", "source", source, "page", i, "error", err.Error())
			continue
		}
		text = CleanText(text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "--- Page %d ---\n%s\n", i, text)
		extracted++
	}

	content := pageMarkerPattern.ReplaceAllString(sb.String(), " ")
	content = strings.TrimSpace(whitespacePattern.ReplaceAllString(content, " "))
	if content == "" {
		logger.Warnw("no extractable text in pdf", "source", source)
		return nil, nil
	}

	logger.Infow("normalized pdf", "source", source, "pages", extracted)
	return []model.Document{{
		Content: content,
		Metadata: map[string]string{
			model.MetaSource:  source,
			model.MetaDocType: model.DocTypeGuidelines,
		},
	}}, nil
}
