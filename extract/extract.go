// Package extract converts uploaded documents into raw text. Supported
// formats are plain text, CSV and PDF, selected by file extension.
package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/chattydevs/core/core"
)

// Text decodes an uploaded document into raw text. The filename's
// extension selects the decoder; an unsupported extension is a
// validation error.
func Text(filename string, data []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "txt":
		// Invalid UTF-8 sequences are dropped rather than rejected.
		return strings.ToValidUTF8(string(data), ""), nil
	case "csv":
		return csvText(data)
	case "pdf":
		return pdfText(data)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", core.ErrValidation, ext)
	}
}

// csvText flattens a CSV document: cells joined by spaces, one line per row.
func csvText(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var sb strings.Builder
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read csv: %w", err)
		}
		sb.WriteString(strings.Join(row, " "))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// pdfText concatenates the plain text of every page.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not fail the document.
			continue
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}
