package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// Formats lists every supported export format.
var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX, FormatYAML}

// ListSeparator joins pros and cons into a single tabular cell.
const ListSeparator = "; "

// xlsxSheet is the worksheet holding the exported reviews.
const xlsxSheet = "opinions"

var exportColumns = []string{
	"opinion_id", "author", "recommendation", "stars", "content",
	"pros", "cons", "useful", "unuseful", "post_date", "purchase_date",
}

// ParseFormat returns the Format named by s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, s)
	}
}

// Ext returns the file extension for the format, without a dot.
func (f Format) Ext() string { return string(f) }

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

// WriteExport writes reviews to w in the given format. The output is derived
// from the reviews alone; nothing is recomputed.
func WriteExport(w io.Writer, format Format, reviews []types.Review) error {
	if reviews == nil {
		reviews = []types.Review{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		return enc.Encode(reviews)
	case FormatCSV:
		return writeCSV(w, reviews)
	case FormatXLSX:
		return writeXLSX(w, reviews)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reviews); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, format)
	}
}

// ExportFile writes reviews to <dir>/<id>.<ext> and returns the path.
func ExportFile(dir, productID string, format Format, reviews []types.Review) (string, error) {
	if err := checkID(productID); err != nil {
		return "", err
	}
	path := filepath.Join(dir, productID+"."+format.Ext())
	err := writeAtomic(path, func(w io.Writer) error {
		return WriteExport(w, format, reviews)
	})
	if err != nil {
		return "", &types.StorageError{Backend: "file", Op: "export " + string(format), Err: err}
	}
	return path, nil
}

func exportRow(r types.Review) []string {
	return []string{
		r.ID,
		r.Author,
		string(r.Recommendation),
		strconv.FormatFloat(r.Stars, 'f', -1, 64),
		r.Content,
		strings.Join(r.Pros, ListSeparator),
		strings.Join(r.Cons, ListSeparator),
		strconv.Itoa(r.Useful),
		strconv.Itoa(r.Unuseful),
		r.PostDate,
		r.PurchaseDate,
	}
}

func writeCSV(w io.Writer, reviews []types.Review) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return err
	}
	for _, r := range reviews {
		if err := cw.Write(exportRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, reviews []types.Review) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}

	header := make([]any, len(exportColumns))
	for i, c := range exportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return err
	}

	for i, r := range reviews {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.ID,
			r.Author,
			string(r.Recommendation),
			r.Stars,
			r.Content,
			strings.Join(r.Pros, ListSeparator),
			strings.Join(r.Cons, ListSeparator),
			r.Useful,
			r.Unuseful,
			r.PostDate,
			r.PurchaseDate,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
