// Package file loads observation tables from CSV and XLSX files.
package file

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gtheory/domain/dataset"
	"gtheory/domain/gtheory"
	"gtheory/internal"
	"gtheory/internal/errors"
)

// DataReader handles reading Excel and CSV observation files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	log      *internal.Logger
}

// NewDataReader creates a reader that handles both Excel and CSV files
func NewDataReader(filePath string, log *internal.Logger) *DataReader {
	if log == nil {
		log = internal.DefaultLogger
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType, log: log}
}

// Result is a loaded observation table with its provenance and any columns
// the loader had to discard.
type Result struct {
	Table    *dataset.Table
	Manifest *dataset.IngestManifest
	Warnings []gtheory.Warning
}

// Read loads the file into a long-format table. Columns are matched against
// the facet names case-insensitively with whitespace collapsed; columns that
// are neither a facet nor the response are dropped with a warning. Responses
// that are empty or unparseable load as NaN so the analysis session can
// decide how to treat them.
func (r *DataReader) Read(facets []string, responseColumn string) (*Result, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.DataInvalid(fmt.Sprintf("%s file not found: %s",
			strings.ToUpper(r.fileType), r.filePath))
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, errors.DataInvalid("unsupported file type: " + r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.DataInvalid("input file must have a header row and at least one data row")
	}

	return r.processRows(rows, facets, responseColumn)
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
	}
	r.log.Debug("read %d rows from %s sheet %s", len(rows), r.filePath, sheet)
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	r.log.Debug("read %d rows from %s", len(rows), r.filePath)
	return rows, nil
}

func (r *DataReader) processRows(rows [][]string, facets []string, responseColumn string) (*Result, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeColumn(h)
	}

	wantResponse := normalizeColumn(responseColumn)
	facetIndex := make(map[string]int, len(facets))
	responseIdx := -1
	var warnings []gtheory.Warning
	var dropped []string

	for i, h := range headers {
		switch {
		case h == wantResponse:
			responseIdx = i
		case containsString(facets, h):
			facetIndex[h] = i
		default:
			dropped = append(dropped, h)
			warnings = append(warnings, gtheory.Warning{
				Code:      gtheory.WarningDroppedColumn,
				Component: h,
				Detail:    "column is neither a facet nor the response, dropped",
			})
		}
	}

	if responseIdx < 0 {
		return nil, errors.DataInvalid(fmt.Sprintf("response column %q not found", responseColumn))
	}
	for _, f := range facets {
		if _, ok := facetIndex[f]; !ok {
			return nil, errors.DataInvalid(fmt.Sprintf("facet column %q not found", f))
		}
	}

	table := dataset.NewTable(facets)
	missing := 0
	for _, row := range rows[1:] {
		levels := make([]string, len(facets))
		for i, f := range facets {
			idx := facetIndex[f]
			if idx >= len(row) {
				return nil, errors.DataInvalid("data row is shorter than the header row")
			}
			levels[i] = strings.TrimSpace(row[idx])
		}

		response := math.NaN()
		if responseIdx < len(row) {
			raw := strings.TrimSpace(row[responseIdx])
			if raw != "" {
				if v, err := strconv.ParseFloat(raw, 64); err == nil {
					response = v
				}
			}
		}
		if math.IsNaN(response) {
			missing++
		}
		if err := table.Append(levels, response); err != nil {
			return nil, err
		}
	}

	manifest := dataset.NewIngestManifest(r.filePath, wantResponse, table)
	manifest.DroppedColumns = dropped
	manifest.MissingRows = missing

	r.log.Info("loaded %s: %d rows, %d facets, %d missing responses",
		r.filePath, table.NumRows(), len(facets), missing)

	return &Result{Table: table, Manifest: manifest, Warnings: warnings}, nil
}

// normalizeColumn lowercases a header and collapses internal whitespace so
// design strings and file headers match without fuss.
func normalizeColumn(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
