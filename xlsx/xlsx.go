// Copyright 2026 CSE Feed

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xlsx serializes a table to an Excel workbook and applies the
// cosmetic formatting pass in a separate reopen of the saved file.
package xlsx

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/exp/slices"

	"github.com/csefeed/csefeed/table"
)

// Sheet is the name of the single sheet written to each workbook.
const Sheet = "Sheet1"

// PercentSynonyms are the header names, compared case-insensitively, whose
// columns hold percent values: a raw -7.97 means -7.97% and is rescaled to
// -0.0797 for the percent display format. The upstream API emits percentages
// as bare numbers; this convention is assumed, not verified.
var PercentSynonyms = []string{
	"changepercentage", "change_percentage", "changepercent", "change_pct",
}

// Column width bounds, and the per-column cell scan cap of the width pass.
const (
	minColWidth  = 10
	maxColWidth  = 45
	widthScanCap = 2000
)

// Built-in number format IDs: #,##0 | #,##0.00 | 0.00%.
const (
	fmtInteger = 3
	fmtReal    = 4
	fmtPercent = 10
)

// PercentColumns returns the header names matching one of the synonyms,
// case-insensitively.
func PercentColumns(header []string, synonyms []string) []string {
	var cols []string
	for _, h := range header {
		if slices.IndexFunc(synonyms, func(s string) bool {
			return strings.EqualFold(h, s)
		}) >= 0 {
			cols = append(cols, h)
		}
	}
	return cols
}

// Write serializes the table to fileName: the header row first, then one row
// per record, no index column. The parent directory is created if absent.
// The file handle is fully closed before Write returns, so the formatting
// pass can reopen the file from disk.
func Write(t *table.Table, fileName string) error {
	if dir := filepath.Dir(fileName); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Annotate(err, "failed to create directory for '%s'", fileName)
		}
	}
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(Sheet, "A1", &header); err != nil {
		return errors.Annotate(err, "failed to write header row")
	}
	for r, row := range t.Rows {
		vals := make([]interface{}, len(row))
		for i, c := range row {
			vals[i] = c.Value()
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return errors.Annotate(err, "failed to locate row %d", r+2)
		}
		if err := f.SetSheetRow(Sheet, cell, &vals); err != nil {
			return errors.Annotate(err, "failed to write row %d", r+2)
		}
	}
	if err := f.SaveAs(fileName); err != nil {
		return errors.Annotate(err, "failed to save '%s'", fileName)
	}
	return nil
}

// Format reopens the saved workbook and applies the cosmetic pass: header
// styling, frozen header row, a filter over the populated rectangle,
// content-based column widths and numeric display formats. percentCols
// lists the exact header names whose cells are rescaled as percent values.
// The pass rewrites cell values only in percent columns; everything else is
// display formatting.
func Format(fileName string, percentCols []string) error {
	f, err := excelize.OpenFile(fileName)
	if err != nil {
		return errors.Annotate(err, "failed to open '%s'", fileName)
	}
	defer f.Close()

	rows, err := f.GetRows(Sheet)
	if err != nil {
		return errors.Annotate(err, "failed to read rows of '%s'", fileName)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}

	if err := styleHeader(f, len(rows[0])); err != nil {
		return err
	}
	if err := f.SetPanes(Sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return errors.Annotate(err, "failed to freeze the header row")
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), len(rows))
	if err != nil {
		return errors.Annotate(err, "failed to locate the table corner")
	}
	if err := f.AutoFilter(Sheet, "A1:"+last, nil); err != nil {
		return errors.Annotate(err, "failed to set the filter range")
	}
	if err := setWidths(f, rows); err != nil {
		return err
	}
	if err := formatCells(f, rows, percentCols); err != nil {
		return err
	}
	if err := f.Save(); err != nil {
		return errors.Annotate(err, "failed to save '%s'", fileName)
	}
	return nil
}

func styleHeader(f *excelize.File, numCols int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
	if err != nil {
		return errors.Annotate(err, "failed to create the header style")
	}
	last, err := excelize.CoordinatesToCellName(numCols, 1)
	if err != nil {
		return errors.Annotate(err, "failed to locate the header row")
	}
	if err := f.SetCellStyle(Sheet, "A1", last, style); err != nil {
		return errors.Annotate(err, "failed to style the header row")
	}
	return nil
}

// setWidths sets each column's display width to the longest cell text seen
// in it, padded by 2 and clamped to [minColWidth, maxColWidth]. The scan
// starts at the header and is capped at widthScanCap cells per column to
// keep large exports fast.
func setWidths(f *excelize.File, rows [][]string) error {
	for col := range rows[0] {
		maxLen := 0
		for r, row := range rows {
			if r >= widthScanCap {
				break
			}
			if col < len(row) && len(row[col]) > maxLen {
				maxLen = len(row[col])
			}
		}
		width := maxLen + 2
		if width < minColWidth {
			width = minColWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return errors.Annotate(err, "failed to name column %d", col+1)
		}
		if err := f.SetColWidth(Sheet, name, name, float64(width)); err != nil {
			return errors.Annotate(err, "failed to set width of column %s", name)
		}
	}
	return nil
}

// formatCells applies numeric display formats to every populated data cell.
// Percent columns are rescaled by 1/100 and formatted as percentages; cells
// there that do not parse as a number are silently left as is. In all other
// columns only cells stored as numbers are touched: integers get a
// thousands-separated integer format, reals a two-decimal one. Text, boolean
// and empty cells stay unmodified.
func formatCells(f *excelize.File, rows [][]string, percentCols []string) error {
	percent, err := f.NewStyle(&excelize.Style{NumFmt: fmtPercent})
	if err != nil {
		return errors.Annotate(err, "failed to create the percent style")
	}
	integer, err := f.NewStyle(&excelize.Style{NumFmt: fmtInteger})
	if err != nil {
		return errors.Annotate(err, "failed to create the integer style")
	}
	real, err := f.NewStyle(&excelize.Style{NumFmt: fmtReal})
	if err != nil {
		return errors.Annotate(err, "failed to create the real-number style")
	}

	for col, name := range rows[0] {
		isPercent := slices.Contains(percentCols, name)
		for r := 1; r < len(rows); r++ {
			if col >= len(rows[r]) || rows[r][col] == "" {
				continue
			}
			val := rows[r][col]
			cell, err := excelize.CoordinatesToCellName(col+1, r+1)
			if err != nil {
				return errors.Annotate(err, "failed to locate cell at (%d, %d)", col+1, r+1)
			}
			if isPercent {
				x, err := strconv.ParseFloat(val, 64)
				if err != nil {
					continue // not a number, leave the cell alone
				}
				if err := f.SetCellValue(Sheet, cell, x/100); err != nil {
					return errors.Annotate(err, "failed to rescale cell %s", cell)
				}
				if err := f.SetCellStyle(Sheet, cell, cell, percent); err != nil {
					return errors.Annotate(err, "failed to style cell %s", cell)
				}
				continue
			}
			ct, err := f.GetCellType(Sheet, cell)
			if err != nil {
				return errors.Annotate(err, "failed to get type of cell %s", cell)
			}
			// Number cells carry either an explicit number type or none at all.
			if ct != excelize.CellTypeNumber && ct != excelize.CellTypeUnset {
				continue
			}
			style := integer
			if _, err := strconv.ParseInt(val, 10, 64); err != nil {
				if _, err := strconv.ParseFloat(val, 64); err != nil {
					continue
				}
				style = real
			}
			if err := f.SetCellStyle(Sheet, cell, cell, style); err != nil {
				return errors.Annotate(err, "failed to style cell %s", cell)
			}
		}
	}
	return nil
}
