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

package xlsx

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"github.com/csefeed/csefeed/table"

	. "github.com/smartystreets/goconvey/convey"
)

// numFmt reads the number format ID applied to a cell.
func numFmt(f *excelize.File, cell string) int {
	styleID, err := f.GetCellStyle(Sheet, cell)
	So(err, ShouldBeNil)
	style, err := f.GetStyle(styleID)
	So(err, ShouldBeNil)
	return style.NumFmt
}

// raw reads the stored (unformatted) value of a cell.
func raw(f *excelize.File, cell string) string {
	v, err := f.GetCellValue(Sheet, cell, excelize.Options{RawCellValue: true})
	So(err, ShouldBeNil)
	return v
}

func TestXLSX(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_xlsx")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("PercentColumns", t, func() {
		header := []string{"symbol", "changePercentage", "CHANGE_PCT", "price"}
		So(PercentColumns(header, PercentSynonyms), ShouldResemble,
			[]string{"changePercentage", "CHANGE_PCT"})
		So(PercentColumns([]string{"a", "b"}, PercentSynonyms), ShouldBeEmpty)
	})

	Convey("Write and Format", t, func() {
		longNote := strings.Repeat("x", 80)
		tbl := table.FromRecords(gjson.Parse(`[
			{"symbol":"ABC","volume":123456,"price":1234.5,"changePercentage":-7.97,
			 "note":"` + longNote + `"},
			{"symbol":"XYZ","volume":7,"price":2.25,"changePercentage":"N/A"},
			{"symbol":"QRS","volume":42,"price":10,"changePercentage":"1.23"}
		]`).Array())
		fileName := filepath.Join(tmpdir, "out", "trades.xlsx")
		So(Write(tbl, fileName), ShouldBeNil)

		Convey("construction phase round-trips the values", func() {
			f, err := excelize.OpenFile(fileName)
			So(err, ShouldBeNil)
			defer f.Close()

			rows, err := f.GetRows(Sheet, excelize.Options{RawCellValue: true})
			So(err, ShouldBeNil)
			So(len(rows), ShouldEqual, 4)
			So(rows[0], ShouldResemble,
				[]string{"symbol", "volume", "price", "changePercentage", "note"})
			So(rows[1][0], ShouldEqual, "ABC")
			So(rows[1][1], ShouldEqual, "123456")
			So(rows[2][3], ShouldEqual, "N/A")
			So(rows[3][2], ShouldEqual, "10")
		})

		Convey("formatting pass", func() {
			percent := PercentColumns(tbl.Header, PercentSynonyms)
			So(percent, ShouldResemble, []string{"changePercentage"})
			So(Format(fileName, percent), ShouldBeNil)

			f, err := excelize.OpenFile(fileName)
			So(err, ShouldBeNil)
			defer f.Close()

			Convey("freezes the header row", func() {
				panes, err := f.GetPanes(Sheet)
				So(err, ShouldBeNil)
				So(panes.Freeze, ShouldBeTrue)
				So(panes.TopLeftCell, ShouldEqual, "A2")
				So(panes.YSplit, ShouldEqual, 1)
			})

			Convey("percent cells are rescaled and formatted", func() {
				v, err := strconv.ParseFloat(raw(f, "D2"), 64)
				So(err, ShouldBeNil)
				So(v, ShouldAlmostEqual, -0.0797, 1e-12)
				So(numFmt(f, "D2"), ShouldEqual, fmtPercent)
			})

			Convey("a numeric string in a percent column is converted too", func() {
				v, err := strconv.ParseFloat(raw(f, "D4"), 64)
				So(err, ShouldBeNil)
				So(v, ShouldAlmostEqual, 0.0123, 1e-12)
				So(numFmt(f, "D4"), ShouldEqual, fmtPercent)
			})

			Convey("a non-numeric value in a percent column is left alone", func() {
				So(raw(f, "D3"), ShouldEqual, "N/A")
				So(numFmt(f, "D3"), ShouldEqual, 0)
			})

			Convey("integer and real cells get their display formats", func() {
				So(numFmt(f, "B2"), ShouldEqual, fmtInteger)
				So(numFmt(f, "C2"), ShouldEqual, fmtReal)
				So(raw(f, "B2"), ShouldEqual, "123456")
			})

			Convey("text cells are not touched", func() {
				So(numFmt(f, "A2"), ShouldEqual, 0)
				So(raw(f, "A2"), ShouldEqual, "ABC")
			})

			Convey("column widths are clamped to [10, 45]", func() {
				// Longest text in "symbol" is 6 chars, below the minimum.
				w, err := f.GetColWidth(Sheet, "A")
				So(err, ShouldBeNil)
				So(w, ShouldEqual, 10.0)
				// The 80-char note exceeds the maximum.
				w, err = f.GetColWidth(Sheet, "E")
				So(err, ShouldBeNil)
				So(w, ShouldEqual, 45.0)
				// volume: len("123456")+2 = 8, still below the minimum.
				w, err = f.GetColWidth(Sheet, "B")
				So(err, ShouldBeNil)
				So(w, ShouldEqual, 10.0)
			})
		})

		Convey("Format of a missing file fails", func() {
			So(Format(filepath.Join(tmpdir, "nope.xlsx"), nil), ShouldNotBeNil)
		})
	})

	Convey("Write creates the output directory", t, func() {
		fileName := filepath.Join(tmpdir, "deep", "nested", "t.xlsx")
		tbl := table.NewTable("a")
		tbl.AddRow(table.Integer(1))
		So(Write(tbl, fileName), ShouldBeNil)
		_, err := os.Stat(fileName)
		So(err, ShouldBeNil)

		Convey("and overwrites an existing file", func() {
			So(Write(tbl, fileName), ShouldBeNil)
		})
	})
}
