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

package table

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

type cellKind byte

const (
	emptyCell cellKind = iota
	stringCell
	intCell
	floatCell
	boolCell
)

// Cell is a union of the scalar kinds that can appear in a table: text,
// integer, real number or boolean. The zero value is an empty cell.
type Cell struct {
	kind    cellKind
	str     string
	num     float64
	integer int64
	boolean bool
}

// String creates a text cell.
func String(s string) Cell {
	return Cell{kind: stringCell, str: s}
}

// Integer creates an integer cell.
func Integer(i int64) Cell {
	return Cell{kind: intCell, integer: i}
}

// Number creates a real-number cell.
func Number(f float64) Cell {
	return Cell{kind: floatCell, num: f}
}

// Boolean creates a boolean cell.
func Boolean(b bool) Cell {
	return Cell{kind: boolCell, boolean: b}
}

// FromJSON converts a JSON value to a Cell. Numbers keep their integer or
// real kind based on the raw number text: no decimal point or exponent means
// an integer. JSON null becomes an empty cell, and compound values are kept
// as their raw JSON text.
func FromJSON(v gjson.Result) Cell {
	switch v.Type {
	case gjson.Null:
		return Cell{}
	case gjson.False:
		return Boolean(false)
	case gjson.True:
		return Boolean(true)
	case gjson.String:
		return String(v.Str)
	case gjson.Number:
		if !strings.ContainsAny(v.Raw, ".eE") {
			if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
				return Integer(i)
			}
		}
		return Number(v.Float())
	}
	return String(v.Raw)
}

// IsEmpty tests whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.kind == emptyCell
}

// Value returns the cell's scalar as written to a spreadsheet, or nil for an
// empty cell.
func (c Cell) Value() interface{} {
	switch c.kind {
	case stringCell:
		return c.str
	case intCell:
		return c.integer
	case floatCell:
		return c.num
	case boolCell:
		return c.boolean
	}
	return nil
}

// String prints the cell's text representation. Empty cells print as the
// empty string.
func (c Cell) String() string {
	switch c.kind {
	case stringCell:
		return c.str
	case intCell:
		return strconv.FormatInt(c.integer, 10)
	case floatCell:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case boolCell:
		return strconv.FormatBool(c.boolean)
	}
	return ""
}
