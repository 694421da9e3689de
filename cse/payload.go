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

package cse

import (
	"github.com/stockparfait/errors"
	"github.com/tidwall/gjson"
)

// PreferredKeys are the envelope keys checked first when looking for the row
// list in an object payload. The envelope is not contractually fixed and key
// names vary across API versions, hence a list rather than a single key.
var PreferredKeys = []string{"detailedTrades", "reqDetailedTrades", "data"}

// Payload is a parsed JSON response body. Member order of JSON objects is
// preserved, which both the extraction fallback and the table header order
// rely on.
type Payload struct {
	value gjson.Result
}

// ParsePayload validates and parses a JSON response body.
func ParsePayload(body []byte) (*Payload, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.Reason("response body is not valid JSON")
	}
	return &Payload{value: gjson.ParseBytes(body)}, nil
}

// Rows locates the list of trade records in the payload:
//
//  1. a top-level array is returned as is;
//  2. in a top-level object, the first preferred key holding an array wins;
//  3. otherwise, the first array-valued member in document order wins;
//  4. otherwise, the result is empty.
//
// The precedence is strict first-match, not best-match. Callers must treat
// an empty result as "no rows found".
func (p *Payload) Rows(preferred ...string) []gjson.Result {
	if p.value.IsArray() {
		return p.value.Array()
	}
	if !p.value.IsObject() {
		return nil
	}
	for _, k := range preferred {
		if v := p.value.Get(k); v.IsArray() {
			return v.Array()
		}
	}
	var rows []gjson.Result
	p.value.ForEach(func(_, v gjson.Result) bool {
		if v.IsArray() {
			rows = v.Array()
			return false
		}
		return true
	})
	return rows
}
