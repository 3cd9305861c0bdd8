// Copyright 2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package filter

import (
	"fmt"
	"time"
)

// History selects rows from an event-dated table. Since and Until are
// inclusive calendar-date bounds; nil leaves that side unbounded. Symbol
// restricts the result to one ticker when the table has a symbol column.
type History struct {
	Symbol     string
	Since      *time.Time
	Until      *time.Time
	Descending bool
}

// Query builds the SELECT statement for the filter over the given table
// and columns.
func (h *History) Query(table string, fields []string) (string, []interface{}, error) {
	where := make(map[string][]string)
	if h.Symbol != "" {
		where["symbol"] = append(where["symbol"], fmt.Sprintf("eq.%s", h.Symbol))
	}
	if h.Since != nil {
		where["event_date"] = append(where["event_date"], fmt.Sprintf("gte.%s", h.Since.Format("2006-01-02")))
	}
	if h.Until != nil {
		where["event_date"] = append(where["event_date"], fmt.Sprintf("lte.%s", h.Until.Format("2006-01-02")))
	}

	order := "event_date"
	if h.Descending {
		order = "event_date DESC"
	}

	return BuildQuery(table, fields, []string{}, where, order)
}
