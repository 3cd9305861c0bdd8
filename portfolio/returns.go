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

package portfolio

import (
	"time"

	"github.com/foliotrack/ft-api/timeseries"
)

// DailyReturns converts a snapshot series into simple daily returns, each
// keyed by the later date of its pair. Pairs with a non-positive or
// non-finite previous value are skipped, as are pairs whose return is not
// finite, so a snapshot gap produces a missing observation instead of an
// outlier.
func DailyReturns(snapshots []*Snapshot) *timeseries.Series {
	dates := make([]time.Time, 0, len(snapshots))
	vals := make([]float64, 0, len(snapshots))

	for ii := 1; ii < len(snapshots); ii++ {
		prev := snapshots[ii-1].TotalValue
		if !isFinite(prev) || prev <= 0 {
			continue
		}

		r := (snapshots[ii].TotalValue - prev) / prev
		if !isFinite(r) {
			continue
		}

		dates = append(dates, snapshots[ii].EventDate)
		vals = append(vals, r)
	}

	return &timeseries.Series{Dates: dates, Vals: vals}
}
