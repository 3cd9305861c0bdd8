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

package timeseries

import (
	"errors"
	"math"
	"time"
)

var (
	ErrLengthMismatch = errors.New("dates and values must have the same length")
)

// Series stores a single column of values organized by ascending date.
// Dates compare by calendar day; the hour and location of each entry
// are ignored so a DATE scanned from postgres aligns with a bar
// timestamp from a market data feed.
type Series struct {
	Dates []time.Time
	Vals  []float64
}

func New(dates []time.Time, vals []float64) (*Series, error) {
	if len(dates) != len(vals) {
		return nil, ErrLengthMismatch
	}
	return &Series{
		Dates: dates,
		Vals:  vals,
	}, nil
}

func (s *Series) Len() int {
	return len(s.Vals)
}

// Start returns the first date of the series; End the last. Both assume
// the series is sorted ascending, which every constructor in this
// module guarantees.
func (s *Series) Start() time.Time {
	return s.Dates[0]
}

func (s *Series) End() time.Time {
	return s.Dates[len(s.Dates)-1]
}

// PctChange returns the fractional change between consecutive values,
// keyed by the later date of each pair. The result has Len()-1 entries;
// a zero previous value yields a non-finite entry which callers filter
// with DropNonFinite or pairwise during alignment.
func (s *Series) PctChange() *Series {
	if s.Len() < 2 {
		return &Series{}
	}

	res := &Series{
		Dates: make([]time.Time, 0, s.Len()-1),
		Vals:  make([]float64, 0, s.Len()-1),
	}

	for ii := 1; ii < s.Len(); ii++ {
		res.Dates = append(res.Dates, s.Dates[ii])
		res.Vals = append(res.Vals, (s.Vals[ii]-s.Vals[ii-1])/s.Vals[ii-1])
	}

	return res
}

// DropNonFinite returns a copy of the series with NaN and Inf entries
// removed.
func (s *Series) DropNonFinite() *Series {
	res := &Series{
		Dates: make([]time.Time, 0, s.Len()),
		Vals:  make([]float64, 0, s.Len()),
	}

	for ii, v := range s.Vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		res.Dates = append(res.Dates, s.Dates[ii])
		res.Vals = append(res.Vals, v)
	}

	return res
}

// Align intersects two series by calendar date and returns both
// restricted to the common dates, in ascending order. Entries where
// either side is non-finite are dropped pairwise.
func Align(a, b *Series) (*Series, *Series) {
	bIdx := make(map[[3]int]int, b.Len())
	for ii, d := range b.Dates {
		bIdx[dateKey(d)] = ii
	}

	alignedA := &Series{}
	alignedB := &Series{}

	for ii, d := range a.Dates {
		jj, ok := bIdx[dateKey(d)]
		if !ok {
			continue
		}
		if !isFinite(a.Vals[ii]) || !isFinite(b.Vals[jj]) {
			continue
		}
		alignedA.Dates = append(alignedA.Dates, d)
		alignedA.Vals = append(alignedA.Vals, a.Vals[ii])
		alignedB.Dates = append(alignedB.Dates, b.Dates[jj])
		alignedB.Vals = append(alignedB.Vals, b.Vals[jj])
	}

	return alignedA, alignedB
}

// CommonDates counts the calendar dates present in both series,
// before any pairwise finiteness filtering.
func CommonDates(a, b *Series) int {
	bIdx := make(map[[3]int]struct{}, b.Len())
	for _, d := range b.Dates {
		bIdx[dateKey(d)] = struct{}{}
	}

	count := 0
	for _, d := range a.Dates {
		if _, ok := bIdx[dateKey(d)]; ok {
			count++
		}
	}

	return count
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func dateKey(t time.Time) [3]int {
	y, m, d := t.Date()
	return [3]int{y, int(m), d}
}
