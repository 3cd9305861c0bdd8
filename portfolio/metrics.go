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
	"math"

	"github.com/foliotrack/ft-api/timeseries"
	"gonum.org/v1/gonum/stat"
)

// Metrics computes analytics over a snapshot series sorted ascending by
// event date. The daily return series is derived once at construction and
// shared by every metric.
type Metrics struct {
	snapshots []*Snapshot
	returns   *timeseries.Series
}

func NewMetrics(snapshots []*Snapshot) *Metrics {
	return &Metrics{
		snapshots: snapshots,
		returns:   DailyReturns(snapshots),
	}
}

// Performance returns the cumulative return between the first and latest
// snapshot as a percentage of the starting value.
func (m *Metrics) Performance() *PerformanceResult {
	if len(m.snapshots) < 2 {
		return &PerformanceResult{Reason: ReasonNotEnoughPerformanceData}
	}

	startValue := m.snapshots[0].TotalValue
	latestValue := m.snapshots[len(m.snapshots)-1].TotalValue

	if !isFinite(startValue) || startValue <= 0 {
		return &PerformanceResult{Reason: ReasonStartValueNotPositive}
	}
	if !isFinite(latestValue) {
		return &PerformanceResult{Reason: ReasonLatestValueMissing}
	}

	return &PerformanceResult{
		StartValue:            startValue,
		LatestValue:           latestValue,
		AbsoluteReturnPercent: roundTo((latestValue-startValue)/startValue*100, 2),
	}
}

// MaxDrawDown returns the largest peak-to-trough decline across the
// snapshot series. The peak initializes on the first positive value, which
// itself contributes no drawdown; values before that point are skipped. A
// series that never declines reports 0.
func (m *Metrics) MaxDrawDown() *DrawDownResult {
	if len(m.snapshots) < 2 {
		return &DrawDownResult{Reason: ReasonNotEnoughDrawDownData}
	}

	peak := 0.0
	peakSet := false
	maxDrawDown := 0.0

	for _, snapshot := range m.snapshots {
		value := snapshot.TotalValue
		if !isFinite(value) {
			continue
		}

		if !peakSet {
			if value <= 0 {
				continue
			}
			peak = value
			peakSet = true
			continue
		}

		if value > peak {
			peak = value
		}

		drawDown := (value - peak) / peak
		if drawDown < maxDrawDown {
			maxDrawDown = drawDown
		}
	}

	if !peakSet {
		return &DrawDownResult{Reason: ReasonNoPositiveDrawDownValues}
	}

	return &DrawDownResult{MaxDrawDownPercent: roundTo(maxDrawDown*100, 2)}
}

// Volatility returns the sample standard deviation of daily returns as a
// percentage. At least two return observations are required.
func (m *Metrics) Volatility() *VolatilityResult {
	if len(m.snapshots) < 2 {
		return &VolatilityResult{Reason: ReasonNotEnoughVolatilityData}
	}
	if m.returns.Len() < 2 {
		return &VolatilityResult{Reason: ReasonNotEnoughReturns}
	}

	volatility := stat.StdDev(m.returns.Vals, nil)

	return &VolatilityResult{
		VolatilityPercent: roundTo(volatility*100, 2),
		Observations:      m.returns.Len(),
	}
}

// SharpeRatio returns the Sharpe ratio of daily returns assuming a zero
// risk-free rate. A flat return series has zero volatility and no defined
// ratio.
func (m *Metrics) SharpeRatio() *SharpeResult {
	if len(m.snapshots) < 2 {
		return &SharpeResult{Reason: ReasonNotEnoughSharpeData}
	}
	if m.returns.Len() < 2 {
		return &SharpeResult{Reason: ReasonNotEnoughReturns}
	}

	volatility := stat.StdDev(m.returns.Vals, nil)
	if volatility == 0 {
		return &SharpeResult{Reason: ReasonZeroVolatility}
	}

	mean := stat.Mean(m.returns.Vals, nil)

	return &SharpeResult{
		SharpeRatio:  roundTo(mean/volatility, 4),
		Observations: m.returns.Len(),
	}
}

// RollingVolatility returns the trailing-window sample standard deviation
// of daily returns, one entry per window ending position. The reported
// observation count covers all daily returns, not the number of windows.
func (m *Metrics) RollingVolatility(window int) *RollingVolatilityResult {
	if window < 2 {
		return &RollingVolatilityResult{Reason: ReasonWindowTooSmall}
	}
	if m.returns.Len() < window {
		return &RollingVolatilityResult{Reason: ReasonNotEnoughRollingData}
	}

	rolling := make([]float64, 0, m.returns.Len()-window+1)
	for ii := window; ii <= m.returns.Len(); ii++ {
		vol := stat.StdDev(m.returns.Vals[ii-window:ii], nil)
		rolling = append(rolling, roundTo(vol*100, 2))
	}

	return &RollingVolatilityResult{
		Window:                   window,
		RollingVolatilityPercent: rolling,
		Observations:             m.returns.Len(),
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// safeNumber maps non-finite values to zero so a bad row cannot poison an
// aggregate.
func safeNumber(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
