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

// Reason explains why a metric could not be computed. An empty reason
// means the computation succeeded and the accompanying fields are valid.
type Reason string

const (
	ReasonNotEnoughPerformanceData  = Reason("Not enough data for performance calculation")
	ReasonStartValueNotPositive     = Reason("Start value must be greater than zero")
	ReasonLatestValueMissing        = Reason("Latest portfolio value is missing")
	ReasonNotEnoughDrawDownData     = Reason("Not enough data for drawdown calculation")
	ReasonNoPositiveDrawDownValues  = Reason("Not enough positive values for drawdown calculation")
	ReasonNotEnoughVolatilityData   = Reason("Not enough data for volatility calculation")
	ReasonNotEnoughReturns          = Reason("Not enough valid return observations")
	ReasonNotEnoughSharpeData       = Reason("Not enough data for Sharpe ratio calculation")
	ReasonZeroVolatility            = Reason("Volatility is zero, Sharpe ratio undefined")
	ReasonWindowTooSmall            = Reason("Window must be at least 2")
	ReasonNotEnoughRollingData      = Reason("Not enough data for rolling calculation")
	ReasonNotEnoughBetaData         = Reason("Not enough data for beta calculation")
	ReasonNotEnoughPortfolioReturns = Reason("Not enough valid portfolio return observations")
	ReasonBenchmarkFetchFailed      = Reason("Failed to fetch benchmark data")
	ReasonNotEnoughBenchmarkData    = Reason("Not enough benchmark data")
	ReasonNoOverlappingDates        = Reason("Not enough overlapping dates with benchmark")
	ReasonZeroBenchmarkVariance     = Reason("Benchmark variance is zero")
	ReasonCovarianceUndefined       = Reason("Could not compute covariance")
	ReasonBetaUndefined             = Reason("Could not compute beta")
)

// PerformanceResult holds the cumulative return between the first and the
// most recent portfolio snapshot.
type PerformanceResult struct {
	Reason                Reason  `json:"message,omitempty"`
	StartValue            float64 `json:"start_value"`
	LatestValue           float64 `json:"latest_value"`
	AbsoluteReturnPercent float64 `json:"absolute_return_percent"`
}

// DrawDownResult holds the largest peak-to-trough decline of the snapshot
// series, expressed as a non-positive percentage.
type DrawDownResult struct {
	Reason             Reason  `json:"message,omitempty"`
	MaxDrawDownPercent float64 `json:"max_drawdown_percent"`
}

// VolatilityResult holds the sample standard deviation of daily returns.
type VolatilityResult struct {
	Reason            Reason  `json:"message,omitempty"`
	VolatilityPercent float64 `json:"volatility_percent"`
	Observations      int     `json:"observations"`
}

// SharpeResult holds the Sharpe ratio of daily returns with a zero
// risk-free rate.
type SharpeResult struct {
	Reason       Reason  `json:"message,omitempty"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	Observations int     `json:"observations"`
}

// RollingVolatilityResult holds the trailing-window volatility series.
// Observations counts all daily returns, not the number of windows.
type RollingVolatilityResult struct {
	Reason                   Reason    `json:"message,omitempty"`
	Window                   int       `json:"window"`
	RollingVolatilityPercent []float64 `json:"rolling_volatility_percent"`
	Observations             int       `json:"observations"`
}

// BetaResult holds the portfolio beta against a benchmark symbol.
// Observations counts the calendar dates shared by the portfolio and
// benchmark return series before pairwise filtering.
type BetaResult struct {
	Reason       Reason  `json:"message,omitempty"`
	Benchmark    string  `json:"benchmark"`
	Beta         float64 `json:"beta"`
	Observations int     `json:"observations"`
}

// Valuation summarizes the portfolio at a point in time. Symbols with no
// usable price contribute their invested amount but nothing to current
// value; they are reported in MissingPriceSymbols. Symbols priced from an
// earlier session are reported in StalePriceSymbols.
type Valuation struct {
	TotalInvested       float64  `json:"total_invested"`
	TotalCurrentValue   float64  `json:"total_current_value"`
	TotalPnl            float64  `json:"total_pnl"`
	MissingPriceSymbols []string `json:"missing_price_symbols"`
	StalePriceSymbols   []string `json:"stale_price_symbols"`
}

// RefreshResult summarizes one price refresh pass.
type RefreshResult struct {
	UpdatedPrices   int      `json:"updated_prices"`
	FailedSymbols   []string `json:"failed_symbols"`
	SnapshotCreated bool     `json:"snapshot_created"`
}
