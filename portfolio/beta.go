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
	"context"

	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/foliotrack/ft-api/timeseries"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"gonum.org/v1/gonum/stat"
)

// Beta regresses portfolio daily returns against a benchmark's daily
// returns fetched from the given provider. Returns are matched by calendar
// date; the benchmark window spans the portfolio return series plus one
// extra day so the provider's half-open range includes the final date. The
// reported observation count is the number of shared dates.
func (m *Metrics) Beta(ctx context.Context, provider data.Provider, benchmark string) *BetaResult {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "portfolio.Beta")
	defer span.End()

	subLog := log.With().Str("Benchmark", benchmark).Logger()

	if len(m.snapshots) < 2 {
		return &BetaResult{Reason: ReasonNotEnoughBetaData}
	}
	if m.returns.Len() < 2 {
		return &BetaResult{Reason: ReasonNotEnoughPortfolioReturns}
	}

	begin := m.returns.Start()
	end := m.returns.End().AddDate(0, 0, 1)

	closes, err := provider.Closes(ctx, benchmark, begin, end)
	if err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not fetch benchmark closes")
		return &BetaResult{Reason: ReasonBenchmarkFetchFailed}
	}

	closes = closes.DropNonFinite()
	if closes.Len() == 0 {
		return &BetaResult{Reason: ReasonNotEnoughBenchmarkData}
	}

	benchmarkReturns := closes.PctChange().DropNonFinite()
	if benchmarkReturns.Len() == 0 {
		return &BetaResult{Reason: ReasonNotEnoughBenchmarkData}
	}

	observations := timeseries.CommonDates(m.returns, benchmarkReturns)
	if observations < 2 {
		return &BetaResult{Reason: ReasonNoOverlappingDates}
	}

	alignedPortfolio, alignedBenchmark := timeseries.Align(m.returns, benchmarkReturns)
	if alignedPortfolio.Len() < 2 {
		return &BetaResult{Reason: ReasonNoOverlappingDates}
	}

	variance := stat.Variance(alignedBenchmark.Vals, nil)
	if !isFinite(variance) || variance == 0 {
		return &BetaResult{Reason: ReasonZeroBenchmarkVariance}
	}

	covariance := stat.Covariance(alignedPortfolio.Vals, alignedBenchmark.Vals, nil)
	if !isFinite(covariance) {
		return &BetaResult{Reason: ReasonCovarianceUndefined}
	}

	beta := covariance / variance
	if !isFinite(beta) {
		return &BetaResult{Reason: ReasonBetaUndefined}
	}

	return &BetaResult{
		Benchmark:    benchmark,
		Beta:         roundTo(beta, 4),
		Observations: observations,
	}
}
