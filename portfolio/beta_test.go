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

package portfolio_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/portfolio"
	"github.com/foliotrack/ft-api/timeseries"
)

// stubProvider answers every Closes request with a fixed series and records
// the requested window.
type stubProvider struct {
	series *timeseries.Series
	err    error

	requestedSymbol string
	requestedBegin  time.Time
	requestedEnd    time.Time
}

func (s *stubProvider) Closes(_ context.Context, symbol string, begin time.Time, end time.Time) (*timeseries.Series, error) {
	s.requestedSymbol = symbol
	s.requestedBegin = begin
	s.requestedEnd = end
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

func (s *stubProvider) LatestClose(_ context.Context, _ string) (float64, time.Time, error) {
	return 0, time.Time{}, errors.New("not implemented")
}

// closeSeries builds one close per value on consecutive days starting
// 2022-01-03, mirroring snapshotSeries.
func closeSeries(values ...float64) *timeseries.Series {
	tz := common.GetTimezone()
	dates := make([]time.Time, 0, len(values))
	for idx := range values {
		dates = append(dates, time.Date(2022, time.January, 3+idx, 0, 0, 0, 0, tz))
	}
	return &timeseries.Series{Dates: dates, Vals: values}
}

var _ = Describe("Beta", func() {
	var (
		ctx      context.Context
		tz       *time.Location
		metrics  *portfolio.Metrics
		provider *stubProvider
	)

	BeforeEach(func() {
		ctx = context.Background()
		tz = common.GetTimezone()
		metrics = portfolio.NewMetrics(snapshotSeries(100000, 110000, 99000, 121000))
		provider = &stubProvider{}
	})

	Context("with a benchmark covering every portfolio return date", func() {
		It("regresses portfolio returns against benchmark returns", func() {
			provider.series = closeSeries(100, 105, 99.75, 109.725)

			result := metrics.Beta(ctx, provider, "^NSEI")
			Expect(result.Reason).To(BeEmpty())
			Expect(result.Benchmark).To(Equal("^NSEI"))
			Expect(result.Beta).To(Equal(2.127))
			Expect(result.Observations).To(Equal(3))
		})

		It("reports beta 1 when the benchmark tracks the portfolio exactly", func() {
			provider.series = closeSeries(100000, 110000, 99000, 121000)

			result := metrics.Beta(ctx, provider, "^NSEI")
			Expect(result.Reason).To(BeEmpty())
			Expect(result.Beta).To(Equal(1.0))
		})

		It("requests one day past the final return date", func() {
			provider.series = closeSeries(100, 105, 99.75, 109.725)

			metrics.Beta(ctx, provider, "^NSEI")
			Expect(provider.requestedSymbol).To(Equal("^NSEI"))
			Expect(provider.requestedBegin).To(Equal(time.Date(2022, time.January, 4, 0, 0, 0, 0, tz)))
			Expect(provider.requestedEnd).To(Equal(time.Date(2022, time.January, 7, 0, 0, 0, 0, tz)))
		})
	})

	Context("with unusable benchmark data", func() {
		It("reports a failed benchmark fetch", func() {
			provider.err = errors.New("connection reset")

			result := metrics.Beta(ctx, provider, "^NSEI")
			Expect(result.Reason).To(Equal(portfolio.ReasonBenchmarkFetchFailed))
		})

		It("reports an empty close series", func() {
			provider.series = &timeseries.Series{}

			result := metrics.Beta(ctx, provider, "^NSEI")
			Expect(result.Reason).To(Equal(portfolio.ReasonNotEnoughBenchmarkData))
		})

		It("reports disjoint calendar dates", func() {
			series := closeSeries(100, 105, 99.75, 109.725)
			for idx := range series.Dates {
				series.Dates[idx] = series.Dates[idx].AddDate(0, 1, 0)
			}
			provider.series = series

			result := metrics.Beta(ctx, provider, "^NSEI")
			Expect(result.Reason).To(Equal(portfolio.ReasonNoOverlappingDates))
		})

		It("reports a flat benchmark as zero variance", func() {
			provider.series = closeSeries(100, 100, 100, 100)

			result := metrics.Beta(ctx, provider, "^NSEI")
			Expect(result.Reason).To(Equal(portfolio.ReasonZeroBenchmarkVariance))
		})
	})

	Context("with too little portfolio history", func() {
		It("cannot compute beta from a single snapshot", func() {
			metrics = portfolio.NewMetrics(snapshotSeries(100000))
			result := metrics.Beta(ctx, provider, "^NSEI")
			Expect(result.Reason).To(Equal(portfolio.ReasonNotEnoughBetaData))
		})

		It("cannot compute beta from a single return", func() {
			metrics = portfolio.NewMetrics(snapshotSeries(100000, 110000))
			result := metrics.Beta(ctx, provider, "^NSEI")
			Expect(result.Reason).To(Equal(portfolio.ReasonNotEnoughPortfolioReturns))
		})
	})
})
