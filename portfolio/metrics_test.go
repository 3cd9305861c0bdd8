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
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/portfolio"
)

// snapshotSeries builds one snapshot per value on consecutive days starting
// 2022-01-03.
func snapshotSeries(values ...float64) []*portfolio.Snapshot {
	tz := common.GetTimezone()
	snapshots := make([]*portfolio.Snapshot, 0, len(values))
	for idx, val := range values {
		snapshots = append(snapshots, &portfolio.Snapshot{
			EventDate:  time.Date(2022, time.January, 3+idx, 0, 0, 0, 0, tz),
			TotalValue: val,
		})
	}
	return snapshots
}

var _ = Describe("DailyReturns", func() {
	Context("with an up, down, up history", func() {
		It("computes one return per consecutive pair keyed by the later date", func() {
			returns := portfolio.DailyReturns(snapshotSeries(100000, 110000, 99000, 121000))

			Expect(returns.Len()).To(Equal(3))
			Expect(returns.Vals[0]).To(BeNumerically("~", 0.1, 1e-12))
			Expect(returns.Vals[1]).To(BeNumerically("~", -0.1, 1e-12))
			Expect(returns.Vals[2]).To(BeNumerically("~", 22.0/99.0, 1e-12))

			tz := common.GetTimezone()
			Expect(returns.Dates[0]).To(Equal(time.Date(2022, time.January, 4, 0, 0, 0, 0, tz)))
			Expect(returns.Dates[2]).To(Equal(time.Date(2022, time.January, 6, 0, 0, 0, 0, tz)))
		})
	})

	Context("with unusable values in the history", func() {
		It("skips pairs with a non-positive base", func() {
			returns := portfolio.DailyReturns(snapshotSeries(0, 0, 100000, 110000))
			Expect(returns.Len()).To(Equal(1))
			Expect(returns.Vals[0]).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("drops both pairs around a missing value", func() {
			returns := portfolio.DailyReturns(snapshotSeries(100000, math.NaN(), 110000))
			Expect(returns.Len()).To(Equal(0))
		})

		It("is empty for fewer than two snapshots", func() {
			Expect(portfolio.DailyReturns(snapshotSeries(100000)).Len()).To(Equal(0))
			Expect(portfolio.DailyReturns(nil).Len()).To(Equal(0))
		})
	})
})

var _ = Describe("Metrics", func() {
	Context("with a four day history of 100k, 110k, 99k, 121k", func() {
		var metrics *portfolio.Metrics

		BeforeEach(func() {
			metrics = portfolio.NewMetrics(snapshotSeries(100000, 110000, 99000, 121000))
		})

		It("reports 21 percent cumulative performance", func() {
			result := metrics.Performance()
			Expect(result.Reason).To(BeEmpty())
			Expect(result.StartValue).To(Equal(100000.0))
			Expect(result.LatestValue).To(Equal(121000.0))
			Expect(result.AbsoluteReturnPercent).To(Equal(21.0))
		})

		It("reports the drop from 110k to 99k as the maximum drawdown", func() {
			result := metrics.MaxDrawDown()
			Expect(result.Reason).To(BeEmpty())
			Expect(result.MaxDrawDownPercent).To(Equal(-10.0))
		})

		It("reports the sample standard deviation of daily returns", func() {
			result := metrics.Volatility()
			Expect(result.Reason).To(BeEmpty())
			Expect(result.VolatilityPercent).To(Equal(16.27))
			Expect(result.Observations).To(Equal(3))
		})

		It("reports the Sharpe ratio of daily returns", func() {
			result := metrics.SharpeRatio()
			Expect(result.Reason).To(BeEmpty())
			Expect(result.SharpeRatio).To(Equal(0.4554))
			Expect(result.Observations).To(Equal(3))
		})

		It("computes one rolling volatility per window ending position", func() {
			result := metrics.RollingVolatility(2)
			Expect(result.Reason).To(BeEmpty())
			Expect(result.Window).To(Equal(2))
			Expect(result.RollingVolatilityPercent).To(Equal([]float64{14.14, 22.78}))
			Expect(result.Observations).To(Equal(3))
		})

		It("matches the full sample volatility when the window covers it", func() {
			result := metrics.RollingVolatility(3)
			Expect(result.Reason).To(BeEmpty())
			Expect(result.RollingVolatilityPercent).To(Equal([]float64{16.27}))
		})

		It("rejects windows smaller than 2", func() {
			result := metrics.RollingVolatility(1)
			Expect(result.Reason).To(Equal(portfolio.ReasonWindowTooSmall))
		})

		It("rejects windows larger than the return history", func() {
			result := metrics.RollingVolatility(4)
			Expect(result.Reason).To(Equal(portfolio.ReasonNotEnoughRollingData))
		})
	})

	Context("with fewer than two snapshots", func() {
		var metrics *portfolio.Metrics

		BeforeEach(func() {
			metrics = portfolio.NewMetrics(snapshotSeries(100000))
		})

		It("cannot compute performance", func() {
			Expect(metrics.Performance().Reason).To(Equal(portfolio.ReasonNotEnoughPerformanceData))
		})

		It("cannot compute drawdown", func() {
			Expect(metrics.MaxDrawDown().Reason).To(Equal(portfolio.ReasonNotEnoughDrawDownData))
		})

		It("cannot compute volatility", func() {
			Expect(metrics.Volatility().Reason).To(Equal(portfolio.ReasonNotEnoughVolatilityData))
		})

		It("cannot compute the Sharpe ratio", func() {
			Expect(metrics.SharpeRatio().Reason).To(Equal(portfolio.ReasonNotEnoughSharpeData))
		})

		It("cannot compute rolling volatility", func() {
			Expect(metrics.RollingVolatility(3).Reason).To(Equal(portfolio.ReasonNotEnoughRollingData))
		})
	})

	Context("with degenerate snapshot values", func() {
		It("rejects a non-positive starting value", func() {
			metrics := portfolio.NewMetrics(snapshotSeries(0, 110000))
			Expect(metrics.Performance().Reason).To(Equal(portfolio.ReasonStartValueNotPositive))
		})

		It("rejects a missing latest value", func() {
			metrics := portfolio.NewMetrics(snapshotSeries(100000, math.NaN()))
			Expect(metrics.Performance().Reason).To(Equal(portfolio.ReasonLatestValueMissing))
		})

		It("reports no drawdown when the history never has a positive value", func() {
			metrics := portfolio.NewMetrics(snapshotSeries(0, 0))
			Expect(metrics.MaxDrawDown().Reason).To(Equal(portfolio.ReasonNoPositiveDrawDownValues))
		})

		It("reports zero drawdown for a history that only rises", func() {
			metrics := portfolio.NewMetrics(snapshotSeries(100000, 110000, 121000))
			result := metrics.MaxDrawDown()
			Expect(result.Reason).To(BeEmpty())
			Expect(result.MaxDrawDownPercent).To(Equal(0.0))
		})

		It("skips missing values when walking the drawdown peak", func() {
			metrics := portfolio.NewMetrics(snapshotSeries(100000, math.NaN(), 90000))
			result := metrics.MaxDrawDown()
			Expect(result.Reason).To(BeEmpty())
			Expect(result.MaxDrawDownPercent).To(Equal(-10.0))
		})

		It("cannot compute volatility from a single return", func() {
			metrics := portfolio.NewMetrics(snapshotSeries(100000, 110000))
			Expect(metrics.Volatility().Reason).To(Equal(portfolio.ReasonNotEnoughReturns))
		})

		It("has no Sharpe ratio when returns are flat", func() {
			metrics := portfolio.NewMetrics(snapshotSeries(100000, 110000, 121000))

			volatility := metrics.Volatility()
			Expect(volatility.Reason).To(BeEmpty())
			Expect(volatility.VolatilityPercent).To(Equal(0.0))

			Expect(metrics.SharpeRatio().Reason).To(Equal(portfolio.ReasonZeroVolatility))
		})
	})
})
