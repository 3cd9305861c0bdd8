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
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/portfolio"
)

var errLookupBroken = errors.New("price lookup broken")

// stubPriceLookup resolves symbols from a fixed map; symbols absent from the
// map have no price data.
type stubPriceLookup struct {
	prices map[string]*data.Price
	err    error
}

func (s *stubPriceLookup) LatestOnOrBefore(_ context.Context, symbol string, _ time.Time) (*data.Price, error) {
	if s.err != nil {
		return nil, s.err
	}
	price, ok := s.prices[symbol]
	if !ok {
		return nil, data.ErrNoPriceData
	}
	return price, nil
}

var _ = Describe("Value", func() {
	var (
		ctx  context.Context
		tz   *time.Location
		asOf time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		tz = common.GetTimezone()
		asOf = time.Date(2022, time.June, 7, 0, 0, 0, 0, tz)
	})

	Context("with a same-day price for every holding", func() {
		It("normalizes symbols before the price lookup", func() {
			holdings := []*portfolio.Holding{
				{Symbol: "  aapl ", Quantity: 10, AvgPrice: 50},
			}
			prices := &stubPriceLookup{prices: map[string]*data.Price{
				"AAPL": {Symbol: "AAPL", Close: 55, EventDate: asOf},
			}}

			valuation, err := portfolio.Value(ctx, holdings, prices, asOf)
			Expect(err).To(BeNil())
			Expect(valuation.TotalInvested).To(Equal(500.0))
			Expect(valuation.TotalCurrentValue).To(Equal(550.0))
			Expect(valuation.TotalPnl).To(Equal(50.0))
			Expect(valuation.MissingPriceSymbols).To(BeEmpty())
			Expect(valuation.StalePriceSymbols).To(BeEmpty())
		})

		It("rounds monetary totals to two decimals", func() {
			holdings := []*portfolio.Holding{
				{Symbol: "TCS.NS", Quantity: 3, AvgPrice: 3333.333},
			}
			prices := &stubPriceLookup{prices: map[string]*data.Price{
				"TCS.NS": {Symbol: "TCS.NS", Close: 3401.117, EventDate: asOf},
			}}

			valuation, err := portfolio.Value(ctx, holdings, prices, asOf)
			Expect(err).To(BeNil())
			Expect(valuation.TotalInvested).To(Equal(10000.0))
			Expect(valuation.TotalCurrentValue).To(Equal(10203.35))
			Expect(valuation.TotalPnl).To(Equal(203.35))
		})
	})

	Context("with degraded price coverage", func() {
		It("reports unpriced symbols but keeps their invested amount", func() {
			holdings := []*portfolio.Holding{
				{Symbol: "RELIANCE.NS", Quantity: 10, AvgPrice: 2400},
				{Symbol: "NOPRICE.NS", Quantity: 5, AvgPrice: 100},
			}
			prices := &stubPriceLookup{prices: map[string]*data.Price{
				"RELIANCE.NS": {Symbol: "RELIANCE.NS", Close: 2500, EventDate: asOf},
			}}

			valuation, err := portfolio.Value(ctx, holdings, prices, asOf)
			Expect(err).To(BeNil())
			Expect(valuation.TotalInvested).To(Equal(24500.0))
			Expect(valuation.TotalCurrentValue).To(Equal(25000.0))
			Expect(valuation.TotalPnl).To(Equal(500.0))
			Expect(valuation.MissingPriceSymbols).To(Equal([]string{"NOPRICE.NS"}))
		})

		It("reports symbols valued from an earlier session as stale", func() {
			holdings := []*portfolio.Holding{
				{Symbol: "RELIANCE.NS", Quantity: 10, AvgPrice: 2400},
			}
			prices := &stubPriceLookup{prices: map[string]*data.Price{
				"RELIANCE.NS": {Symbol: "RELIANCE.NS", Close: 2520.25, EventDate: asOf.AddDate(0, 0, -5)},
			}}

			valuation, err := portfolio.Value(ctx, holdings, prices, asOf)
			Expect(err).To(BeNil())
			Expect(valuation.TotalCurrentValue).To(Equal(25202.5))
			Expect(valuation.MissingPriceSymbols).To(BeEmpty())
			Expect(valuation.StalePriceSymbols).To(Equal([]string{"RELIANCE.NS"}))
		})

		It("deduplicates and sorts reported symbols", func() {
			holdings := []*portfolio.Holding{
				{Symbol: "ZED.NS", Quantity: 1, AvgPrice: 10},
				{Symbol: "zed.ns", Quantity: 2, AvgPrice: 11},
				{Symbol: "ALPHA.NS", Quantity: 1, AvgPrice: 12},
			}
			prices := &stubPriceLookup{prices: map[string]*data.Price{}}

			valuation, err := portfolio.Value(ctx, holdings, prices, asOf)
			Expect(err).To(BeNil())
			Expect(valuation.MissingPriceSymbols).To(Equal([]string{"ALPHA.NS", "ZED.NS"}))
		})
	})

	Context("with malformed holdings", func() {
		It("flags blank symbols but still counts their invested amount", func() {
			holdings := []*portfolio.Holding{
				{Symbol: "   ", Quantity: 4, AvgPrice: 25},
			}
			prices := &stubPriceLookup{prices: map[string]*data.Price{}}

			valuation, err := portfolio.Value(ctx, holdings, prices, asOf)
			Expect(err).To(BeNil())
			Expect(valuation.TotalInvested).To(Equal(100.0))
			Expect(valuation.TotalCurrentValue).To(Equal(0.0))
			Expect(valuation.MissingPriceSymbols).To(Equal([]string{portfolio.InvalidSymbolMarker}))
		})

		It("treats non-finite quantities and prices as zero", func() {
			holdings := []*portfolio.Holding{
				{Symbol: "RELIANCE.NS", Quantity: math.NaN(), AvgPrice: 2400},
				{Symbol: "TCS.NS", Quantity: 5, AvgPrice: math.Inf(1)},
			}
			prices := &stubPriceLookup{prices: map[string]*data.Price{
				"RELIANCE.NS": {Symbol: "RELIANCE.NS", Close: 2500, EventDate: asOf},
				"TCS.NS":      {Symbol: "TCS.NS", Close: 3300, EventDate: asOf},
			}}

			valuation, err := portfolio.Value(ctx, holdings, prices, asOf)
			Expect(err).To(BeNil())
			Expect(valuation.TotalInvested).To(Equal(0.0))
			Expect(valuation.TotalCurrentValue).To(Equal(16500.0))
			Expect(valuation.TotalPnl).To(Equal(16500.0))
		})
	})

	Context("when the price store fails", func() {
		It("propagates the error", func() {
			holdings := []*portfolio.Holding{
				{Symbol: "RELIANCE.NS", Quantity: 10, AvgPrice: 2400},
			}
			prices := &stubPriceLookup{err: errLookupBroken}

			_, err := portfolio.Value(ctx, holdings, prices, asOf)
			Expect(err).To(MatchError(errLookupBroken))
		})
	})
})
