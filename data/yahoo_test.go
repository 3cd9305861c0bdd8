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

package data_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data"
)

var _ = Describe("Yahoo provider", func() {
	var (
		ctx      context.Context
		tz       *time.Location
		provider data.Provider
	)

	registerChart := func(symbol string, query string, fixture string) {
		content, err := os.ReadFile(fixture)
		if err != nil {
			panic(err)
		}
		url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?%s", symbol, query)
		httpmock.RegisterResponder("GET", url, httpmock.NewBytesResponder(200, content))
	}

	BeforeEach(func() {
		ctx = context.Background()
		tz = common.GetTimezone()
		provider = data.NewYahoo()
		httpmock.Activate()
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	Describe("when fetching a close series", func() {
		var (
			begin time.Time
			end   time.Time
		)

		BeforeEach(func() {
			begin = time.Date(2022, time.June, 1, 0, 0, 0, 0, tz)
			end = time.Date(2022, time.June, 9, 0, 0, 0, 0, tz)
			registerChart("RELIANCE.NS",
				fmt.Sprintf("period1=%d&period2=%d&interval=1d", begin.Unix(), end.Unix()),
				"testdata/reliance_chart.json")
		})

		It("converts chart bars to dates at market midnight", func() {
			series, err := provider.Closes(ctx, "RELIANCE.NS", begin, end)
			Expect(err).To(BeNil())

			// the fixture has six bars; the zero-filled placeholder is dropped
			Expect(series.Len()).To(Equal(5))
			Expect(series.Dates[0]).To(Equal(time.Date(2022, time.June, 1, 0, 0, 0, 0, tz)))
			Expect(series.Dates[4]).To(Equal(time.Date(2022, time.June, 7, 0, 0, 0, 0, tz)))
			Expect(series.Vals[0]).To(Equal(2500.5))
			Expect(series.Vals[4]).To(Equal(2505.75))
		})

		It("keeps null closes as NaN for the caller to filter", func() {
			series, err := provider.Closes(ctx, "RELIANCE.NS", begin, end)
			Expect(err).To(BeNil())
			Expect(math.IsNaN(series.Vals[2])).To(BeTrue())
			Expect(series.DropNonFinite().Len()).To(Equal(4))
		})

		It("rejects an inverted time range", func() {
			_, err := provider.Closes(ctx, "RELIANCE.NS", end, begin)
			Expect(err).To(MatchError(data.ErrInvalidTimeRange))
		})

		It("returns an error when the chart API reports one", func() {
			body := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
			httpmock.RegisterResponder("GET",
				fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/BOGUS.NS?period1=%d&period2=%d&interval=1d", begin.Unix(), end.Unix()),
				httpmock.NewStringResponder(200, body))

			_, err := provider.Closes(ctx, "BOGUS.NS", begin, end)
			Expect(err).To(MatchError(data.ErrProviderFailure))
		})

		It("returns an error for a failing status code", func() {
			httpmock.RegisterResponder("GET",
				fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/GONE.NS?period1=%d&period2=%d&interval=1d", begin.Unix(), end.Unix()),
				httpmock.NewStringResponder(502, "bad gateway"))

			_, err := provider.Closes(ctx, "GONE.NS", begin, end)
			Expect(err).NotTo(BeNil())
		})
	})

	Describe("when fetching the latest close", func() {
		It("skips trailing placeholder bars", func() {
			registerChart("RELIANCE.NS", "range=5d&interval=1d", "testdata/reliance_chart.json")

			closePx, date, err := provider.LatestClose(ctx, "RELIANCE.NS")
			Expect(err).To(BeNil())
			Expect(closePx).To(Equal(2505.75))
			Expect(date).To(Equal(time.Date(2022, time.June, 7, 0, 0, 0, 0, tz)))
		})

		It("skips a trailing null close", func() {
			registerChart("TCS.NS", "range=5d&interval=1d", "testdata/tcs_chart.json")

			closePx, date, err := provider.LatestClose(ctx, "TCS.NS")
			Expect(err).To(BeNil())
			Expect(closePx).To(Equal(3300.5))
			Expect(date).To(Equal(time.Date(2022, time.June, 7, 0, 0, 0, 0, tz)))
		})

		It("errors when no bar has a usable close", func() {
			body := `{"chart":{"result":[{"meta":{"symbol":"HALTED.NS"},"timestamp":[1654659900],"indicators":{"quote":[{"close":[null]}]}}],"error":null}}`
			httpmock.RegisterResponder("GET",
				"https://query1.finance.yahoo.com/v8/finance/chart/HALTED.NS?range=5d&interval=1d",
				httpmock.NewStringResponder(200, body))

			_, _, err := provider.LatestClose(ctx, "HALTED.NS")
			Expect(err).To(MatchError(data.ErrNoValidClose))
		})
	})
})
