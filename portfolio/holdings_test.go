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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock"

	"github.com/foliotrack/ft-api/data/database"
	"github.com/foliotrack/ft-api/pgxmockhelper"
	"github.com/foliotrack/ft-api/portfolio"
)

var _ = Describe("HoldingStore", func() {
	var (
		dbPool pgxmock.PgxConnIface
		store  *portfolio.HoldingStore
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)
		store = portfolio.NewHoldingStore()
		ctx = context.Background()
	})

	Describe("when creating a holding", func() {
		It("normalizes the symbol and fills in identifiers", func() {
			pgxmockhelper.MockHoldingInsert(dbPool)

			holding := &portfolio.Holding{Symbol: "  reliance.ns ", Quantity: 10, AvgPrice: 2400}
			Expect(store.Create(ctx, holding)).To(Succeed())

			Expect(holding.Symbol).To(Equal("RELIANCE.NS"))
			Expect(holding.ID).NotTo(Equal(uuid.Nil))
			Expect(holding.CreatedAt.IsZero()).To(BeFalse())
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})

		It("keeps an identifier supplied by the caller", func() {
			pgxmockhelper.MockHoldingInsert(dbPool)

			id := uuid.New()
			holding := &portfolio.Holding{ID: id, Symbol: "TCS.NS", Quantity: 5, AvgPrice: 3200}
			Expect(store.Create(ctx, holding)).To(Succeed())

			Expect(holding.ID).To(Equal(id))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})

	Describe("when listing holdings", func() {
		It("returns every stored holding in creation order", func() {
			pgxmockhelper.MockHoldingsQuery(dbPool, "testdata/holdings.csv")

			holdings, err := store.List(ctx)
			Expect(err).To(BeNil())
			Expect(holdings).To(HaveLen(2))
			Expect(holdings[0].Symbol).To(Equal("RELIANCE.NS"))
			Expect(holdings[0].Quantity).To(Equal(10.0))
			Expect(holdings[0].AvgPrice).To(Equal(2400.0))
			Expect(holdings[1].Symbol).To(Equal("TCS.NS"))
			Expect(dbPool.ExpectationsWereMet()).To(Succeed())
		})
	})
})

var _ = Describe("Symbols", func() {
	It("returns the sorted set of distinct normalized symbols", func() {
		holdings := []*portfolio.Holding{
			{Symbol: "tcs.ns"},
			{Symbol: "RELIANCE.NS"},
			{Symbol: " TCS.NS "},
			{Symbol: "   "},
		}

		Expect(portfolio.Symbols(holdings)).To(Equal([]string{"RELIANCE.NS", "TCS.NS"}))
	})

	It("is empty for no holdings", func() {
		Expect(portfolio.Symbols(nil)).To(BeEmpty())
	})
})

var _ = DescribeTable("NormalizeSymbol",
	func(input, expected string) {
		Expect(portfolio.NormalizeSymbol(input)).To(Equal(expected))
	},
	Entry("upper-cases", "reliance.ns", "RELIANCE.NS"),
	Entry("trims whitespace", "  TCS.NS ", "TCS.NS"),
	Entry("keeps index carets", "^NSEI", "^NSEI"),
	Entry("maps blank to empty", "   ", ""),
)
