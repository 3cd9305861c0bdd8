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

package filter_test

import (
	"time"

	"github.com/foliotrack/ft-api/filter"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Database", func() {
	Describe("when building a select", func() {
		Context("with passed parameters", func() {
			It("should error for no 'from'", func() {
				_, _, err := filter.BuildQuery("", make([]string, 0), make([]string, 0), make(map[string][]string), "")
				Expect(err).NotTo(BeNil())
			})
			It("should escape select identifiers", func() {
				fields := []string{"a\"a", "b"}
				where := map[string][]string{}
				sql, _, err := filter.BuildQuery("my_table", fields, make([]string, 0), where, "event_date DESC")
				Expect(err).To(BeNil())
				Expect(sql).To(Equal(`select "a""a", "b" from "my_table" order by event_date DESC`))
			})
			It("should escape from identifier", func() {
				fields := []string{"a"}
				where := map[string][]string{}
				sql, _, err := filter.BuildQuery("my_\"table", fields, make([]string, 0), where, "event_date DESC")
				Expect(err).To(BeNil())
				Expect(sql).To(Equal(`select "a" from "my_""table" order by event_date DESC`))
			})
			It("should error for a malformed where clause", func() {
				fields := []string{"a"}
				where := map[string][]string{"event_date": {"2021-01-01"}}
				_, _, err := filter.BuildQuery("my_table", fields, make([]string, 0), where, "")
				Expect(err).NotTo(BeNil())
			})
			It("should error for an unrecognized operator", func() {
				fields := []string{"a"}
				where := map[string][]string{"event_date": {"between.2021-01-01"}}
				_, _, err := filter.BuildQuery("my_table", fields, make([]string, 0), where, "")
				Expect(err).NotTo(BeNil())
			})
			It("should bind where values as arguments", func() {
				fields := []string{"event_date", "close"}
				where := map[string][]string{
					"event_date": {"gte.2021-01-01", "lte.2021-06-30"},
				}
				sql, args, err := filter.BuildQuery("prices", fields, make([]string, 0), where, "event_date")
				Expect(err).To(BeNil())
				Expect(sql).To(ContainSubstring(`"event_date"`))
				Expect(args).To(HaveLen(2))
				Expect(args).To(ContainElement("2021-01-01"))
				Expect(args).To(ContainElement("2021-06-30"))
			})
		})
	})
})

var _ = Describe("History", func() {
	Describe("when building a query", func() {
		Context("with no bounds", func() {
			It("should select the full table ascending", func() {
				f := &filter.History{}
				sql, args, err := f.Query("portfolio_snapshots", []string{"id", "event_date"})
				Expect(err).To(BeNil())
				Expect(sql).To(Equal(`select "id", "event_date" from "portfolio_snapshots" order by event_date`))
				Expect(args).To(BeEmpty())
			})
			It("should order descending when requested", func() {
				f := &filter.History{Descending: true}
				sql, _, err := f.Query("portfolio_snapshots", []string{"id"})
				Expect(err).To(BeNil())
				Expect(sql).To(Equal(`select "id" from "portfolio_snapshots" order by event_date DESC`))
			})
		})
		Context("with date bounds", func() {
			It("should bind both bounds", func() {
				since := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
				until := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
				f := &filter.History{Since: &since, Until: &until}
				_, args, err := f.Query("portfolio_snapshots", []string{"id"})
				Expect(err).To(BeNil())
				Expect(args).To(HaveLen(2))
				Expect(args).To(ContainElement("2021-01-01"))
				Expect(args).To(ContainElement("2021-06-30"))
			})
			It("should bind the symbol", func() {
				f := &filter.History{Symbol: "AAPL"}
				sql, args, err := f.Query("prices", []string{"id", "symbol"})
				Expect(err).To(BeNil())
				Expect(sql).To(ContainSubstring(`"symbol"`))
				Expect(args).To(ContainElement("AAPL"))
			})
		})
	})
})
