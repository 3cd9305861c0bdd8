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

package pgxmockhelper

import (
	"time"

	"github.com/jackc/pgconn"
	"github.com/pashagolub/pgxmock"
)

var holdingTypes = map[string]string{
	"id":         "uuid",
	"quantity":   "float64",
	"avg_price":  "float64",
	"created_at": "date",
}

var snapshotTypes = map[string]string{
	"id":             "uuid",
	"event_date":     "date",
	"total_invested": "float64",
	"total_value":    "float64",
	"pnl":            "float64",
	"created_at":     "date",
}

var priceTypes = map[string]string{
	"id":         "uuid",
	"close":      "float64",
	"event_date": "date",
}

// MockHoldingInsert expects a single holding INSERT wrapped in a transaction.
func MockHoldingInsert(db pgxmock.PgxConnIface) {
	db.ExpectBegin()
	db.ExpectExec("INSERT INTO holdings").WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
	db.ExpectCommit()
}

// MockHoldingsQuery expects the holdings list query and answers it with the
// rows of the given CSV fixture.
func MockHoldingsQuery(db pgxmock.PgxConnIface, fn string) {
	db.ExpectBegin()
	db.ExpectQuery("SELECT id, symbol, quantity, avg_price, created_at FROM holdings").WillReturnRows(
		NewCSVRows(fn, holdingTypes).Rows())
	db.ExpectCommit()
}

// MockSnapshotExists expects the snapshot existence check and answers it
// with the given count.
func MockSnapshotExists(db pgxmock.PgxConnIface, count int) {
	db.ExpectBegin()
	db.ExpectQuery("SELECT count").WillReturnRows(
		pgxmock.NewRows([]string{"count"}).AddRow(count))
	db.ExpectCommit()
}

// MockSnapshotInsert expects the full snapshot create sequence: the
// existence check (answered with zero) followed by the INSERT.
func MockSnapshotInsert(db pgxmock.PgxConnIface) {
	MockSnapshotExists(db, 0)
	db.ExpectBegin()
	db.ExpectExec("INSERT INTO portfolio_snapshots").WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
	db.ExpectCommit()
}

// MockSnapshotHistory expects the ascending snapshot list query and answers
// it with the CSV fixture rows between d1 and d2.
func MockSnapshotHistory(db pgxmock.PgxConnIface, fn string, d1, d2 time.Time) {
	db.ExpectBegin()
	db.ExpectQuery("SELECT id, event_date, total_invested, total_value, pnl, created_at FROM portfolio_snapshots").WillReturnRows(
		NewCSVRows(fn, snapshotTypes).Between(d1, d2).Rows())
	db.ExpectCommit()
}

// MockSnapshotFilterQuery expects the filter-built snapshot query and
// answers it with the CSV fixture rows between d1 and d2.
func MockSnapshotFilterQuery(db pgxmock.PgxConnIface, fn string, d1, d2 time.Time) {
	db.ExpectBegin()
	db.ExpectQuery(`select (.+) from "portfolio_snapshots"`).WillReturnRows(
		NewCSVRows(fn, snapshotTypes).Between(d1, d2).Rows())
	db.ExpectCommit()
}

// MockLatestPriceQuery expects the latest-close lookup for symbol and
// answers it with the newest fixture row dated on or before asOf.
func MockLatestPriceQuery(db pgxmock.PgxConnIface, fn string, symbol string, asOf time.Time) {
	db.ExpectBegin()
	db.ExpectQuery("SELECT id, symbol, close, event_date, source FROM prices WHERE symbol").WillReturnRows(
		NewCSVRows(fn, priceTypes).Eq("symbol", symbol).Between(time.Time{}, asOf).Last().Rows())
	db.ExpectCommit()
}

// MockPriceHistoryQuery expects the filter-built price query and answers it
// with the fixture rows for symbol between d1 and d2.
func MockPriceHistoryQuery(db pgxmock.PgxConnIface, fn string, symbol string, d1, d2 time.Time) {
	db.ExpectBegin()
	db.ExpectQuery(`select (.+) from "prices"`).WillReturnRows(
		NewCSVRows(fn, priceTypes).Eq("symbol", symbol).Between(d1, d2).Rows())
	db.ExpectCommit()
}

// MockPricesHave expects the stored-close check and answers that the given
// symbols already have a close for the day.
func MockPricesHave(db pgxmock.PgxConnIface, symbols ...string) {
	rows := pgxmock.NewRows([]string{"symbol"})
	for _, symbol := range symbols {
		rows.AddRow(symbol)
	}
	db.ExpectBegin()
	db.ExpectQuery("SELECT symbol FROM prices").WillReturnRows(rows)
	db.ExpectCommit()
}

// MockPriceInsert expects a single price INSERT wrapped in a transaction.
func MockPriceInsert(db pgxmock.PgxConnIface) {
	db.ExpectBegin()
	db.ExpectExec("INSERT INTO prices").WillReturnResult(pgconn.CommandTag("INSERT 0 1"))
	db.ExpectCommit()
}
