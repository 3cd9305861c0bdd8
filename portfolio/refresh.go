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
	"time"

	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// HoldingLister returns the holdings to refresh prices for.
type HoldingLister interface {
	List(ctx context.Context) ([]*Holding, error)
}

// PriceStore is the slice of the price database a refresh needs: lookups
// for valuation, presence checks for idempotence, and inserts for new
// closes.
type PriceStore interface {
	PriceLookup
	HaveOn(ctx context.Context, symbols []string, date time.Time) (map[string]bool, error)
	Insert(ctx context.Context, price *data.Price) (bool, error)
}

// SnapshotRecorder records the post-refresh valuation for an event date.
type SnapshotRecorder interface {
	Create(ctx context.Context, snapshot *Snapshot) (bool, error)
}

// QuoteFetcher returns the most recent close for a symbol from a market
// data provider.
type QuoteFetcher interface {
	LatestClose(ctx context.Context, symbol string) (float64, time.Time, error)
}

// Refresher fetches current closes for every held symbol, stores them
// under the refresh date, and records a valuation snapshot.
type Refresher struct {
	Holdings  HoldingLister
	Prices    PriceStore
	Snapshots SnapshotRecorder
	Quotes    QuoteFetcher
}

// NewRefresher wires a refresher against the database stores and the given
// market data provider.
func NewRefresher(provider data.Provider) *Refresher {
	return &Refresher{
		Holdings:  NewHoldingStore(),
		Prices:    data.NewPriceDb(),
		Snapshots: NewSnapshotStore(),
		Quotes:    provider,
	}
}

// Refresh runs one refresh pass as of the given date. Symbols that already
// have a close stored for the date are skipped, so repeated runs on the
// same day do no extra provider calls. Provider failures are collected per
// symbol rather than aborting the pass; the price fetched from the
// provider is stored under the refresh date even when it comes from an
// earlier trading session.
func (r *Refresher) Refresh(ctx context.Context, asOf time.Time) (*RefreshResult, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "refresher.Refresh")
	defer span.End()

	subLog := log.With().Time("AsOf", asOf).Logger()

	holdings, err := r.Holdings.List(ctx)
	if err != nil {
		return nil, err
	}

	symbols := Symbols(holdings)

	have, err := r.Prices.HaveOn(ctx, symbols, asOf)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{
		FailedSymbols: make([]string, 0, len(symbols)),
	}

	for _, symbol := range symbols {
		if have[symbol] {
			continue
		}

		closePx, _, err := r.Quotes.LatestClose(ctx, symbol)
		if err != nil {
			subLog.Warn().Stack().Err(err).Str("Symbol", symbol).Msg("could not fetch latest close")
			result.FailedSymbols = append(result.FailedSymbols, symbol)
			continue
		}

		inserted, err := r.Prices.Insert(ctx, &data.Price{
			Symbol:    symbol,
			Close:     closePx,
			EventDate: asOf,
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			result.UpdatedPrices++
		}
	}

	valuation, err := Value(ctx, holdings, r.Prices, asOf)
	if err != nil {
		return nil, err
	}

	created, err := r.Snapshots.Create(ctx, &Snapshot{
		EventDate:     asOf,
		TotalInvested: valuation.TotalInvested,
		TotalValue:    valuation.TotalCurrentValue,
		Pnl:           valuation.TotalPnl,
	})
	if err != nil {
		return nil, err
	}
	result.SnapshotCreated = created

	return result, nil
}
