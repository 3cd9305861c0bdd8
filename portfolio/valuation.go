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
	"errors"
	"sort"
	"time"

	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// InvalidSymbolMarker is reported in MissingPriceSymbols for holdings whose
// symbol normalizes to the empty string.
const InvalidSymbolMarker = "INVALID_SYMBOL"

// PriceLookup finds the newest stored price for a symbol on or before a
// date. data.ErrNoPriceData marks a symbol with no usable price.
type PriceLookup interface {
	LatestOnOrBefore(ctx context.Context, symbol string, date time.Time) (*data.Price, error)
}

// Value computes the portfolio valuation as of the given date. Invested
// amounts accumulate for every holding, even those without a price, so the
// pnl of an unpriced holding is its full negative cost basis. Non-finite
// quantities and prices are treated as zero rather than poisoning the
// totals.
func Value(ctx context.Context, holdings []*Holding, prices PriceLookup, asOf time.Time) (*Valuation, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "portfolio.Value")
	defer span.End()

	subLog := log.With().Time("AsOf", asOf).Int("NumHoldings", len(holdings)).Logger()

	totalInvested := 0.0
	totalValue := 0.0
	missing := make(map[string]bool)
	stale := make(map[string]bool)

	for _, holding := range holdings {
		quantity := safeNumber(holding.Quantity)
		avgPrice := safeNumber(holding.AvgPrice)
		totalInvested += quantity * avgPrice

		symbol := NormalizeSymbol(holding.Symbol)
		if symbol == "" {
			missing[InvalidSymbolMarker] = true
			continue
		}

		price, err := prices.LatestOnOrBefore(ctx, symbol, asOf)
		if err != nil {
			if errors.Is(err, data.ErrNoPriceData) {
				missing[symbol] = true
				continue
			}
			subLog.Warn().Stack().Err(err).Str("Symbol", symbol).Msg("price lookup failed")
			return nil, err
		}

		if !sameDate(price.EventDate, asOf) {
			stale[symbol] = true
		}

		totalValue += quantity * safeNumber(price.Close)
	}

	return &Valuation{
		TotalInvested:       roundTo(totalInvested, 2),
		TotalCurrentValue:   roundTo(totalValue, 2),
		TotalPnl:            roundTo(totalValue-totalInvested, 2),
		MissingPriceSymbols: sortedKeys(missing),
		StalePriceSymbols:   sortedKeys(stale),
	}, nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
