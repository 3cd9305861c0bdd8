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
	"sort"
	"strings"
	"time"

	"github.com/foliotrack/ft-api/data/database"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// Holding is a position in the portfolio. Quantity and AvgPrice are stored
// exactly as submitted; sanitization happens at valuation time.
type Holding struct {
	ID        uuid.UUID `json:"id"`
	Symbol    string    `json:"symbol"`
	Quantity  float64   `json:"quantity"`
	AvgPrice  float64   `json:"avg_price"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeSymbol trims whitespace and upper-cases a ticker symbol. All
// symbol comparisons in the system happen in this normalized form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// HoldingStore reads and writes portfolio holdings
type HoldingStore struct{}

func NewHoldingStore() *HoldingStore {
	return &HoldingStore{}
}

// Create stores a new holding. The symbol is normalized before the write;
// missing ID and CreatedAt fields are filled in.
func (h *HoldingStore) Create(ctx context.Context, holding *Holding) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "holdingstore.Create")
	defer span.End()

	holding.Symbol = NormalizeSymbol(holding.Symbol)
	if holding.ID == uuid.Nil {
		holding.ID = uuid.New()
	}
	if holding.CreatedAt.IsZero() {
		holding.CreatedAt = time.Now()
	}

	subLog := log.With().Str("Symbol", holding.Symbol).Float64("Quantity", holding.Quantity).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return err
	}

	_, err = trx.Exec(ctx, "INSERT INTO holdings (id, symbol, quantity, avg_price, created_at) VALUES ($1, $2, $3, $4, $5)",
		holding.ID, holding.Symbol, holding.Quantity, holding.AvgPrice, holding.CreatedAt)
	if err != nil {
		span.RecordError(err)
		msg := "failed to save holding"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Stack().Err(err).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
		return err
	}

	return nil
}

// List returns all holdings ordered by creation time.
func (h *HoldingStore) List(ctx context.Context) ([]*Holding, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "holdingstore.List")
	defer span.End()

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		log.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, "SELECT id, symbol, quantity, avg_price, created_at FROM holdings ORDER BY created_at")
	if err != nil {
		span.RecordError(err)
		msg := "db query failed"
		span.SetStatus(codes.Error, msg)
		log.Warn().Stack().Err(err).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	holdings := make([]*Holding, 0, 10)
	for rows.Next() {
		holding := &Holding{}
		if err := rows.Scan(&holding.ID, &holding.Symbol, &holding.Quantity, &holding.AvgPrice, &holding.CreatedAt); err != nil {
			span.RecordError(err)
			msg := "db scan failed"
			span.SetStatus(codes.Error, msg)
			log.Warn().Stack().Err(err).Msg(msg)
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		holdings = append(holdings, holding)
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return holdings, nil
}

// Symbols returns the sorted set of distinct normalized symbols across the
// given holdings. Holdings whose symbol normalizes to the empty string are
// skipped.
func Symbols(holdings []*Holding) []string {
	seen := make(map[string]bool, len(holdings))
	symbols := make([]string, 0, len(holdings))
	for _, holding := range holdings {
		symbol := NormalizeSymbol(holding.Symbol)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
