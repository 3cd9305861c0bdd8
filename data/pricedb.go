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

package data

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data/database"
	"github.com/foliotrack/ft-api/filter"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const (
	SourceYahoo = "finance.yahoo.com"

	pgUniqueViolation = "23505"
)

// Price is a single end-of-day close stored in the prices table. SourceID is
// a deterministic hash of the observation so re-imports of the same bar are
// detectable across sources.
type Price struct {
	ID        uuid.UUID `json:"id"`
	Symbol    string    `json:"symbol"`
	Close     float64   `json:"close"`
	EventDate time.Time `json:"event_date"`
	Source    string    `json:"source"`
	SourceID  string    `json:"source_id,omitempty"`
}

// PriceDb reads and writes end-of-day closes
type PriceDb struct{}

func NewPriceDb() *PriceDb {
	return &PriceDb{}
}

// LatestOnOrBefore returns the newest price for symbol with an event date on
// or before the requested date. ErrNoPriceData is returned when the symbol
// has no stored price in that range.
func (p *PriceDb) LatestOnOrBefore(ctx context.Context, symbol string, date time.Time) (*Price, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pricedb.LatestOnOrBefore")
	defer span.End()

	subLog := log.With().Str("Symbol", symbol).Time("Date", date).Logger()

	tz := common.GetTimezone()

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, "SELECT id, symbol, close, event_date, source FROM prices WHERE symbol=$1 AND event_date <= $2 ORDER BY event_date DESC LIMIT 1", symbol, date)
	if err != nil {
		span.RecordError(err)
		msg := "db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	var price *Price

	for rows.Next() {
		price = &Price{}
		var eventDate time.Time
		if err := rows.Scan(&price.ID, &price.Symbol, &price.Close, &eventDate, &price.Source); err != nil {
			span.RecordError(err)
			msg := "db scan failed"
			span.SetStatus(codes.Error, msg)
			subLog.Warn().Stack().Err(err).Msg(msg)
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		price.EventDate = time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, tz)
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	if price == nil {
		return nil, ErrNoPriceData
	}
	return price, nil
}

// HaveOn reports which of the given symbols already have a stored close on
// the given event date. Symbols absent from the result map have no close.
func (p *PriceDb) HaveOn(ctx context.Context, symbols []string, date time.Time) (map[string]bool, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pricedb.HaveOn")
	defer span.End()

	subLog := log.With().Strs("Symbols", symbols).Time("Date", date).Logger()

	have := make(map[string]bool, len(symbols))
	if len(symbols) == 0 {
		return have, nil
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, "SELECT symbol FROM prices WHERE symbol = ANY($1) AND event_date = $2", symbols, date)
	if err != nil {
		span.RecordError(err)
		msg := "db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			span.RecordError(err)
			msg := "db scan failed"
			span.SetStatus(codes.Error, msg)
			subLog.Warn().Stack().Err(err).Msg(msg)
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		have[symbol] = true
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return have, nil
}

// Insert stores a close in the prices table. The bool result reports whether
// a row was actually written; a unique violation on (symbol, event_date)
// means another writer already stored the bar and is not an error.
func (p *PriceDb) Insert(ctx context.Context, price *Price) (bool, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pricedb.Insert")
	defer span.End()

	subLog := log.With().Str("Symbol", price.Symbol).Time("EventDate", price.EventDate).Float64("Close", price.Close).Logger()

	if price.ID == uuid.Nil {
		price.ID = uuid.New()
	}
	if price.Source == "" {
		price.Source = SourceYahoo
	}
	if err := computePriceSourceID(price); err != nil {
		subLog.Warn().Stack().Err(err).Msg("couldn't compute SourceID for price")
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return false, err
	}

	_, err = trx.Exec(ctx, "INSERT INTO prices (id, symbol, close, event_date, source, source_id) VALUES ($1, $2, $3, $4, $5, decode($6, 'hex'))",
		price.ID, price.Symbol, price.Close, price.EventDate, price.Source, price.SourceID)
	if err != nil {
		if rollbackErr := trx.Rollback(ctx); rollbackErr != nil {
			log.Error().Stack().Err(rollbackErr).Msg("could not rollback transaction")
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			subLog.Debug().Msg("price already stored for event date")
			return false, nil
		}

		span.RecordError(err)
		msg := "failed to save price"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Stack().Err(err).Msg(msg)
		return false, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
		return false, err
	}

	return true, nil
}

// History returns the stored prices matching the given filter.
func (p *PriceDb) History(ctx context.Context, f *filter.History) ([]*Price, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pricedb.History")
	defer span.End()

	subLog := log.With().Str("Symbol", f.Symbol).Logger()

	tz := common.GetTimezone()

	sql, args, err := f.Query("prices", []string{"id", "symbol", "close", "event_date", "source"})
	if err != nil {
		span.RecordError(err)
		msg := "could not build price query"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, sql, args...)
	if err != nil {
		span.RecordError(err)
		msg := "db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	prices := make([]*Price, 0, 252)
	for rows.Next() {
		price := &Price{}
		var eventDate time.Time
		if err := rows.Scan(&price.ID, &price.Symbol, &price.Close, &eventDate, &price.Source); err != nil {
			span.RecordError(err)
			msg := "db scan failed"
			span.SetStatus(codes.Error, msg)
			subLog.Warn().Stack().Err(err).Msg(msg)
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		price.EventDate = time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, tz)
		prices = append(prices, price)
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return prices, nil
}

// computePriceSourceID calculates a 16-byte blake3 hash using the event
// date, source, symbol, and close
func computePriceSourceID(price *Price) error {
	h := blake3.New()

	d, err := price.EventDate.UTC().MarshalText()
	if err != nil {
		return err
	}

	if _, err := h.Write(d); err != nil {
		log.Error().Stack().Err(err).Msg("could not write event date to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(price.Source)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write source to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(price.Symbol)); err != nil {
		log.Error().Stack().Err(err).Msg("could not write symbol to blake3 hasher")
		return err
	}

	if _, err := h.Write([]byte(fmt.Sprintf("%.5f", price.Close))); err != nil {
		log.Error().Stack().Err(err).Msg("could not write close to blake3 hasher")
		return err
	}

	digest := h.Digest()
	buf := make([]byte, 16)
	n, err := digest.Read(buf)
	if err != nil {
		return err
	}
	if n != 16 {
		return ErrGenerateHash
	}

	price.SourceID = hex.EncodeToString(buf)
	return nil
}
