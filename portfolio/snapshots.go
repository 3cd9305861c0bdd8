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
	"time"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data/database"
	"github.com/foliotrack/ft-api/filter"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const pgUniqueViolation = "23505"

// Snapshot is the portfolio valuation recorded for a single market day.
// EventDate is unique; at most one snapshot exists per day.
type Snapshot struct {
	ID            uuid.UUID `json:"id"`
	EventDate     time.Time `json:"event_date"`
	TotalInvested float64   `json:"total_invested"`
	TotalValue    float64   `json:"total_value"`
	Pnl           float64   `json:"pnl"`
	CreatedAt     time.Time `json:"created_at"`
}

// SnapshotStore reads and writes daily portfolio snapshots
type SnapshotStore struct{}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// ExistsOn reports whether a snapshot has already been recorded for the
// given event date.
func (s *SnapshotStore) ExistsOn(ctx context.Context, date time.Time) (bool, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "snapshotstore.ExistsOn")
	defer span.End()

	subLog := log.With().Time("EventDate", date).Logger()

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return false, err
	}

	var count int
	err = trx.QueryRow(ctx, "SELECT count(*) FROM portfolio_snapshots WHERE event_date=$1", date).Scan(&count)
	if err != nil {
		span.RecordError(err)
		msg := "db query failed"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		if err := trx.Rollback(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return false, err
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return count > 0, nil
}

// Create records a snapshot unless one already exists for its event date.
// The bool result reports whether a row was actually written; losing a race
// to another writer is not an error.
func (s *SnapshotStore) Create(ctx context.Context, snapshot *Snapshot) (bool, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "snapshotstore.Create")
	defer span.End()

	subLog := log.With().Time("EventDate", snapshot.EventDate).Float64("TotalValue", snapshot.TotalValue).Logger()

	exists, err := s.ExistsOn(ctx, snapshot.EventDate)
	if err != nil {
		return false, err
	}
	if exists {
		subLog.Debug().Msg("snapshot already recorded for event date")
		return false, nil
	}

	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now()
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Stack().Err(err).Msg(msg)
		return false, err
	}

	_, err = trx.Exec(ctx, "INSERT INTO portfolio_snapshots (id, event_date, total_invested, total_value, pnl, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		snapshot.ID, snapshot.EventDate, snapshot.TotalInvested, snapshot.TotalValue, snapshot.Pnl, snapshot.CreatedAt)
	if err != nil {
		if rollbackErr := trx.Rollback(ctx); rollbackErr != nil {
			log.Error().Stack().Err(rollbackErr).Msg("could not rollback transaction")
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			subLog.Debug().Msg("snapshot already recorded for event date")
			return false, nil
		}

		span.RecordError(err)
		msg := "failed to save snapshot"
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

// ListAscending returns all snapshots ordered by event date, oldest first.
// Event dates are normalized to midnight in the market timezone.
func (s *SnapshotStore) ListAscending(ctx context.Context) ([]*Snapshot, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "snapshotstore.ListAscending")
	defer span.End()

	tz := common.GetTimezone()

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		log.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, "SELECT id, event_date, total_invested, total_value, pnl, created_at FROM portfolio_snapshots ORDER BY event_date")
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

	snapshots := make([]*Snapshot, 0, 252)
	for rows.Next() {
		snapshot := &Snapshot{}
		var eventDate time.Time
		if err := rows.Scan(&snapshot.ID, &eventDate, &snapshot.TotalInvested, &snapshot.TotalValue, &snapshot.Pnl, &snapshot.CreatedAt); err != nil {
			span.RecordError(err)
			msg := "db scan failed"
			span.SetStatus(codes.Error, msg)
			log.Warn().Stack().Err(err).Msg(msg)
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		snapshot.EventDate = time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, tz)
		snapshots = append(snapshots, snapshot)
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return snapshots, nil
}

// Query returns the snapshots matching the given history filter.
func (s *SnapshotStore) Query(ctx context.Context, f *filter.History) ([]*Snapshot, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "snapshotstore.Query")
	defer span.End()

	tz := common.GetTimezone()

	sql, args, err := f.Query("portfolio_snapshots", []string{"id", "event_date", "total_invested", "total_value", "pnl", "created_at"})
	if err != nil {
		span.RecordError(err)
		msg := "could not build snapshot query"
		span.SetStatus(codes.Error, msg)
		log.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	trx, err := database.Trx(ctx)
	if err != nil {
		span.RecordError(err)
		msg := "could not get a database transaction"
		span.SetStatus(codes.Error, msg)
		log.Warn().Stack().Err(err).Msg(msg)
		return nil, err
	}

	rows, err := trx.Query(ctx, sql, args...)
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

	snapshots := make([]*Snapshot, 0, 252)
	for rows.Next() {
		snapshot := &Snapshot{}
		var eventDate time.Time
		if err := rows.Scan(&snapshot.ID, &eventDate, &snapshot.TotalInvested, &snapshot.TotalValue, &snapshot.Pnl, &snapshot.CreatedAt); err != nil {
			span.RecordError(err)
			msg := "db scan failed"
			span.SetStatus(codes.Error, msg)
			log.Warn().Stack().Err(err).Msg(msg)
			if err := trx.Rollback(ctx); err != nil {
				log.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}
		snapshot.EventDate = time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, tz)
		snapshots = append(snapshots, snapshot)
	}

	if err := trx.Commit(ctx); err != nil {
		log.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	return snapshots, nil
}
