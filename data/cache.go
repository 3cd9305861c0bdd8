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
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/foliotrack/ft-api/timeseries"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// CachedProvider wraps a Provider and memoizes Closes responses in the
// two-tier cache. Benchmark series are requested on every beta calculation
// and change at most once per trading day, so this keeps the upstream
// provider out of the request path.
//
// LatestClose is never cached: the refresh loop must always see live data.
type CachedProvider struct {
	provider Provider
}

// cachedSeries is the cache wire form of a close series; dates are stored
// as unix seconds and restored in the market timezone. Values are pointers
// because NaN cannot be marshalled to JSON; a null entry round-trips to NaN.
type cachedSeries struct {
	Dates []int64    `json:"dates"`
	Vals  []*float64 `json:"vals"`
}

func NewCachedProvider(provider Provider) *CachedProvider {
	return &CachedProvider{
		provider: provider,
	}
}

func (c *CachedProvider) Closes(ctx context.Context, symbol string, begin time.Time, end time.Time) (*timeseries.Series, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "cache.Closes")
	defer span.End()

	subLog := log.With().Str("Symbol", symbol).Time("Begin", begin).Time("End", end).Logger()

	key := fmt.Sprintf("closes:%s:%s:%s", symbol, begin.Format("2006-01-02"), end.Format("2006-01-02"))
	if raw, err := common.CacheGet(ctx, key); err == nil {
		if series, err := decodeSeries(raw); err == nil {
			subLog.Debug().Str("Key", key).Msg("close series loaded from cache")
			return series, nil
		}
		subLog.Warn().Str("Key", key).Msg("discarding malformed cache entry")
	} else if !errors.Is(err, common.ErrCacheMiss) {
		subLog.Warn().Stack().Err(err).Str("Key", key).Msg("cache get failed")
	}

	series, err := c.provider.Closes(ctx, symbol, begin, end)
	if err != nil {
		return nil, err
	}

	raw, err := encodeSeries(series)
	if err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not encode close series for cache")
		return series, nil
	}
	common.CacheSet(ctx, key, raw)

	return series, nil
}

func (c *CachedProvider) LatestClose(ctx context.Context, symbol string) (float64, time.Time, error) {
	return c.provider.LatestClose(ctx, symbol)
}

func encodeSeries(series *timeseries.Series) ([]byte, error) {
	wire := cachedSeries{
		Dates: make([]int64, series.Len()),
		Vals:  make([]*float64, series.Len()),
	}
	for idx, dt := range series.Dates {
		wire.Dates[idx] = dt.Unix()
		val := series.Vals[idx]
		if !math.IsNaN(val) && !math.IsInf(val, 0) {
			wire.Vals[idx] = &val
		}
	}
	return json.Marshal(wire)
}

func decodeSeries(raw []byte) (*timeseries.Series, error) {
	wire := cachedSeries{}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	if len(wire.Dates) != len(wire.Vals) {
		return nil, timeseries.ErrLengthMismatch
	}

	tz := common.GetTimezone()
	dates := make([]time.Time, len(wire.Dates))
	vals := make([]float64, len(wire.Vals))
	for idx, stamp := range wire.Dates {
		dates[idx] = time.Unix(stamp, 0).In(tz)
		if wire.Vals[idx] != nil {
			vals[idx] = *wire.Vals[idx]
		} else {
			vals[idx] = math.NaN()
		}
	}

	return timeseries.New(dates, vals)
}
