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
	"fmt"
	"math"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/foliotrack/ft-api/timeseries"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var yahooAPI = "https://query1.finance.yahoo.com"

type yahoo struct{}

// yahooBar is a single daily observation; Close is NaN when yahoo reported
// a null for the bar.
type yahooBar struct {
	Date  time.Time
	Close float64
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// NewYahoo creates a new Yahoo Finance data provider
func NewYahoo() *yahoo {
	return &yahoo{}
}

// Closes retrieves the daily close series for symbol over [begin, end)
func (y *yahoo) Closes(ctx context.Context, symbol string, begin time.Time, end time.Time) (*timeseries.Series, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.Closes",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	subLog := log.With().Str("Symbol", symbol).Time("Begin", begin).Time("End", end).Logger()

	if begin.After(end) {
		return nil, ErrInvalidTimeRange
	}

	span.SetAttributes(
		attribute.KeyValue{
			Key:   "Symbol",
			Value: attribute.StringValue(symbol),
		},
		attribute.KeyValue{
			Key:   "Begin",
			Value: attribute.StringValue(begin.Format("2006-01-02")),
		},
		attribute.KeyValue{
			Key:   "End",
			Value: attribute.StringValue(end.Format("2006-01-02")),
		},
	)

	query := fmt.Sprintf("period1=%d&period2=%d&interval=1d", begin.Unix(), end.Unix())
	bars, err := y.fetchChart(ctx, symbol, query)
	if err != nil {
		span.RecordError(err)
		msg := "yahoo chart request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Stack().Err(err).Msg(msg)
		return nil, err
	}

	dates := make([]time.Time, 0, len(bars))
	vals := make([]float64, 0, len(bars))
	for _, bar := range bars {
		dates = append(dates, bar.Date)
		vals = append(vals, bar.Close)
	}

	return timeseries.New(dates, vals)
}

// LatestClose returns the most recent finite, positive close for symbol. It
// scans the last 5 trading days so a symbol missing today's bar still
// resolves to its last settled price.
func (y *yahoo) LatestClose(ctx context.Context, symbol string) (float64, time.Time, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "yahoo.LatestClose",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	subLog := log.With().Str("Symbol", symbol).Logger()

	span.SetAttributes(attribute.KeyValue{
		Key:   "Symbol",
		Value: attribute.StringValue(symbol),
	})

	bars, err := y.fetchChart(ctx, symbol, "range=5d&interval=1d")
	if err != nil {
		span.RecordError(err)
		msg := "yahoo chart request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Stack().Err(err).Msg(msg)
		return 0, time.Time{}, err
	}

	for idx := len(bars) - 1; idx >= 0; idx-- {
		closePx := bars[idx].Close
		if !math.IsNaN(closePx) && !math.IsInf(closePx, 0) && closePx > 0 {
			return closePx, bars[idx].Date, nil
		}
	}

	span.SetStatus(codes.Error, ErrNoValidClose.Error())
	subLog.Warn().Msg("no valid close among recent yahoo bars")
	return 0, time.Time{}, ErrNoValidClose
}

// fetchChart queries the yahoo v8 chart endpoint and converts the response
// to daily bars stamped at midnight in the market timezone. A chart with no
// results is not an error; it yields an empty slice.
func (y *yahoo) fetchChart(ctx context.Context, symbol string, query string) ([]yahooBar, error) {
	subLog := log.With().Str("Symbol", symbol).Logger()

	if timeout := viper.GetDuration("provider.timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?%s", yahooAPI, neturl.PathEscape(symbol), query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		subLog.Error().Stack().Err(err).Str("Url", url).Msg("could not build yahoo chart request")
		return nil, err
	}

	// yahoo blocks requests that carry Go's default user agent
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		subLog.Error().Stack().Err(err).Str("Url", url).Msg("yahoo http request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		subLog.Error().Int("HTTPResponseStatusCode", resp.StatusCode).Str("Url", url).Msg("yahoo returned invalid response code")
		return nil, fmt.Errorf("HTTP request returned invalid status code: %d", resp.StatusCode)
	}

	chart := yahooChartResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not decode yahoo chart JSON")
		return nil, err
	}

	if chart.Chart.Error != nil {
		subLog.Error().Str("Code", chart.Chart.Error.Code).Str("Description", chart.Chart.Error.Description).Msg("yahoo chart API returned an error")
		return nil, fmt.Errorf("%w: %s", ErrProviderFailure, chart.Chart.Error.Description)
	}

	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return []yahooBar{}, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	tz := common.GetTimezone()
	bars := make([]yahooBar, 0, len(result.Timestamp))
	for idx, stamp := range result.Timestamp {
		if idx >= len(quote.Close) {
			break
		}
		closePx := toFloat(quote.Close[idx])
		if closePx == 0 {
			// yahoo emits zero-filled placeholder bars for halted sessions
			continue
		}
		d := time.Unix(stamp, 0).In(tz)
		bars = append(bars, yahooBar{
			Date:  time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, tz),
			Close: closePx,
		})
	}

	return bars, nil
}

// toFloat coerces the interface values yahoo uses for quote fields; null
// entries become NaN
func toFloat(v interface{}) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return math.NaN()
}
