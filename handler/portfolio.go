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

package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/filter"
	"github.com/foliotrack/ft-api/portfolio"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// renderResult sends either the failure message or the full result so
// insufficient-data outcomes keep the same shape across every analytics
// endpoint.
func renderResult(c *fiber.Ctx, reason portfolio.Reason, result any) error {
	if reason != "" {
		return c.JSON(fiber.Map{"message": string(reason)})
	}
	return c.JSON(result)
}

// loadMetrics builds the analytics calculator from the stored snapshot
// history. The returned error is ready to hand back to fiber.
func loadMetrics(endpoint string) (*portfolio.Metrics, error) {
	subLog := log.With().Str("Endpoint", endpoint).Logger()

	store := portfolio.NewSnapshotStore()
	snapshots, err := store.ListAscending(context.Background())
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not load snapshots")
		return nil, fiber.ErrInternalServerError
	}

	return portfolio.NewMetrics(snapshots), nil
}

// GetPortfolioValue returns the valuation of all holdings as of today.
func GetPortfolioValue(c *fiber.Ctx) error {
	subLog := log.With().Str("Endpoint", "GetPortfolioValue").Logger()

	store := portfolio.NewHoldingStore()
	holdings, err := store.List(context.Background())
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not list holdings")
		return fiber.ErrInternalServerError
	}

	valuation, err := portfolio.Value(context.Background(), holdings, data.NewPriceDb(), common.Today())
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not compute portfolio value")
		return fiber.ErrInternalServerError
	}

	return c.JSON(valuation)
}

// GetPerformance returns the cumulative performance between the first and
// latest snapshot.
func GetPerformance(c *fiber.Ctx) error {
	metrics, err := loadMetrics("GetPerformance")
	if err != nil {
		return err
	}

	result := metrics.Performance()
	return renderResult(c, result.Reason, result)
}

// GetMaxDrawDown returns the largest peak-to-trough decline of the
// snapshot history.
func GetMaxDrawDown(c *fiber.Ctx) error {
	metrics, err := loadMetrics("GetMaxDrawDown")
	if err != nil {
		return err
	}

	result := metrics.MaxDrawDown()
	return renderResult(c, result.Reason, result)
}

// GetVolatility returns the standard deviation of daily returns.
func GetVolatility(c *fiber.Ctx) error {
	metrics, err := loadMetrics("GetVolatility")
	if err != nil {
		return err
	}

	result := metrics.Volatility()
	return renderResult(c, result.Reason, result)
}

// GetSharpeRatio returns the Sharpe ratio of daily returns.
func GetSharpeRatio(c *fiber.Ctx) error {
	metrics, err := loadMetrics("GetSharpeRatio")
	if err != nil {
		return err
	}

	result := metrics.SharpeRatio()
	return renderResult(c, result.Reason, result)
}

// GetRollingVolatility returns trailing-window volatility. The window is
// read from the `window` query parameter and defaults to 3.
func GetRollingVolatility(c *fiber.Ctx) error {
	window, err := strconv.Atoi(c.Query("window", "3"))
	if err != nil {
		log.Warn().Err(err).Str("Window", c.Query("window")).Msg("invalid window query parameter")
		return fiber.ErrBadRequest
	}

	metrics, err := loadMetrics("GetRollingVolatility")
	if err != nil {
		return err
	}

	result := metrics.RollingVolatility(window)
	return renderResult(c, result.Reason, result)
}

// GetBeta returns the portfolio beta against the benchmark named by the
// `benchmark` query parameter, defaulting to the configured market
// benchmark.
func GetBeta(c *fiber.Ctx) error {
	benchmark := c.Query("benchmark", viper.GetString("market.benchmark"))

	metrics, err := loadMetrics("GetBeta")
	if err != nil {
		return err
	}

	provider := data.NewCachedProvider(data.NewYahoo())
	result := metrics.Beta(context.Background(), provider, benchmark)
	return renderResult(c, result.Reason, result)
}

// GetSnapshots returns the stored snapshot history, optionally bounded by
// since/until dates and ordered by the `order` query parameter.
func GetSnapshots(c *fiber.Ctx) error {
	subLog := log.With().Str("Endpoint", "GetSnapshots").Logger()

	f, err := parseHistoryFilter(c)
	if err != nil {
		return err
	}

	store := portfolio.NewSnapshotStore()
	snapshots, err := store.Query(context.Background(), f)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query snapshots")
		return fiber.ErrInternalServerError
	}

	return c.JSON(snapshots)
}

// parseHistoryFilter reads the since/until/order query parameters shared
// by the history endpoints. Dates use the 2006-01-02 form interpreted in
// the market timezone.
func parseHistoryFilter(c *fiber.Ctx) (*filter.History, error) {
	f := &filter.History{}
	tz := common.GetTimezone()

	if since := c.Query("since"); since != "" {
		t, err := time.ParseInLocation("2006-01-02", since, tz)
		if err != nil {
			log.Warn().Err(err).Str("Since", since).Msg("invalid since query parameter")
			return nil, fiber.ErrBadRequest
		}
		f.Since = &t
	}

	if until := c.Query("until"); until != "" {
		t, err := time.ParseInLocation("2006-01-02", until, tz)
		if err != nil {
			log.Warn().Err(err).Str("Until", until).Msg("invalid until query parameter")
			return nil, fiber.ErrBadRequest
		}
		f.Until = &t
	}

	switch c.Query("order", "asc") {
	case "asc":
	case "desc":
		f.Descending = true
	default:
		log.Warn().Str("Order", c.Query("order")).Msg("invalid order query parameter")
		return nil, fiber.ErrBadRequest
	}

	return f, nil
}
