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

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/foliotrack/ft-api/portfolio"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// UpdatePrices runs one price refresh pass for today and returns its
// summary. Refreshing twice on the same day is harmless; already-stored
// symbols are skipped.
func UpdatePrices(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(context.Background(), "handler.UpdatePrices")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	subLog := log.With().Str("Endpoint", "UpdatePrices").Logger()

	refresher := portfolio.NewRefresher(data.NewYahoo())
	result, err := refresher.Refresh(ctx, common.Today())
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("price refresh failed")
		return fiber.ErrInternalServerError
	}

	return c.JSON(result)
}

// GetPriceHistory returns the stored closes for one symbol, optionally
// bounded by since/until dates.
func GetPriceHistory(c *fiber.Ctx) error {
	subLog := log.With().Str("Endpoint", "GetPriceHistory").Logger()

	symbol := portfolio.NormalizeSymbol(c.Params("symbol"))
	if symbol == "" {
		return fiber.NewError(fiber.StatusBadRequest, "symbol is required")
	}

	f, err := parseHistoryFilter(c)
	if err != nil {
		return err
	}
	f.Symbol = symbol

	priceDb := data.NewPriceDb()
	prices, err := priceDb.History(context.Background(), f)
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not query price history")
		return fiber.ErrInternalServerError
	}

	return c.JSON(prices)
}
