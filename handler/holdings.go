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

	"github.com/foliotrack/ft-api/portfolio"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// CreateHoldingParams is the request body for CreateHolding.
type CreateHoldingParams struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
}

// CreateHolding adds a position to the portfolio and echoes the stored
// holding, including its assigned id.
func CreateHolding(c *fiber.Ctx) error {
	subLog := log.With().Str("Endpoint", "CreateHolding").Logger()

	params := CreateHoldingParams{}
	if err := c.BodyParser(&params); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not parse request body")
		return fiber.ErrBadRequest
	}

	if portfolio.NormalizeSymbol(params.Symbol) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "symbol is required")
	}

	holding := &portfolio.Holding{
		Symbol:   params.Symbol,
		Quantity: params.Quantity,
		AvgPrice: params.AvgPrice,
	}

	store := portfolio.NewHoldingStore()
	if err := store.Create(context.Background(), holding); err != nil {
		subLog.Error().Stack().Err(err).Msg("could not save holding")
		return fiber.ErrInternalServerError
	}

	return c.JSON(holding)
}

// ListHoldings returns every holding in the portfolio.
func ListHoldings(c *fiber.Ctx) error {
	subLog := log.With().Str("Endpoint", "ListHoldings").Logger()

	store := portfolio.NewHoldingStore()
	holdings, err := store.List(context.Background())
	if err != nil {
		subLog.Error().Stack().Err(err).Msg("could not list holdings")
		return fiber.ErrInternalServerError
	}

	return c.JSON(holdings)
}
