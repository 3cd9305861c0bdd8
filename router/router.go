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

package router

import (
	"github.com/foliotrack/ft-api/handler"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App) {
	app.Get("/", handler.Ping)

	api := app.Group("/v1")

	// Holdings
	holdings := api.Group("/holdings")
	holdings.Post("/", handler.CreateHolding)
	holdings.Get("/", handler.ListHoldings)

	// Portfolio analytics
	portfolio := api.Group("/portfolio")
	portfolio.Get("/value", handler.GetPortfolioValue)
	portfolio.Get("/performance", handler.GetPerformance)
	portfolio.Get("/drawdown", handler.GetMaxDrawDown)
	portfolio.Get("/volatility", handler.GetVolatility)
	portfolio.Get("/volatility/rolling", handler.GetRollingVolatility)
	portfolio.Get("/sharpe", handler.GetSharpeRatio)
	portfolio.Get("/beta", handler.GetBeta)
	portfolio.Get("/snapshots", handler.GetSnapshots)

	// Prices
	prices := api.Group("/prices")
	prices.Post("/update", handler.UpdatePrices)
	prices.Get("/:symbol", handler.GetPriceHistory)
}
