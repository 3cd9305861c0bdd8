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

package cmd

import (
	"context"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/data/database"
	"github.com/foliotrack/ft-api/portfolio"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	analyzeWindow    int
	analyzeBenchmark string
)

func init() {
	analyzeCmd.Flags().IntVar(&analyzeWindow, "window", 3, "window size for rolling volatility")
	analyzeCmd.Flags().StringVar(&analyzeBenchmark, "benchmark", "", "benchmark symbol for beta (default market.benchmark)")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute risk and return analytics over the stored snapshot history",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()

		if err := database.Connect(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}

		snapshots, err := portfolio.NewSnapshotStore().ListAscending(context.Background())
		if err != nil {
			log.Fatal().Stack().Err(err).Msg("could not load portfolio snapshots")
		}

		benchmark := analyzeBenchmark
		if benchmark == "" {
			benchmark = viper.GetString("market.benchmark")
		}

		metrics := portfolio.NewMetrics(snapshots)
		provider := data.NewCachedProvider(data.NewYahoo())

		performance := metrics.Performance()
		drawDown := metrics.MaxDrawDown()
		volatility := metrics.Volatility()
		sharpe := metrics.SharpeRatio()
		rolling := metrics.RollingVolatility(analyzeWindow)
		beta := metrics.Beta(context.Background(), provider, benchmark)

		printJSON(map[string]any{
			"performance":        resultPayload(performance.Reason, performance),
			"max_drawdown":       resultPayload(drawDown.Reason, drawDown),
			"volatility":         resultPayload(volatility.Reason, volatility),
			"sharpe":             resultPayload(sharpe.Reason, sharpe),
			"rolling_volatility": resultPayload(rolling.Reason, rolling),
			"beta":               resultPayload(beta.Reason, beta),
		})
	},
}

// resultPayload mirrors the HTTP handlers: a degenerate result collapses to
// its message, a successful one is emitted whole.
func resultPayload(reason portfolio.Reason, result any) any {
	if reason != "" {
		return map[string]string{"message": string(reason)}
	}

	return result
}
