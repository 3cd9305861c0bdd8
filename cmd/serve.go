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
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/data/database"
	"github.com/foliotrack/ft-api/middleware"
	"github.com/foliotrack/ft-api/observability/opentelemetry"
	"github.com/foliotrack/ft-api/portfolio"
	"github.com/foliotrack/ft-api/router"

	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("server.cors_origins", "FT_CORS_ORIGINS")
	serveCmd.Flags().String("cors-origins", "*", "Comma separated list of allowed CORS origins")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	viper.BindEnv("refresh.schedule", "FT_REFRESH_SCHEDULE")
	serveCmd.Flags().String("refresh-schedule", "30 18 * * 1-5", "Cron expression for the automatic price refresh")
	viper.BindPFlag("refresh.schedule", serveCmd.Flags().Lookup("refresh-schedule"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ftapi server",
	Long:  `Run HTTP server that implements the FolioTrack API`,
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()
		log.Info().Msg("initialized logging")

		if viper.GetString("otel.endpoint") != "" {
			shutdown, err := opentelemetry.Setup()
			if err != nil {
				log.Fatal().Err(err).Msg("could not configure tracing")
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					log.Error().Err(err).Msg("could not shutdown tracer")
				}
			}()
		}

		// setup database
		if err := database.Connect(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}

		// Create new Fiber instance
		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		})

		// shutdown cleanly on interrupt
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-quit // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			database.LogOpenTransactions()
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("could not shutdown app")
			}
		}()

		// Configure CORS
		corsConfig := cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}
		app.Use(cors.New(corsConfig))

		// Setup logging middleware
		app.Use(middleware.NewLogger())

		// Setup routes
		router.SetupRoutes(app)

		tz := common.GetTimezone()

		// Schedule the daily price refresh
		refreshCron := cron.New(cron.WithLocation(tz))
		if _, err := refreshCron.AddFunc(viper.GetString("refresh.schedule"), runScheduledRefresh); err != nil {
			log.Fatal().Err(err).Str("Schedule", viper.GetString("refresh.schedule")).Msg("could not schedule price refresh")
		}
		refreshCron.Start()
		defer refreshCron.Stop()

		// Keep the benchmark series cache warm
		scheduler := gocron.NewScheduler(tz)
		scheduler.Every(1).Hours().Do(warmBenchmarkCache)
		scheduler.StartAsync()
		defer scheduler.Stop()

		// Start server
		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Fatal().Err(err).Msg("could not start server")
		}
	},
}

func runScheduledRefresh() {
	refresher := portfolio.NewRefresher(data.NewYahoo())
	result, err := refresher.Refresh(context.Background(), common.Today())
	if err != nil {
		log.Error().Stack().Err(err).Msg("scheduled price refresh failed")
		return
	}

	log.Info().
		Int("UpdatedPrices", result.UpdatedPrices).
		Strs("FailedSymbols", result.FailedSymbols).
		Bool("SnapshotCreated", result.SnapshotCreated).
		Msg("scheduled price refresh complete")
}

// warmBenchmarkCache re-primes the cached benchmark series used by the
// beta endpoint so interactive requests rarely wait on the provider.
func warmBenchmarkCache() {
	ctx := context.Background()

	store := portfolio.NewSnapshotStore()
	snapshots, err := store.ListAscending(ctx)
	if err != nil {
		log.Warn().Stack().Err(err).Msg("could not load snapshots to warm benchmark cache")
		return
	}

	returns := portfolio.DailyReturns(snapshots)
	if returns.Len() < 2 {
		return
	}

	provider := data.NewCachedProvider(data.NewYahoo())
	benchmark := viper.GetString("market.benchmark")
	if _, err := provider.Closes(ctx, benchmark, returns.Start(), returns.End().AddDate(0, 0, 1)); err != nil {
		log.Warn().Stack().Err(err).Str("Benchmark", benchmark).Msg("could not warm benchmark cache")
	}
}
