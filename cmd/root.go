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
	"fmt"
	"os"
	"time"

	"github.com/foliotrack/ft-api/pkginfo"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	// Cache
	viper.BindEnv("cache.redis", "FT_CACHE_REDIS")
	rootCmd.PersistentFlags().Bool("cache-redis", false, "Enable the shared redis cache tier")
	viper.BindPFlag("cache.redis", rootCmd.PersistentFlags().Lookup("cache-redis"))

	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("cache-redis-url", "redis://localhost:6379", "Redis connection string")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("cache-redis-url"))

	viper.BindEnv("cache.local_size", "FT_CACHE_LOCAL_SIZE")
	rootCmd.PersistentFlags().Int("cache-local-size", 1024, "Number of entries in the in-process LRU cache")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-local-size"))

	viper.BindEnv("cache.ttl", "FT_CACHE_TTL")
	rootCmd.PersistentFlags().Duration("cache-ttl", time.Hour, "Lifetime of cached market data")
	viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))

	// Logging configuration
	viper.BindEnv("log.level", "FT_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "FT_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "FT_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "FT_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print logs in a human friendly console format")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Market data
	viper.BindEnv("market.timezone", "FT_MARKET_TIMEZONE")
	rootCmd.PersistentFlags().String("market-timezone", "Asia/Kolkata", "Timezone that anchors market dates")
	viper.BindPFlag("market.timezone", rootCmd.PersistentFlags().Lookup("market-timezone"))

	viper.BindEnv("market.benchmark", "FT_MARKET_BENCHMARK")
	rootCmd.PersistentFlags().String("market-benchmark", "^NSEI", "Default benchmark symbol for beta")
	viper.BindPFlag("market.benchmark", rootCmd.PersistentFlags().Lookup("market-benchmark"))

	viper.BindEnv("provider.timeout", "FT_PROVIDER_TIMEOUT")
	rootCmd.PersistentFlags().Duration("provider-timeout", 10*time.Second, "Timeout for market data provider requests")
	viper.BindPFlag("provider.timeout", rootCmd.PersistentFlags().Lookup("provider-timeout"))

	// Telemetry
	viper.BindEnv("otel.exporter", "FT_OTEL_EXPORTER")
	rootCmd.PersistentFlags().String("otel-exporter", "http", "OTLP exporter protocol, one of: http, grpc")
	viper.BindPFlag("otel.exporter", rootCmd.PersistentFlags().Lookup("otel-exporter"))

	viper.BindEnv("otel.endpoint", "FT_OTEL_ENDPOINT")
	rootCmd.PersistentFlags().String("otel-endpoint", "", "OTLP collector endpoint, if blank don't export traces")
	viper.BindPFlag("otel.endpoint", rootCmd.PersistentFlags().Lookup("otel-endpoint"))
}

var rootCmd = &cobra.Command{
	Use:     pkginfo.ProgramName,
	Version: pkginfo.Version,
	Short:   "FolioTrack portfolio analytics service",
	Long:    `FolioTrack tracks portfolio holdings, refreshes end-of-day prices, and serves risk and return analytics over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
