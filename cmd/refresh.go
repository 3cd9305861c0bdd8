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

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data"
	"github.com/foliotrack/ft-api/data/database"
	"github.com/foliotrack/ft-api/portfolio"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(refreshCmd)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch current prices for all held symbols and record a snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		common.SetupCache()

		if err := database.Connect(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}

		refresher := portfolio.NewRefresher(data.NewYahoo())
		result, err := refresher.Refresh(context.Background(), common.Today())
		if err != nil {
			log.Fatal().Stack().Err(err).Msg("price refresh failed")
		}

		printJSON(result)
	},
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("could not marshal result to JSON")
	}
	fmt.Println(string(out))
}
