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

	"github.com/foliotrack/ft-api/common"
	"github.com/foliotrack/ft-api/data/database"
	"github.com/foliotrack/ft-api/portfolio"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type holdingsFile struct {
	Holdings []struct {
		Symbol   string  `toml:"symbol"`
		Quantity float64 `toml:"quantity"`
		AvgPrice float64 `toml:"avg_price"`
	} `toml:"holdings"`
}

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file.toml>",
	Args:  cobra.ExactArgs(1),
	Short: "Bulk load holdings from a TOML file",
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		if err := database.Connect(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not read holdings file")
		}

		var parsed holdingsFile
		if err := toml.Unmarshal(raw, &parsed); err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not parse holdings file")
		}

		store := portfolio.NewHoldingStore()
		imported := 0

		for _, entry := range parsed.Holdings {
			if portfolio.NormalizeSymbol(entry.Symbol) == "" {
				log.Warn().Str("Symbol", entry.Symbol).Msg("skipping holding with empty symbol")
				continue
			}

			holding := &portfolio.Holding{
				Symbol:   entry.Symbol,
				Quantity: entry.Quantity,
				AvgPrice: entry.AvgPrice,
			}

			if err := store.Create(context.Background(), holding); err != nil {
				log.Fatal().Stack().Err(err).Str("Symbol", holding.Symbol).Msg("could not save holding")
			}

			imported++
		}

		fmt.Printf("imported %d holdings\n", imported)
	},
}
