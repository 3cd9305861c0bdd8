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
	"time"

	"github.com/foliotrack/ft-api/timeseries"
)

// Provider retrieves market quotes from an external data source.
type Provider interface {
	// Closes returns the daily adjusted close series for symbol over the
	// interval [begin, end). Dates are normalized to midnight in the
	// configured market timezone. A successful request that yields no bars
	// returns an empty series and a nil error.
	Closes(ctx context.Context, symbol string, begin time.Time, end time.Time) (*timeseries.Series, error)

	// LatestClose returns the most recent finite, positive close for symbol
	// along with its trading date.
	LatestClose(ctx context.Context, symbol string) (float64, time.Time, error)
}
