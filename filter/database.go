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

package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgsql"
	"github.com/jackc/pgx/v4"
)

// BuildQuery assembles a parameterized SELECT statement. Field and table
// names are escaped as postgres identifiers; safeFields are emitted as-is
// for expressions the caller controls. Each where entry maps a column to
// one or more clauses of the form [OP].[value], so a column can carry both
// a lower and an upper bound.
func BuildQuery(from string, fields []string, safeFields []string, where map[string][]string, order string) (string, []interface{}, error) {
	if strings.Compare(from, "") == 0 {
		return "", nil, errors.New("'from' cannot be empty")
	}
	stmt := &pgsql.SelectStatement{}
	for _, ff := range fields {
		stmt.Select(pgx.Identifier{ff}.Sanitize())
	}

	for _, ff := range safeFields {
		stmt.Select(ff)
	}

	stmt.From(pgx.Identifier{from}.Sanitize())

	for k, clauses := range where {
		k = pgx.Identifier{k}.Sanitize()
		for _, v := range clauses {
			p := strings.SplitN(v, ".", 2)
			if len(p) != 2 {
				return "", nil, errors.New("where clauses must take the form [OP].[value]")
			}
			op, val := p[0], p[1]
			switch op {
			case "eq":
				stmt.Where(fmt.Sprintf("%s = ?", k), val)
			case "gt":
				stmt.Where(fmt.Sprintf("%s > ?", k), val)
			case "gte":
				stmt.Where(fmt.Sprintf("%s >= ?", k), val)
			case "lt":
				stmt.Where(fmt.Sprintf("%s < ?", k), val)
			case "lte":
				stmt.Where(fmt.Sprintf("%s <= ?", k), val)
			case "neq":
				stmt.Where(fmt.Sprintf("%s <> ?", k), val)
			case "like":
				stmt.Where(fmt.Sprintf("%s like ?", k), val)
			case "ilike":
				stmt.Where(fmt.Sprintf("%s ilike ?", k), val)
			case "in":
				stmt.Where(fmt.Sprintf("%s in ?", k), val)
			case "is":
				stmt.Where(fmt.Sprintf("%s is ?", k), val)
			default:
				return "", nil, errors.New("unrecognized operator")
			}
		}
	}

	if order != "" {
		stmt.Order(order)
	}

	sql, args := pgsql.Build(stmt)
	return sql, args, nil
}
