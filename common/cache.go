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

package common

import (
	"context"
	"errors"
	"os"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Two-tier cache: a local LRU in front of an optional shared redis
// instance. Values are lz4 compressed in both tiers.

var rdb *redis.Client
var localCache *lru.Cache

var ErrCacheMiss = errors.New("key not found in cache")

func SetupCache() {
	var err error
	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			os.Exit(1)
		}

		rdb = redis.NewClient(opt)
	}

	localCache, err = lru.New(viper.GetInt("cache.local_size"))
	if err != nil {
		log.Error().Err(err).Msg("could not create LRU cache")
		os.Exit(1)
	}
}

func CacheSet(ctx context.Context, key string, val []byte) error {
	compressed, err := Compress(val)
	if err != nil {
		return err
	}
	localCache.Add(key, compressed)

	if viper.GetBool("cache.redis") {
		expires := viper.GetDuration("cache.ttl")
		return rdb.Set(ctx, key, compressed, expires).Err()
	}
	return nil
}

func CacheGet(ctx context.Context, key string) ([]byte, error) {
	if v, ok := localCache.Get(key); ok {
		return Decompress(v.([]byte))
	}

	if viper.GetBool("cache.redis") {
		expires := viper.GetDuration("cache.ttl")
		val, err := rdb.GetEx(ctx, key, expires).Bytes()
		if err != nil {
			return nil, ErrCacheMiss
		}
		// repopulate the local tier
		localCache.Add(key, val)
		return Decompress(val)
	}

	return nil, ErrCacheMiss
}
