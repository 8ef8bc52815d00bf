// Copyright 2025 Nguyen Nhat Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"
	"github.com/redis/rueidis/rueidislock"
	"github.com/redis/rueidis/rueidisotel"
)

// NewRueidisClient builds a client from cfg and PINGs it before returning.
// Failed commands are logged through a rueidishook when cfg.LogFailures is set.
func NewRueidisClient(ctx context.Context, cfg RedisConfig) (rueidis.Client, error) {
	clientOpt, err := clientOption(cfg)
	if err != nil {
		return nil, err
	}

	var cli rueidis.Client
	if cfg.EnableOtel {
		cli, err = rueidisotel.NewClient(clientOpt)
	} else {
		cli, err = rueidis.NewClient(clientOpt)
	}
	if err != nil {
		slog.ErrorContext(ctx, "error during rueidis init", slog.Any("error", err))
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := cli.Do(pingCtx, cli.B().Ping().Build()).Error(); err != nil {
		cli.Close()
		return nil, err
	}

	slog.Info("rueidis: connected",
		slog.String("mode", string(cli.Mode())),
		slog.String("client_name", cfg.ClientName),
	)

	if cfg.LogFailures {
		cli = rueidishook.WithHook(cli, LoggingHook{})
	}
	return cli, nil
}

// NewLocker builds a rueidislock.Locker on its own connections, keys live under keyPrefix.
func NewLocker(cfg RedisConfig, keyPrefix string) (rueidislock.Locker, error) {
	clientOpt, err := clientOption(cfg)
	if err != nil {
		return nil, err
	}
	// locks rely on invalidation, not on the shared read cache
	clientOpt.ClientTrackingOptions = nil

	return rueidislock.NewLocker(rueidislock.LockerOption{
		ClientOption:   clientOpt,
		KeyPrefix:      keyPrefix,
		KeyValidity:    cfg.LockKeyValidity,
		KeyMajority:    1,
		NoLoopTracking: true,
	})
}

func clientOption(cfg RedisConfig) (rueidis.ClientOption, error) {
	if cfg.URL == "" {
		return rueidis.ClientOption{}, errors.New("rueidis: URL must not be empty")
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return rueidis.ClientOption{}, fmt.Errorf("rueidis: parse url: %w", err)
	}

	host := u.Hostname()
	if u.Scheme == "redis" {
		if cfg.RequireTLS {
			return rueidis.ClientOption{}, errors.New("rueidis: RequireTLS=true but URL uses redis:// (plaintext); use rediss://")
		}
		if cfg.SkipTLSVerify || cfg.AutoDetectAWS {
			slog.Warn("rueidis: redis:// URL disables TLS even though TLS-related options are set",
				slog.String("host", host),
				slog.Bool("skip_tls_verify", cfg.SkipTLSVerify),
				slog.Bool("auto_detect_aws", cfg.AutoDetectAWS),
			)
		}
	}

	if cfg.AutoDetectAWS && strings.Contains(u.Host, ".cache.amazonaws.com") {
		slog.Info("rueidis: detected AWS ElastiCache endpoint", slog.String("host", host))
		if u.Scheme == "redis" {
			return rueidis.ClientOption{}, errors.New("rueidis: aws detected but using redis:// (plaintext)")
		}
		cfg.SkipTLSVerify = true
	}

	if cfg.DisableCache && len(cfg.ClientTrackingPrefixes) > 0 {
		slog.Warn("rueidis: client tracking enabled with client cache disabled")
	}

	clientOpt, err := rueidis.ParseURL(cfg.URL)
	if err != nil {
		return rueidis.ClientOption{}, err
	}

	clientOpt.ClientName = cfg.ClientName
	clientOpt.DisableRetry = cfg.DisableRetry
	clientOpt.DisableCache = cfg.DisableCache
	clientOpt.AlwaysPipelining = cfg.AlwaysPipelining

	if cfg.RingScaleEachConn > 0 {
		clientOpt.RingScaleEachConn = cfg.RingScaleEachConn
	}
	if cfg.CacheSizeEachConn > 0 {
		clientOpt.CacheSizeEachConn = cfg.CacheSizeEachConn
	}
	if cfg.ConnWriteTimeout > 0 {
		clientOpt.ConnWriteTimeout = cfg.ConnWriteTimeout
	}

	if cfg.SkipTLSVerify {
		if clientOpt.TLSConfig == nil {
			clientOpt.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
		} else {
			tc := clientOpt.TLSConfig.Clone()
			tc.InsecureSkipVerify = true //nolint:gosec
			clientOpt.TLSConfig = tc
		}
	}

	// BCAST + OPTIN: tracking is per prefix, callers opt in with DoCache
	if len(cfg.ClientTrackingPrefixes) > 0 {
		tracking := make([]string, 0, len(cfg.ClientTrackingPrefixes)*2+2)
		for _, p := range cfg.ClientTrackingPrefixes {
			if p = strings.TrimSpace(p); p != "" {
				tracking = append(tracking, "PREFIX", p)
			}
		}
		tracking = append(tracking, "BCAST", "OPTIN")
		clientOpt.ClientTrackingOptions = tracking
	}

	return clientOpt, nil
}
