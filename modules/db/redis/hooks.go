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
	"log/slog"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"
)

var _ rueidishook.Hook = LoggingHook{}

// LoggingHook logs commands that fail with anything other than a nil reply.
type LoggingHook struct{}

func (LoggingHook) Do(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	name := commandName(cmd.Commands())
	resp := client.Do(ctx, cmd)
	logFailure(ctx, name, resp.Error())
	return resp
}

func (LoggingHook) DoMulti(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) []rueidis.RedisResult {
	resps := client.DoMulti(ctx, multi...)
	for _, resp := range resps {
		logFailure(ctx, "MULTI", resp.Error())
	}
	return resps
}

func (LoggingHook) DoCache(client rueidis.Client, ctx context.Context, cmd rueidis.Cacheable, ttl time.Duration) rueidis.RedisResult {
	name := commandName(cmd.Commands())
	resp := client.DoCache(ctx, cmd, ttl)
	logFailure(ctx, name, resp.Error())
	return resp
}

func (LoggingHook) DoMultiCache(client rueidis.Client, ctx context.Context, multi ...rueidis.CacheableTTL) []rueidis.RedisResult {
	return client.DoMultiCache(ctx, multi...)
}

func (LoggingHook) Receive(client rueidis.Client, ctx context.Context, subscribe rueidis.Completed, fn func(msg rueidis.PubSubMessage)) error {
	err := client.Receive(ctx, subscribe, fn)
	logFailure(ctx, "RECEIVE", err)
	return err
}

func (LoggingHook) DoStream(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResultStream {
	return client.DoStream(ctx, cmd)
}

func (LoggingHook) DoMultiStream(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) rueidis.MultiRedisResultStream {
	return client.DoMultiStream(ctx, multi...)
}

func commandName(cmds []string) string {
	if len(cmds) == 0 {
		return ""
	}
	return cmds[0]
}

func logFailure(ctx context.Context, name string, err error) {
	if err == nil || rueidis.IsRedisNil(err) {
		return
	}
	slog.WarnContext(ctx, "redis command failed",
		slog.String("redis.command", name),
		slog.Any("error", err),
	)
}
