// Copyright 2026 The Oro Authors.
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

package log

import (
	"golang.org/x/time/rate"
)

// rateLimited wraps a Logger so that no more than one message per `every`
// gets through. This exists for paths that can legitimately fire on every
// tick or every failed allocation (OOM retries, fault storms) where an
// unthrottled logger would itself become the bottleneck.
type rateLimited struct {
	logger Logger
	limit  *rate.Limiter
}

// RateLimited returns a Logger that forwards to logger no more than once
// per every seconds.
func RateLimited(logger Logger, every float64) Logger {
	return &rateLimited{
		logger: logger,
		limit:  rate.NewLimiter(rate.Limit(1/every), 1),
	}
}

func (r *rateLimited) Debugf(format string, v ...any) {
	if r.limit.Allow() {
		r.logger.Debugf(format, v...)
	}
}

func (r *rateLimited) Infof(format string, v ...any) {
	if r.limit.Allow() {
		r.logger.Infof(format, v...)
	}
}

func (r *rateLimited) Warningf(format string, v ...any) {
	if r.limit.Allow() {
		r.logger.Warningf(format, v...)
	}
}

func (r *rateLimited) IsLogging(level Level) bool {
	return r.logger.IsLogging(level)
}
