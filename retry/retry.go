// Copyright 2025 ChattyDevs
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


// Package retry provides a fixed-delay retry policy injected into
// network-calling components.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts is returned when a policy's MaxAttempts is <= 0.
var ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

// Policy retries an operation a bounded number of times with a fixed
// delay between attempts. The zero Sleep field uses a real timer; tests
// inject their own to avoid waiting.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the fixed wait between attempts.
	Delay time.Duration

	// Sleep waits for d or until ctx is done. Nil uses a timer-backed wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy creates a Policy with the given attempt count and fixed delay.
func NewPolicy(maxAttempts int, delay time.Duration) Policy {
	return Policy{MaxAttempts: maxAttempts, Delay: delay}
}

// Do runs operation until it succeeds, the attempts are exhausted, or ctx
// is done. The error from the last attempt is returned when all attempts
// fail.
func (p Policy) Do(ctx context.Context, operation func() error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt, "maxAttempts", p.MaxAttempts, "error", lastErr)

		if attempt == p.MaxAttempts {
			break
		}

		if err := sleep(ctx, p.Delay); err != nil {
			return err
		}
	}

	return lastErr
}

// timerSleep waits for d with context awareness.
func timerSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
