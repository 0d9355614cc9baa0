// SPDX-License-Identifier: Apache-2.0

package resilience

import "context"

// WithFallback runs primary and, when it fails, hands the error to
// fallback for a second chance on a degraded path. The fallback sees
// the primary error and decides which ones pass through untouched.
func WithFallback[T any](ctx context.Context, primary func(context.Context) (T, error), fallback func(context.Context, error) (T, error)) (T, error) {
	value, err := primary(ctx)
	if err == nil {
		return value, nil
	}
	return fallback(ctx, err)
}
