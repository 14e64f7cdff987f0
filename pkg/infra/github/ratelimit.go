package github

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/release-sync/pkg/domain/model"
)

// RetryDelay computes how long to wait before retrying a failed request.
// Server-declared waits win: Retry-After (seconds), then X-RateLimit-Reset
// (epoch seconds, plus one second of slack). Without either, the policy's
// capped exponential backoff for attempt is used.
func RetryDelay(header http.Header, attempt int, policy model.RetryPolicy, now time.Time) time.Duration {
	if seconds, ok := parsePositiveSeconds(header.Get("Retry-After")); ok {
		return durationOf(seconds * float64(time.Second))
	}

	if reset, ok := parsePositiveSeconds(header.Get("X-RateLimit-Reset")); ok {
		resetMs := reset * 1000
		nowMs := float64(now.UnixNano()) / float64(time.Millisecond)
		if delayMs := resetMs - nowMs + 1000; delayMs > 0 {
			return durationOf(delayMs * float64(time.Millisecond))
		}
	}

	return policy.Backoff(attempt)
}

// durationOf converts nanoseconds to a Duration, saturating at the largest
// representable wait instead of wrapping negative
func durationOf(ns float64) time.Duration {
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

func parsePositiveSeconds(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsInf(seconds, 0) || math.IsNaN(seconds) || seconds <= 0 {
		return 0, false
	}
	return seconds, true
}
