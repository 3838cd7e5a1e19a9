package spotify

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	spotifyV2 "github.com/zmb3/spotify/v2"
)

// RateLimitError is returned when Spotify responds 429. RetryAfter carries
// the interval from the Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by spotify (retry after %s)", e.RetryAfter)
}

// GatewayError wraps any other non-2xx response from Spotify.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("spotify request failed (%d): %s", e.Status, e.Body)
}

const defaultRetryAfter = 5 * time.Second

// wrapErr maps zmb3 client errors onto the gateway error taxonomy.
// Network faults pass through unchanged.
func wrapErr(err error) error {
	var se spotifyV2.Error
	if !errors.As(err, &se) {
		return err
	}
	if se.Status == http.StatusTooManyRequests {
		retryAfter := se.RetryAfter
		if retryAfter <= 0 {
			retryAfter = defaultRetryAfter
		}
		return &RateLimitError{RetryAfter: retryAfter}
	}
	return &GatewayError{Status: se.Status, Body: snippet(se.Message)}
}

func snippet(body string) string {
	const max = 200
	if len(body) > max {
		return body[:max]
	}
	return body
}
