// Package httputil provides retry helpers for outgoing HTTP calls.
//
// [Retry] runs an operation until it succeeds, fails with an error that is
// not marked retryable, or runs out of attempts. Mark transient failures
// by wrapping them in [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, 500*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    if httputil.RetryableStatus(resp.StatusCode) {
//	        return &httputil.RetryableError{Err: fmt.Errorf("status %d", resp.StatusCode)}
//	    }
//	    return nil
//	})
//
// Errors that should count as transient:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// The delay between attempts doubles after each failure and is capped at
// [MaxDelay].
package httputil
