// Package httputil provides the retry helpers behind the projection API
// client.
//
// [Retry] re-runs a request while it fails with a [RetryableError]. Network
// errors are wrapped by the caller with [Retryable]; [CheckResponse] wraps
// 429 and 5xx responses itself and records the server's Retry-After:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckResponse(resp)
//	})
//
// Backoff doubles from the initial delay and is capped at 30 seconds, as is
// any Retry-After the server sends.
package httputil
