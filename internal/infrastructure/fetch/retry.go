package fetch

import "net/http"

// DefaultMaxAttempts is the total attempt budget for one upstream call.
const DefaultMaxAttempts = 3

// RetryPolicy decides which HTTP statuses are worth retrying. Transport
// failures are always retryable regardless of policy. The two stock
// predicates below are deliberately distinct per adapter; collapsing them
// would change retry behavior.
type RetryPolicy struct {
	MaxAttempts int
	RetryStatus func(status int) bool
}

// RetryThrottleAndServerErrors retries only on 429 and 5xx statuses. Other
// non-2xx statuses are fatal.
func RetryThrottleAndServerErrors(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// RetryAnyServerFailure retries on every non-2xx status, for adapters that
// opted into uniform retry of HTTP failures.
func RetryAnyServerFailure(status int) bool {
	return status < 200 || status >= 300
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (p RetryPolicy) retryStatus(status int) bool {
	if p.RetryStatus == nil {
		return RetryThrottleAndServerErrors(status)
	}
	return p.RetryStatus(status)
}
