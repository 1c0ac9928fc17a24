package resilience

import "time"

// RetryPolicy retries an operation a bounded number of times with a fixed
// pause between attempts. It runs the operation MaxRetries+1 times in the
// worst case.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func NewRetryPolicy(maxRetries int, backoff time.Duration) RetryPolicy {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	return RetryPolicy{MaxRetries: maxRetries, Backoff: backoff}
}

// Do runs fn until it succeeds or the attempt budget is spent, returning the
// last error. The backoff is flat; the startup route reset this serves gains
// nothing from exponential growth.
func (r RetryPolicy) Do(fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt == r.MaxRetries {
			return err
		}
		time.Sleep(r.Backoff)
	}
}
