package emailsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/trezcool/quizadmin/core"
)

// withRetry runs fn until it succeeds, returns a retry.Unrecoverable error or runs out of attempts.
func withRetry(ctx context.Context, conf core.MailConfig, logger core.Logger, backend string, fn func() error) error {
	attempts := conf.Retries
	if attempts == 0 {
		attempts = 1
	}
	delay := conf.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return retry.Do(
		fn,
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(fmt.Sprintf("%s: retrying email send (attempt %d): %v", backend, n+1, err), err)
		}),
	)
}
