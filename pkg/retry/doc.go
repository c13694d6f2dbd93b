// Package retry re-issues operations whose failures are classified as
// retryable.
//
// The download policy retries timeouts only, with no attempt bound unless
// MaxAttempts is set:
//
//	attempts := 0
//	err := retry.Do(func() error {
//		attempts++
//		return saver.Save(ctx, url, filename, headers)
//	}, &retry.Config{
//		MaxAttempts: cfg.Download.MaxAttempts,
//		Backoff:     &retry.ConstantBackoff{Delay: cfg.Download.RetryDelay},
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//	})
//
// When the budget runs out the returned error wraps both ErrMaxAttempts and
// the last failure.
package retry
