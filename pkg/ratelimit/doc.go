// Package ratelimit throttles metadata fetches against weibo.com.
//
// TokenBucket refills to full capacity once per period. New builds the
// per-minute bucket used by the trigger handler, or Unlimited when the
// configured rate is zero:
//
//	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
