package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

const otpThrottleKeyPrefix = "otp:requests:"

// The window starts with the first request; later requests only count.
var countRequestScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then redis.call('PEXPIRE', KEYS[1], ARGV[1]) end
return count
`)

// OTPThrottle counts OTP requests per email in a fixed window.
type OTPThrottle struct {
	client redis.Scripter
	limit  int64
	window time.Duration
	logger *slog.Logger
}

func NewOTPThrottle(client redis.Scripter, limit int, window time.Duration, logger *slog.Logger) *OTPThrottle {
	return &OTPThrottle{
		client: client,
		limit:  int64(limit),
		window: window,
		logger: logger.With("component", "otp_throttle"),
	}
}

// Allow records one request and reports whether the email is still under the limit.
// Keys hold a hash so addresses are not stored in Redis.
func (t *OTPThrottle) Allow(ctx context.Context, email string) (bool, error) {
	key := throttleKey(email)
	count, err := countRequestScript.Run(ctx, t.client, []string{key}, t.window.Milliseconds()).Int64()
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to count otp request", "key", key, "error", err)
		return false, fmt.Errorf("counting otp requests: %w", err)
	}
	if count > t.limit {
		t.logger.WarnContext(ctx, "OTP request limit reached", "key", key, "count", count)
		return false, nil
	}
	return true, nil
}

func throttleKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return otpThrottleKeyPrefix + hex.EncodeToString(sum[:])
}
