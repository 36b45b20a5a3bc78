package lib

import (
	"context"
	"crypto/subtle"
	"esm/src/config"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// One-time login codes live in redis with a per-entry TTL so they survive
// process restarts and work across replicas.

func otpKey(email string) string {
	return fmt.Sprintf("otp:%s", email)
}

func StoreOTP(ctx context.Context, email string, code string) error {
	rd := GetRedisClient()
	return rd.SetEx(ctx, otpKey(email), code, config.OTP_TTL_SECONDS*time.Second).Err()
}

// CheckOTP reports whether code matches the stored value for email. The
// lookup removes the code in the same command, so each issued code is good
// for exactly one attempt and concurrent verifications cannot both consume
// it.
func CheckOTP(ctx context.Context, email string, code string) (bool, error) {
	rd := GetRedisClient()
	stored, err := rd.GetDel(ctx, otpKey(email)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}
