package lib

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestStoreOTP(t *testing.T) {
	client, mock := redismock.NewClientMock()
	NewRedisClient(client)

	mock.ExpectSetEx("otp:someone@example.com", "123456", 600*time.Second).SetVal("OK")

	err := StoreOTP(context.Background(), "someone@example.com", "123456")
	assert.Nil(t, err)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCheckOTPMatchConsumesCode(t *testing.T) {
	client, mock := redismock.NewClientMock()
	NewRedisClient(client)

	mock.ExpectGetDel("otp:someone@example.com").SetVal("123456")

	ok, err := CheckOTP(context.Background(), "someone@example.com", "123456")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCheckOTPMismatchConsumesCode(t *testing.T) {
	client, mock := redismock.NewClientMock()
	NewRedisClient(client)

	// The lookup is destructive either way: a wrong guess burns the code
	// instead of leaving it open for further attempts.
	mock.ExpectGetDel("otp:someone@example.com").SetVal("123456")

	ok, err := CheckOTP(context.Background(), "someone@example.com", "654321")
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCheckOTPMissingCode(t *testing.T) {
	client, mock := redismock.NewClientMock()
	NewRedisClient(client)

	mock.ExpectGetDel("otp:nobody@example.com").RedisNil()

	ok, err := CheckOTP(context.Background(), "nobody@example.com", "123456")
	assert.Nil(t, err)
	assert.False(t, ok)
}
