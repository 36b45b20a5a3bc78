package config

import (
	"fmt"
	"os"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"
const DATE_PARSE_FORMAT = "2006-01-02"

// Booking numbers look like EVB-20260829-0001
const BOOKING_NUMBER_PREFIX = "EVB"

// Deposit policy: fraction of the base amount collected upfront to confirm a booking
const DEPOSIT_PERCENT = 0.10
const DEPOSIT_ROUNDING_TOLERANCE = 1.0

const MAX_REVIEW_PROMPTS = 8
const REVIEW_PROMPT_BACKOFF_HOURS = 72
const REVIEW_MIN_COMMENT_LEN = 10

const (
	REVIEW_COINS_BASE           = 50
	REVIEW_COINS_LENGTH_BONUS   = 25
	REVIEW_COINS_EARLY_BONUS    = 50
	REVIEW_LENGTH_BONUS_CHARS   = 100
	REVIEW_EARLY_VENDOR_REVIEWS = 5
)

const OTP_TTL_SECONDS = 600

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}
