package utils

import (
	"errors"
	"esm/src/config"
	"esm/src/models"
	"esm/src/types"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func GenerateJWT(email string, id uint, role types.Role) (string, error) {
	claims := &types.Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(id),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// FormatBookingNumber renders prefix-date-sequence, e.g. EVB-20260829-0001.
func FormatBookingNumber(t time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", config.BOOKING_NUMBER_PREFIX, t.Format("20060102"), seq)
}

// AllocateBookingNumber walks the day's sequence starting at start until
// taken reports a free number. The unique index on booking_number remains
// the final arbiter; callers retry the insert on a duplicate-key error.
func AllocateBookingNumber(t time.Time, start int, taken func(string) (bool, error)) (string, error) {
	if start < 1 {
		start = 1
	}
	for seq := start; seq <= 9999; seq++ {
		candidate := FormatBookingNumber(t, seq)
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("booking number space exhausted for %s", t.Format("2006-01-02"))
}

func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key")
}

// ToMinorUnits converts a decimal currency amount to the gateway's integer
// representation. Done exactly once per payment order.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func ValidateBookingPricing(p *types.PricingSnapshot) error {
	if p.BaseAmount <= 0 || p.DepositAmount <= 0 {
		return types.NewValidationError("Amounts must be greater than zero", nil)
	}
	if p.DepositAmount > p.BaseAmount {
		return types.NewValidationError("Deposit amount cannot exceed base amount", nil)
	}
	expected := p.BaseAmount * config.DEPOSIT_PERCENT
	if math.Abs(p.DepositAmount-expected) > config.DEPOSIT_ROUNDING_TOLERANCE {
		return types.NewValidationError(
			fmt.Sprintf("Deposit amount must be %.0f%% of the base amount", config.DEPOSIT_PERCENT*100), nil)
	}
	return nil
}

// MakeReceipt builds a short reference for the gateway order. Razorpay caps
// receipts at 40 characters.
func MakeReceipt(bookingNumber string, now time.Time) string {
	suffix := bookingNumber
	if idx := strings.LastIndex(bookingNumber, "-"); idx >= 0 {
		suffix = bookingNumber[idx+1:]
	}
	r := fmt.Sprintf("rcpt_%s_%d", suffix, now.Unix())
	if len(r) > 40 {
		r = r[:40]
	}
	return r
}

func ComputeReviewCoins(comment string, vendorReviewCount int64) int {
	coins := config.REVIEW_COINS_BASE
	if len(comment) >= config.REVIEW_LENGTH_BONUS_CHARS {
		coins += config.REVIEW_COINS_LENGTH_BONUS
	}
	if vendorReviewCount < config.REVIEW_EARLY_VENDOR_REVIEWS {
		coins += config.REVIEW_COINS_EARLY_BONUS
	}
	return coins
}

// IncrementalAverage folds one more rating into a running mean.
func IncrementalAverage(oldAvg float64, oldCount int64, newRating int) float64 {
	return (oldAvg*float64(oldCount) + float64(newRating)) / float64(oldCount+1)
}

func Paginate(page, limit int, total int64) types.Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return types.Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalBookings: total,
		HasNext:       page < totalPages,
		HasPrev:       page > 1 && total > 0,
	}
}

// NeedsReviewPrompt decides on read whether a booking should surface a
// review prompt to its customer.
func NeedsReviewPrompt(b *models.Booking, now time.Time) bool {
	if b.Status != types.BOOKING_COMPLETED || b.Review != nil {
		return false
	}
	maxPrompts := b.MaxReviewPrompts
	if maxPrompts == 0 {
		maxPrompts = config.MAX_REVIEW_PROMPTS
	}
	if b.ReviewPromptCount >= maxPrompts {
		return false
	}
	if b.NextReviewPromptAt == nil {
		return false
	}
	return !now.Before(*b.NextReviewPromptAt)
}

// Reviewable reports whether a completed booking can still accept a review,
// independent of prompt scheduling.
func Reviewable(b *models.Booking) bool {
	return b.Status == types.BOOKING_COMPLETED && b.Review == nil
}

func RespondData(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, gin.H{"success": true, "data": data})
}

func RespondMessage(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"success": true, "message": message})
}

func RespondError(ctx *gin.Context, err error) {
	apiErr := types.AsAPIError(err)
	body := gin.H{"success": false, "message": apiErr.Message}
	if !config.IsProd() && apiErr.Err != nil {
		body["error"] = apiErr.Err.Error()
	}
	ctx.JSON(apiErr.Status, body)
}

func IsProd() bool {
	return config.IsProd()
}
