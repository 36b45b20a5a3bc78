package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type Role string

const (
	ROLE_CUSTOMER Role = "customer"
	ROLE_VENDOR   Role = "vendor"
	ROLE_ADMIN    Role = "admin"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
	BOOKING_COMPLETED BookingStatus = "completed"
)

type BookingPaymentStatus string

const (
	BOOKING_PAYMENT_PENDING  BookingPaymentStatus = "pending"
	BOOKING_PAYMENT_PAID     BookingPaymentStatus = "paid"
	BOOKING_PAYMENT_REFUNDED BookingPaymentStatus = "refunded"
)

type PaymentStatus string

const (
	PAYMENT_CREATED    PaymentStatus = "created"
	PAYMENT_AUTHORIZED PaymentStatus = "authorized"
	PAYMENT_CAPTURED   PaymentStatus = "captured"
	PAYMENT_FAILED     PaymentStatus = "failed"
	PAYMENT_REFUNDED   PaymentStatus = "refunded"
)

type ReviewStatus string

const (
	REVIEW_ACTIVE  ReviewStatus = "active"
	REVIEW_HIDDEN  ReviewStatus = "hidden"
	REVIEW_FLAGGED ReviewStatus = "flagged"
)

type ListingStatus string

const (
	LISTING_ACTIVE   ListingStatus = "active"
	LISTING_INACTIVE ListingStatus = "inactive"
)

type Env string

const (
	Local      Env = "local"
	Test       Env = "test"
	Production Env = "production"
)

type PricingSnapshot struct {
	BaseAmount    float64 `json:"baseAmount" binding:"required,gt=0"`
	DepositAmount float64 `json:"depositAmount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,len=3"`
}

type CreateBookingRequestBody struct {
	VendorID    uint            `json:"vendorId" binding:"required"`
	ListingID   uint            `json:"listingId" binding:"required"`
	ServiceDate string          `json:"serviceDate" binding:"required,bookabledate"`
	Location    string          `json:"location" binding:"required"`
	Pricing     PricingSnapshot `json:"pricing" binding:"required"`
}

type ListBookingsQueryFilters struct {
	Status string `form:"status,omitempty" binding:"omitempty"`
	Page   int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit  int    `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
}

type ListListingsQueryFilters struct {
	Category string `form:"category,omitempty"`
	Location string `form:"location,omitempty"`
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit    int    `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
}

type CreateOrderRequestBody struct {
	BookingID uint    `json:"bookingId" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Currency  string  `json:"currency,omitempty"`
}

type VerifyPaymentRequestBody struct {
	RazorpayOrderID   string `json:"razorpayOrderId" binding:"required"`
	RazorpayPaymentID string `json:"razorpayPaymentId" binding:"required"`
	RazorpaySignature string `json:"razorpaySignature" binding:"required"`
	BookingID         uint   `json:"bookingId,omitempty"`
}

type PaymentFailureRequestBody struct {
	RazorpayOrderID string `json:"razorpayOrderId" binding:"required"`
	Error           JSONB  `json:"error,omitempty"`
}

type RefundRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

type CreateReviewRequestBody struct {
	BookingID uint   `json:"bookingId" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment" binding:"required"`
}

type ModerateReviewRequestBody struct {
	Status ReviewStatus `json:"status" binding:"required,oneof=active hidden flagged"`
}

type CreateListingRequestBody struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category" binding:"required"`
	BasePrice   float64 `json:"base_price" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,len=3"`
	Location    string  `json:"location,omitempty"`
}

type RequestOTPRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequestBody struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role,omitempty" binding:"omitempty,oneof=customer vendor"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type Claims struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalBookings int64 `json:"totalBookings"`
	HasNext       bool  `json:"hasNext"`
	HasPrev       bool  `json:"hasPrev"`
}

type ReviewSummary struct {
	ReviewableBookings int `json:"reviewableBookings"`
	PromptsDue         int `json:"promptsDue"`
}
