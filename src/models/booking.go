package models

import (
	"esm/src/types"
	"time"
)

type Booking struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	BookingNumber string `gorm:"uniqueIndex" json:"booking_number,omitempty"`
	CustomerID    uint   `json:"customer_id,omitempty"`
	VendorID      uint   `json:"vendor_id,omitempty"`
	ListingID     uint   `json:"listing_id,omitempty"`

	ServiceDate time.Time `json:"service_date,omitempty"`
	Location    string    `json:"location,omitempty"`

	// Pricing snapshot captured at creation time, never recomputed from the
	// listing afterwards.
	BaseAmount    float64 `json:"base_amount,omitempty"`
	DepositAmount float64 `json:"deposit_amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`

	Status        types.BookingStatus        `gorm:"default:'pending'" json:"status,omitempty"`
	PaymentStatus types.BookingPaymentStatus `gorm:"default:'pending'" json:"payment_status,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Review prompt scheduling, seeded when the booking completes.
	ReviewPromptCount  int        `json:"review_prompt_count"`
	MaxReviewPrompts   int        `gorm:"default:8" json:"max_review_prompts,omitempty"`
	NextReviewPromptAt *time.Time `json:"next_review_prompt_at,omitempty"`

	Customer *User     `gorm:"foreignKey:customer_id" json:"customer,omitempty"`
	Vendor   *User     `gorm:"foreignKey:vendor_id" json:"vendor,omitempty"`
	Listing  *Listing  `gorm:"foreignKey:listing_id" json:"listing,omitempty"`
	Payments []Payment `gorm:"foreignKey:booking_id" json:"payments,omitempty"`
	Review   *Review   `gorm:"foreignKey:booking_id" json:"review,omitempty"`

	types.Timestamps
}
