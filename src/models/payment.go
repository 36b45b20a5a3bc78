package models

import (
	"esm/src/types"
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	BookingID  uint `json:"booking_id,omitempty"`
	CustomerID uint `json:"customer_id,omitempty"`
	VendorID   uint `json:"vendor_id,omitempty"`

	GatewayOrderID   string  `gorm:"uniqueIndex" json:"gateway_order_id,omitempty"`
	GatewayPaymentID *string `json:"gateway_payment_id,omitempty"`
	Receipt          string  `json:"receipt,omitempty"`

	// Amount in minor currency units, immutable after creation.
	Amount   int64  `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`

	Status types.PaymentStatus `gorm:"default:'created'" json:"status,omitempty"`

	Method        *string     `json:"method,omitempty"`
	MethodDetails types.JSONB `gorm:"type:jsonb" json:"method_details,omitempty"`

	ErrorCode        *string `json:"error_code,omitempty"`
	ErrorDescription *string `json:"error_description,omitempty"`

	RefundID *string `json:"refund_id,omitempty"`

	PaidAt     *time.Time `json:"paid_at,omitempty"`
	FailedAt   *time.Time `json:"failed_at,omitempty"`
	RefundedAt *time.Time `json:"refunded_at,omitempty"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
