package models

import "esm/src/types"

type Review struct {
	ID         uint `gorm:"primarykey" json:"id"`
	BookingID  uint `gorm:"uniqueIndex" json:"booking_id,omitempty"`
	CustomerID uint `json:"customer_id,omitempty"`
	VendorID   uint `json:"vendor_id,omitempty"`
	ListingID  uint `json:"listing_id,omitempty"`

	Rating       int                `json:"rating,omitempty"`
	Comment      string             `json:"comment,omitempty"`
	CoinsAwarded int                `json:"coins_awarded,omitempty"`
	Status       types.ReviewStatus `gorm:"default:'active'" json:"status,omitempty"`

	Booking *Booking `gorm:"foreignKey:booking_id" json:"-"`

	types.Timestamps
}
