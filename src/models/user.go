package models

import (
	"esm/src/types"
	"time"
)

type User struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `json:"name,omitempty"`
	Email         string          `gorm:"uniqueIndex" json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Role          types.Role      `gorm:"default:'customer'" json:"role,omitempty"`
	EmailVerified bool            `json:"email_verified,omitempty"`
	Coins         int64           `json:"coins,omitempty"`
	AverageRating float64         `json:"average_rating,omitempty"`
	RatingCount   int64           `json:"rating_count,omitempty"`
	LastActive    *time.Time      `json:"last_active,omitempty"`
	Metadata      *types.Metadata `gorm:"type:jsonb" json:"-"`

	Listings []Listing `gorm:"foreignKey:vendor_id" json:"listings,omitempty"`
	Bookings []Booking `gorm:"foreignKey:customer_id" json:"bookings,omitempty"`

	types.Timestamps
}

func ProjectCustomer(u *User) types.APIResponseCustomer {
	return types.APIResponseCustomer{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Coins: u.Coins,
	}
}

func ProjectVendor(u *User) types.APIResponseVendor {
	return types.APIResponseVendor{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		AverageRating: u.AverageRating,
		RatingCount:   u.RatingCount,
	}
}

func ProjectAdmin(u *User) types.APIResponseAdmin {
	return types.APIResponseAdmin{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
