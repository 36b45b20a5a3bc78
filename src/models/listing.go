package models

import "esm/src/types"

type Listing struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	VendorID      uint                `json:"vendor_id,omitempty"`
	Title         string              `json:"title,omitempty"`
	Slug          string              `gorm:"uniqueIndex" json:"slug,omitempty"`
	Description   string              `json:"description,omitempty"`
	Category      string              `json:"category,omitempty"`
	BasePrice     float64             `json:"base_price,omitempty"`
	Currency      string              `json:"currency,omitempty"`
	Location      string              `json:"location,omitempty"`
	Status        types.ListingStatus `gorm:"default:'active'" json:"status,omitempty"`
	AverageRating float64             `json:"average_rating"`
	RatingCount   int64               `json:"rating_count"`

	Vendor  *User    `gorm:"foreignKey:vendor_id" json:"vendor,omitempty"`
	Reviews []Review `gorm:"foreignKey:listing_id" json:"reviews,omitempty"`

	types.Timestamps
}
