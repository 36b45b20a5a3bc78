package common

import (
	"esm/src/models"
	"esm/src/types"
	"esm/src/utils"

	"gorm.io/gorm"
)

type RatingAggregate struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// ApplyReviewAggregates folds a freshly created review into the vendor's
// running average and recomputes the listing's rating from its full set of
// active reviews. Must run inside the same transaction that created the
// review.
func ApplyReviewAggregates(tx *gorm.DB, review *models.Review) (*RatingAggregate, *RatingAggregate, error) {
	var vendor models.User
	if err := tx.
		Model(&models.User{}).
		Where("id = ?", review.VendorID).
		First(&vendor).
		Error; err != nil {
		return nil, nil, err
	}
	newAvg := utils.IncrementalAverage(vendor.AverageRating, vendor.RatingCount, review.Rating)
	if err := tx.
		Model(&models.User{}).
		Where("id = ?", vendor.ID).
		Updates(map[string]any{
			"average_rating": newAvg,
			"rating_count":   vendor.RatingCount + 1,
		}).Error; err != nil {
		return nil, nil, err
	}
	vendorAgg := &RatingAggregate{Average: newAvg, Count: vendor.RatingCount + 1}

	listingAgg, err := RecomputeListingRating(tx, review.ListingID)
	if err != nil {
		return nil, nil, err
	}
	return vendorAgg, listingAgg, nil
}

// RecomputeListingRating rebuilds a listing's aggregate from active reviews
// only, so moderation actions are reflected.
func RecomputeListingRating(tx *gorm.DB, listingId uint) (*RatingAggregate, error) {
	var agg struct {
		Average float64
		Count   int64
	}
	if err := tx.
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("listing_id = ? AND status = ?", listingId, types.REVIEW_ACTIVE).
		Scan(&agg).
		Error; err != nil {
		return nil, err
	}
	if err := tx.
		Model(&models.Listing{}).
		Where("id = ?", listingId).
		Updates(map[string]any{
			"average_rating": agg.Average,
			"rating_count":   agg.Count,
		}).Error; err != nil {
		return nil, err
	}
	return &RatingAggregate{Average: agg.Average, Count: agg.Count}, nil
}
