package common

import (
	"esm/src/db"
	"esm/src/models"
	"esm/src/types"
	"log"
	"time"

	"gorm.io/gorm"
)

// CompleteDueBookings moves confirmed bookings whose service date has passed
// into the completed state and seeds their review-prompt schedule. Runs from
// the scheduler; the status condition keeps it safe to run concurrently.
func CompleteDueBookings() {
	now := time.Now()
	db := db.GetDb()
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Booking{}).
			Where("status = ? AND service_date < ?", types.BOOKING_CONFIRMED, now).
			Updates(map[string]any{
				"status":                types.BOOKING_COMPLETED,
				"completed_at":          now,
				"next_review_prompt_at": now,
				"review_prompt_count":   0,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("Completed %d delivered bookings\n", res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		log.Printf("Error completing delivered bookings: %s\n", err.Error())
	}
}
