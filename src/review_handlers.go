package main

import (
	"esm/src/common"
	"esm/src/config"
	"esm/src/db"
	"esm/src/models"
	"esm/src/types"
	"esm/src/utils"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func reviewHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reviews/create", func(ctx *gin.Context) {
			var body types.CreateReviewRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid review request", err))
				return
			}
			if len(body.Comment) < config.REVIEW_MIN_COMMENT_LEN {
				utils.RespondError(ctx, types.NewValidationError(
					fmt.Sprintf("Comment must be at least %d characters", config.REVIEW_MIN_COMMENT_LEN), nil))
				return
			}
			customerId := ctx.GetUint("id")
			db := db.GetDb()

			var review models.Review
			var coins int
			var vendorAgg, listingAgg *common.RatingAggregate
			err := db.Transaction(func(tx *gorm.DB) error {
				var booking models.Booking
				if err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: body.BookingID}).
					Preload("Review").
					First(&booking).
					Error; err != nil {
					return types.NewNotFoundError("Booking not found", err)
				}
				if booking.CustomerID != customerId {
					return types.NewForbiddenError("You can only review your own bookings")
				}
				if booking.Status != types.BOOKING_COMPLETED {
					return types.NewInvalidStateError("Only completed bookings can be reviewed")
				}
				if booking.Review != nil {
					return types.NewConflictError("This booking has already been reviewed", nil)
				}

				var vendor models.User
				if err := tx.
					Model(&models.User{}).
					Where("id = ?", booking.VendorID).
					First(&vendor).
					Error; err != nil {
					return err
				}
				coins = utils.ComputeReviewCoins(body.Comment, vendor.RatingCount)

				review = models.Review{
					BookingID:    booking.ID,
					CustomerID:   booking.CustomerID,
					VendorID:     booking.VendorID,
					ListingID:    booking.ListingID,
					Rating:       body.Rating,
					Comment:      body.Comment,
					CoinsAwarded: coins,
					Status:       types.REVIEW_ACTIVE,
				}
				if err := tx.Create(&review).Error; err != nil {
					if utils.IsDuplicateKeyError(err) {
						return types.NewConflictError("This booking has already been reviewed", err)
					}
					return err
				}

				if err := tx.
					Model(&models.User{}).
					Where("id = ?", customerId).
					Update("coins", gorm.Expr("coins + ?", coins)).
					Error; err != nil {
					return err
				}

				va, la, aggErr := common.ApplyReviewAggregates(tx, &review)
				if aggErr != nil {
					return aggErr
				}
				vendorAgg, listingAgg = va, la
				return nil
			})
			if err != nil {
				utils.RespondError(ctx, err)
				return
			}
			utils.RespondData(ctx, http.StatusCreated, gin.H{
				"review":       review,
				"coinsAwarded": coins,
				"updatedRatings": gin.H{
					"vendor":  vendorAgg,
					"listing": listingAgg,
				},
			})
		}).
		PATCH("/reviews/skip/:bookingId", func(ctx *gin.Context) {
			idParam := ctx.Params.ByName("bookingId")
			atoi, err := strconv.Atoi(idParam)
			if err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid booking id", err))
				return
			}
			bookingId := uint(atoi)
			customerId := ctx.GetUint("id")
			db := db.GetDb()

			var booking models.Booking
			err = db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: bookingId}).
					Preload("Review").
					First(&booking).
					Error; err != nil {
					return types.NewNotFoundError("Booking not found", err)
				}
				if booking.CustomerID != customerId {
					return types.NewForbiddenError("You can only skip prompts for your own bookings")
				}
				if booking.Status != types.BOOKING_COMPLETED || booking.Review != nil {
					return types.NewInvalidStateError("There is no review prompt to skip for this booking")
				}
				maxPrompts := booking.MaxReviewPrompts
				if maxPrompts == 0 {
					maxPrompts = config.MAX_REVIEW_PROMPTS
				}
				if booking.ReviewPromptCount >= maxPrompts {
					return types.NewInvalidStateError("Review prompts are exhausted for this booking")
				}
				next := time.Now().Add(config.REVIEW_PROMPT_BACKOFF_HOURS * time.Hour)
				if err := tx.
					Model(&models.Booking{}).
					Where("id = ?", booking.ID).
					Updates(map[string]any{
						"review_prompt_count":   booking.ReviewPromptCount + 1,
						"next_review_prompt_at": next,
					}).Error; err != nil {
					return err
				}
				booking.ReviewPromptCount++
				booking.NextReviewPromptAt = &next
				return nil
			})
			if err != nil {
				utils.RespondError(ctx, err)
				return
			}
			utils.RespondData(ctx, http.StatusOK, gin.H{
				"promptCount":      booking.ReviewPromptCount,
				"maxReviewPrompts": booking.MaxReviewPrompts,
				"nextPromptDate":   booking.NextReviewPromptAt,
			})
		})
	return g
}

func reviewAdminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		PATCH("/reviews/:id/status", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid review id", err))
				return
			}
			var body types.ModerateReviewRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid moderation request", err))
				return
			}
			db := db.GetDb()
			var review models.Review
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Review{}).
					Where(&models.Review{ID: params.ID}).
					First(&review).
					Error; err != nil {
					return types.NewNotFoundError("Review not found", err)
				}
				if review.Status == body.Status {
					return nil
				}
				if err := tx.
					Model(&models.Review{}).
					Where("id = ?", review.ID).
					Update("status", body.Status).
					Error; err != nil {
					return err
				}
				review.Status = body.Status
				// Hidden and flagged reviews drop out of the listing aggregate.
				_, err := common.RecomputeListingRating(tx, review.ListingID)
				return err
			})
			if err != nil {
				utils.RespondError(ctx, err)
				return
			}
			utils.RespondData(ctx, http.StatusOK, review)
		})
	return g
}
