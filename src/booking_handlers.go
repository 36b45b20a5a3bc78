package main

import (
	"esm/src/config"
	"esm/src/db"
	"esm/src/models"
	"esm/src/types"
	"esm/src/utils"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type bookingListItem struct {
	models.Booking
	NeedsReviewPrompt bool `json:"needsReviewPrompt"`
	Reviewable        bool `json:"reviewable"`
}

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid booking request", err))
				return
			}
			serviceDate, err := time.Parse(config.TIME_PARSE_FORMAT, body.ServiceDate)
			if err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid service date", err))
				return
			}
			if err := utils.ValidateBookingPricing(&body.Pricing); err != nil {
				utils.RespondError(ctx, err)
				return
			}
			customerId := ctx.GetUint("id")
			db := db.GetDb()

			var listing models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where(&models.Listing{ID: body.ListingID, Status: types.LISTING_ACTIVE}).
				First(&listing).
				Error; err != nil {
				utils.RespondError(ctx, types.NewNotFoundError("Listing not found", err))
				return
			}
			if listing.VendorID != body.VendorID {
				utils.RespondError(ctx, types.NewValidationError("Listing does not belong to the given vendor", nil))
				return
			}
			if customerId == body.VendorID {
				utils.RespondError(ctx, types.NewForbiddenError("You cannot book your own listing"))
				return
			}

			var booking models.Booking
			now := time.Now()
			created := false
			// Another request can win the same sequence number between the
			// existence check and the insert. The unique index catches that;
			// retry with the next number.
			for attempt := 0; attempt < 3 && !created; attempt++ {
				var todayCount int64
				if err := db.
					Model(&models.Booking{}).
					Where("booking_number LIKE ?", utils.FormatBookingNumber(now, 0)[:13]+"%").
					Count(&todayCount).
					Error; err != nil {
					utils.RespondError(ctx, types.NewInternalError(err))
					return
				}
				number, err := utils.AllocateBookingNumber(now, int(todayCount)+1, func(candidate string) (bool, error) {
					var n int64
					err := db.
						Model(&models.Booking{}).
						Where("booking_number = ?", candidate).
						Count(&n).
						Error
					return n > 0, err
				})
				if err != nil {
					utils.RespondError(ctx, types.NewInternalError(err))
					return
				}
				booking = models.Booking{
					BookingNumber: number,
					CustomerID:    customerId,
					VendorID:      body.VendorID,
					ListingID:     body.ListingID,
					ServiceDate:   serviceDate,
					Location:      body.Location,
					BaseAmount:    body.Pricing.BaseAmount,
					DepositAmount: body.Pricing.DepositAmount,
					Currency:      body.Pricing.Currency,
					Status:        types.BOOKING_PENDING,
					PaymentStatus: types.BOOKING_PAYMENT_PENDING,
				}
				if err := db.Create(&booking).Error; err != nil {
					if utils.IsDuplicateKeyError(err) {
						log.Printf("Booking number collision on %s, retrying\n", number)
						continue
					}
					utils.RespondError(ctx, types.NewInternalError(err))
					return
				}
				created = true
			}
			if !created {
				utils.RespondError(ctx, types.NewConflictError("Could not allocate a booking number", nil))
				return
			}
			utils.RespondData(ctx, http.StatusCreated, booking)
		}).
		GET("/bookings/user/:customerId", func(ctx *gin.Context) {
			idParam := ctx.Params.ByName("customerId")
			atoi, err := strconv.Atoi(idParam)
			if err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid customer id", err))
				return
			}
			customerId := uint(atoi)
			if ctx.GetUint("id") != customerId && types.Role(ctx.GetString("role")) != types.ROLE_ADMIN {
				utils.RespondError(ctx, types.NewForbiddenError("You can only view your own bookings"))
				return
			}
			var filters types.ListBookingsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid query filters", err))
				return
			}

			db := db.GetDb()
			query := db.
				Model(&models.Booking{}).
				Where("customer_id = ?", customerId)
			if filters.Status != "" {
				query = query.Where("status = ?", filters.Status)
			}
			var total int64
			if err := query.Count(&total).Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}
			var bookings []models.Booking
			if err := query.
				Preload("Listing").
				Preload("Vendor").
				Preload("Review").
				Order("service_date desc").
				Offset((filters.Page - 1) * filters.Limit).
				Limit(filters.Limit).
				Find(&bookings).
				Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}

			now := time.Now()
			items := make([]bookingListItem, 0, len(bookings))
			summary := types.ReviewSummary{}
			for i := range bookings {
				b := &bookings[i]
				needsPrompt := utils.NeedsReviewPrompt(b, now)
				reviewable := utils.Reviewable(b)
				if needsPrompt {
					summary.PromptsDue++
				}
				if reviewable {
					summary.ReviewableBookings++
				}
				items = append(items, bookingListItem{
					Booking:           *b,
					NeedsReviewPrompt: needsPrompt,
					Reviewable:        reviewable,
				})
			}
			utils.RespondData(ctx, http.StatusOK, gin.H{
				"bookings":      items,
				"pagination":    utils.Paginate(filters.Page, filters.Limit, total),
				"reviewSummary": summary,
			})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid booking id", err))
				return
			}
			db := db.GetDb()
			var booking models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: params.ID}).
				Preload("Listing").
				Preload("Review").
				Preload("Payments").
				First(&booking).
				Error; err != nil {
				utils.RespondError(ctx, types.NewNotFoundError("Booking not found", err))
				return
			}
			uid := ctx.GetUint("id")
			role := types.Role(ctx.GetString("role"))
			if booking.CustomerID != uid && booking.VendorID != uid && role != types.ROLE_ADMIN {
				utils.RespondError(ctx, types.NewForbiddenError("You do not have access to this booking"))
				return
			}
			utils.RespondData(ctx, http.StatusOK, booking)
		}).
		PATCH("/bookings/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid booking id", err))
				return
			}
			uid := ctx.GetUint("id")
			role := types.Role(ctx.GetString("role"))
			db := db.GetDb()
			var booking models.Booking
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: params.ID}).
					First(&booking).
					Error; err != nil {
					return types.NewNotFoundError("Booking not found", err)
				}
				if booking.CustomerID != uid && booking.VendorID != uid && role != types.ROLE_ADMIN {
					return types.NewForbiddenError("You do not have access to this booking")
				}
				if booking.Status == types.BOOKING_CANCELLED {
					return types.NewConflictError("Booking is already cancelled", nil)
				}
				if _, err := booking.Status.ApplyTransition(types.BOOKING_CANCELLED); err != nil {
					return types.NewInvalidStateError(err.Error())
				}
				now := time.Now()
				res := tx.
					Model(&models.Booking{}).
					Where("id = ? AND status = ?", booking.ID, booking.Status).
					Updates(map[string]any{
						"status":       types.BOOKING_CANCELLED,
						"cancelled_at": now,
					})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return types.NewConflictError("Booking was updated by another request", nil)
				}
				booking.Status = types.BOOKING_CANCELLED
				booking.CancelledAt = &now
				return nil
			})
			if err != nil {
				utils.RespondError(ctx, err)
				return
			}
			utils.RespondData(ctx, http.StatusOK, booking)
		}).
		PATCH("/bookings/:id/complete", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid booking id", err))
				return
			}
			uid := ctx.GetUint("id")
			role := types.Role(ctx.GetString("role"))
			db := db.GetDb()
			var booking models.Booking
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Model(&models.Booking{}).
					Where(&models.Booking{ID: params.ID}).
					First(&booking).
					Error; err != nil {
					return types.NewNotFoundError("Booking not found", err)
				}
				if booking.VendorID != uid && role != types.ROLE_ADMIN {
					return types.NewForbiddenError("Only the vendor can mark a booking as completed")
				}
				if _, err := booking.Status.ApplyTransition(types.BOOKING_COMPLETED); err != nil {
					return types.NewInvalidStateError(err.Error())
				}
				now := time.Now()
				res := tx.
					Model(&models.Booking{}).
					Where("id = ? AND status = ?", booking.ID, booking.Status).
					Updates(map[string]any{
						"status":                types.BOOKING_COMPLETED,
						"completed_at":          now,
						"next_review_prompt_at": now,
					})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return types.NewConflictError("Booking was updated by another request", nil)
				}
				booking.Status = types.BOOKING_COMPLETED
				booking.CompletedAt = &now
				booking.NextReviewPromptAt = &now
				return nil
			})
			if err != nil {
				utils.RespondError(ctx, err)
				return
			}
			utils.RespondData(ctx, http.StatusOK, booking)
		})
	return g
}
