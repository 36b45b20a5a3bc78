package main

import (
	"encoding/json"
	"esm/src/db"
	"esm/src/lib"
	"esm/src/models"
	"esm/src/types"
	"esm/src/utils"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const earningsCacheTTL = 1 * time.Minute

type vendorEarnings struct {
	Currency      string `json:"currency"`
	TotalCaptured int64  `json:"totalCaptured"`
	TotalRefunded int64  `json:"totalRefunded"`
	NetAmount     int64  `json:"netAmount"`
	PaymentCount  int64  `json:"paymentCount"`
}

func vendorHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/vendor/bookings", func(ctx *gin.Context) {
			vendorId := ctx.GetUint("id")
			var filters types.ListBookingsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid query filters", err))
				return
			}
			db := db.GetDb()
			query := db.
				Model(&models.Booking{}).
				Where("vendor_id = ?", vendorId)
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
				Preload("Customer").
				Order("service_date asc").
				Offset((filters.Page - 1) * filters.Limit).
				Limit(filters.Limit).
				Find(&bookings).
				Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}
			for i := range bookings {
				if bookings[i].Customer != nil {
					c := models.ProjectCustomer(bookings[i].Customer)
					bookings[i].Customer = &models.User{
						ID:    c.ID,
						Name:  c.Name,
						Email: c.Email,
						Phone: c.Phone,
					}
				}
			}
			utils.RespondData(ctx, http.StatusOK, gin.H{
				"bookings":   bookings,
				"pagination": utils.Paginate(filters.Page, filters.Limit, total),
			})
		}).
		GET("/vendor/earnings", func(ctx *gin.Context) {
			vendorId := ctx.GetUint("id")
			rd := lib.GetRedisClient()
			cacheKey := fmt.Sprintf("vendor:%d:earnings", vendorId)

			if cached, err := rd.Get(ctx, cacheKey).Result(); err == nil {
				var earnings []vendorEarnings
				if err := json.Unmarshal([]byte(cached), &earnings); err == nil {
					utils.RespondData(ctx, http.StatusOK, earnings)
					return
				}
			}

			db := db.GetDb()
			var rows []struct {
				Currency string
				Status   types.PaymentStatus
				Total    int64
				Count    int64
			}
			if err := db.
				Model(&models.Payment{}).
				Select("currency, status, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
				Where("vendor_id = ? AND status IN ?",
					vendorId,
					[]types.PaymentStatus{types.PAYMENT_CAPTURED, types.PAYMENT_REFUNDED}).
				Group("currency, status").
				Scan(&rows).
				Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}

			byCurrency := map[string]*vendorEarnings{}
			for _, row := range rows {
				e, ok := byCurrency[row.Currency]
				if !ok {
					e = &vendorEarnings{Currency: row.Currency}
					byCurrency[row.Currency] = e
				}
				switch row.Status {
				case types.PAYMENT_CAPTURED:
					e.TotalCaptured += row.Total
					e.PaymentCount += row.Count
				case types.PAYMENT_REFUNDED:
					// Refunded payments were captured first, so they count both
					// as captured volume and as refund volume.
					e.TotalCaptured += row.Total
					e.TotalRefunded += row.Total
					e.PaymentCount += row.Count
				}
			}
			earnings := make([]vendorEarnings, 0, len(byCurrency))
			for _, e := range byCurrency {
				e.NetAmount = e.TotalCaptured - e.TotalRefunded
				earnings = append(earnings, *e)
			}

			if encoded, err := json.Marshal(earnings); err == nil {
				if err := rd.Set(ctx, cacheKey, encoded, earningsCacheTTL).Err(); err != nil {
					log.Printf("[redis] Error caching earnings for vendor %d: %s\n", vendorId, err.Error())
				}
			}
			utils.RespondData(ctx, http.StatusOK, earnings)
		})
	return g
}
