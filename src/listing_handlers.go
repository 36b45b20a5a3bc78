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
	"github.com/gosimple/slug"
)

const listingCacheTTL = 5 * time.Minute

func listingPublicHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/listings", func(ctx *gin.Context) {
			var filters types.ListListingsQueryFilters
			if err := ctx.ShouldBindQuery(&filters); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid query filters", err))
				return
			}
			db := db.GetDb()
			query := db.
				Model(&models.Listing{}).
				Where("status = ?", types.LISTING_ACTIVE)
			if filters.Category != "" {
				query = query.Where("category = ?", filters.Category)
			}
			if filters.Location != "" {
				query = query.Where("location ILIKE ?", "%"+filters.Location+"%")
			}
			var total int64
			if err := query.Count(&total).Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}
			var listings []models.Listing
			if err := query.
				Order("average_rating desc, rating_count desc").
				Offset((filters.Page - 1) * filters.Limit).
				Limit(filters.Limit).
				Find(&listings).
				Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}
			utils.RespondData(ctx, http.StatusOK, gin.H{
				"listings":   listings,
				"pagination": utils.Paginate(filters.Page, filters.Limit, total),
			})
		}).
		GET("/listings/:slug", func(ctx *gin.Context) {
			slugParam := ctx.Params.ByName("slug")
			rd := lib.GetRedisClient()
			cacheKey := fmt.Sprintf("listing:%s", slugParam)

			if cached, err := rd.Get(ctx, cacheKey).Result(); err == nil {
				var listing models.Listing
				if err := json.Unmarshal([]byte(cached), &listing); err == nil {
					utils.RespondData(ctx, http.StatusOK, listing)
					return
				}
			}

			db := db.GetDb()
			var listing models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where(&models.Listing{Slug: slugParam, Status: types.LISTING_ACTIVE}).
				Preload("Vendor").
				First(&listing).
				Error; err != nil {
				utils.RespondError(ctx, types.NewNotFoundError("Listing not found", err))
				return
			}
			if listing.Vendor != nil {
				vendor := models.ProjectVendor(listing.Vendor)
				listing.Vendor = &models.User{
					ID:            vendor.ID,
					Name:          vendor.Name,
					AverageRating: vendor.AverageRating,
					RatingCount:   vendor.RatingCount,
				}
			}

			if encoded, err := json.Marshal(&listing); err == nil {
				if err := rd.Set(ctx, cacheKey, encoded, listingCacheTTL).Err(); err != nil {
					log.Printf("[redis] Error caching listing %s: %s\n", slugParam, err.Error())
				}
			}
			utils.RespondData(ctx, http.StatusOK, listing)
		})
	return g
}

func listingVendorHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/listings", func(ctx *gin.Context) {
			var body types.CreateListingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid listing request", err))
				return
			}
			vendorId := ctx.GetUint("id")
			db := db.GetDb()

			base := slug.Make(body.Title)
			listing := models.Listing{
				VendorID:    vendorId,
				Title:       body.Title,
				Description: body.Description,
				Category:    body.Category,
				BasePrice:   body.BasePrice,
				Currency:    body.Currency,
				Location:    body.Location,
				Status:      types.LISTING_ACTIVE,
			}
			created := false
			for attempt := 0; attempt < 5 && !created; attempt++ {
				candidate := base
				if attempt > 0 {
					candidate = fmt.Sprintf("%s-%d", base, attempt+1)
				}
				listing.Slug = candidate
				if err := db.Create(&listing).Error; err != nil {
					if utils.IsDuplicateKeyError(err) {
						continue
					}
					utils.RespondError(ctx, types.NewInternalError(err))
					return
				}
				created = true
			}
			if !created {
				utils.RespondError(ctx, types.NewConflictError("A listing with a similar title already exists", nil))
				return
			}
			utils.RespondData(ctx, http.StatusCreated, listing)
		}).
		GET("/vendor/listings", func(ctx *gin.Context) {
			vendorId := ctx.GetUint("id")
			db := db.GetDb()
			var listings []models.Listing
			if err := db.
				Model(&models.Listing{}).
				Where("vendor_id = ?", vendorId).
				Order("created_at desc").
				Find(&listings).
				Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}
			utils.RespondData(ctx, http.StatusOK, listings)
		})
	return g
}
