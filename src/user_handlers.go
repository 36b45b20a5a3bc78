package main

import (
	"esm/src/db"
	"esm/src/models"
	"esm/src/types"
	"esm/src/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

func userHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/users/me", func(ctx *gin.Context) {
			uid := ctx.GetUint("id")
			db := db.GetDb()
			var user models.User
			if err := db.
				Model(&models.User{}).
				Where(&models.User{ID: uid}).
				First(&user).
				Error; err != nil {
				utils.RespondError(ctx, types.NewNotFoundError("User not found", err))
				return
			}
			switch user.Role {
			case types.ROLE_VENDOR:
				utils.RespondData(ctx, http.StatusOK, models.ProjectVendor(&user))
			case types.ROLE_ADMIN:
				utils.RespondData(ctx, http.StatusOK, models.ProjectAdmin(&user))
			default:
				utils.RespondData(ctx, http.StatusOK, models.ProjectCustomer(&user))
			}
		})
	return g
}
