package controllers

import (
	"crypto/rand"
	"errors"
	"esm/src/db"
	"esm/src/lib"
	"esm/src/lib/mailer"
	"esm/src/models"
	"esm/src/types"
	"esm/src/utils"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// AuthRequestOTP issues a short-lived login code to the given email. The
// response does not reveal whether the address belongs to a known user.
func AuthRequestOTP(ctx *gin.Context) (status int, err error) {
	var body types.RequestOTPRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return http.StatusBadRequest, types.NewValidationError("A valid email address is required", err)
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	code, err := generateOTPCode()
	if err != nil {
		return http.StatusInternalServerError, types.NewInternalError(err)
	}
	if err := lib.StoreOTP(ctx, email, code); err != nil {
		log.Printf("Error storing login code for %s: %s\n", email, err.Error())
		return http.StatusInternalServerError, types.NewInternalError(err)
	}

	go mailer.NewMailerMessage(&lib.SendMailInput{
		To:      []string{email},
		Subject: "Your login code",
		Body:    fmt.Sprintf("Your one-time login code is %s. It expires in 10 minutes.", code),
	})

	return http.StatusOK, nil
}

// AuthVerifyOTP exchanges a valid code for a signed token, creating the user
// record on first login.
func AuthVerifyOTP(ctx *gin.Context) (token *string, status int, err error) {
	var body types.VerifyOTPRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, types.NewValidationError("Email and a 6-digit code are required", err)
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))

	ok, err := lib.CheckOTP(ctx, email, body.Code)
	if err != nil {
		log.Printf("Error checking login code for %s: %s\n", email, err.Error())
		return nil, http.StatusInternalServerError, types.NewInternalError(err)
	}
	if !ok {
		return nil, http.StatusBadRequest, types.NewValidationError("Invalid or expired code", nil)
	}

	role := types.ROLE_CUSTOMER
	if body.Role == types.ROLE_VENDOR {
		role = types.ROLE_VENDOR
	}

	db := db.GetDb()
	var user models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{Email: email}).
			First(&user).
			Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			user = models.User{
				Email:         email,
				Name:          body.Name,
				Role:          role,
				EmailVerified: true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return nil
		}
		return tx.
			Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{
				"email_verified": true,
				"last_active":    time.Now(),
			}).Error
	})
	if err != nil {
		log.Printf("Error signing in user %s: %s\n", email, err.Error())
		return nil, http.StatusInternalServerError, types.NewInternalError(err)
	}

	jwt, err := utils.GenerateJWT(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, http.StatusInternalServerError, types.NewInternalError(err)
	}
	return &jwt, http.StatusOK, nil
}
