package main

import (
	"esm/src/config"
	"esm/src/db"
	"esm/src/lib"
	"esm/src/models"
	"esm/src/types"
	"esm/src/utils"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func paymentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/payments/create-order", func(ctx *gin.Context) {
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid order request", err))
				return
			}
			customerId := ctx.GetUint("id")
			db := db.GetDb()

			var booking models.Booking
			if err := db.
				Model(&models.Booking{}).
				Where(&models.Booking{ID: body.BookingID}).
				First(&booking).
				Error; err != nil {
				utils.RespondError(ctx, types.NewNotFoundError("Booking not found", err))
				return
			}
			if booking.CustomerID != customerId {
				utils.RespondError(ctx, types.NewForbiddenError("You can only pay for your own bookings"))
				return
			}
			if booking.PaymentStatus == types.BOOKING_PAYMENT_PAID {
				utils.RespondError(ctx, types.NewConflictError(
					fmt.Sprintf("Booking %s has already been paid", booking.BookingNumber), nil))
				return
			}
			if booking.Status != types.BOOKING_PENDING || booking.PaymentStatus != types.BOOKING_PAYMENT_PENDING {
				utils.RespondError(ctx, types.NewInvalidStateError(
					fmt.Sprintf("Booking %s is not awaiting payment", booking.BookingNumber)))
				return
			}
			if math.Abs(body.Amount-booking.DepositAmount) > config.DEPOSIT_ROUNDING_TOLERANCE {
				utils.RespondError(ctx, types.NewValidationError("Amount does not match the booking deposit", nil))
				return
			}
			currency := booking.Currency
			if body.Currency != "" && body.Currency != currency {
				utils.RespondError(ctx, types.NewValidationError("Currency does not match the booking", nil))
				return
			}

			var customer models.User
			if err := db.
				Model(&models.User{}).
				Where("id = ?", customerId).
				First(&customer).
				Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}
			customerDetails := gin.H{
				"name":  customer.Name,
				"email": customer.Email,
				"phone": customer.Phone,
			}
			notes := map[string]any{
				"bookingId":     booking.ID,
				"bookingNumber": booking.BookingNumber,
			}

			// An unpaid order for this booking can be reused as-is instead of
			// piling up open orders at the gateway.
			var existing models.Payment
			if err := db.
				Model(&models.Payment{}).
				Where(&models.Payment{BookingID: booking.ID, Status: types.PAYMENT_CREATED}).
				First(&existing).
				Error; err == nil {
				utils.RespondData(ctx, http.StatusOK, gin.H{
					"orderId":         existing.GatewayOrderID,
					"amount":          existing.Amount,
					"currency":        existing.Currency,
					"keyId":           lib.GetRazorpayKeyID(),
					"customerDetails": customerDetails,
					"notes":           notes,
				})
				return
			}

			amount := utils.ToMinorUnits(booking.DepositAmount)
			receipt := utils.MakeReceipt(booking.BookingNumber, time.Now())
			orderId, err := lib.CreateGatewayOrder(amount, currency, receipt, notes)
			if err != nil {
				utils.RespondError(ctx, types.NewPaymentGatewayError(err))
				return
			}

			payment := models.Payment{
				BookingID:      booking.ID,
				CustomerID:     booking.CustomerID,
				VendorID:       booking.VendorID,
				GatewayOrderID: orderId,
				Receipt:        receipt,
				Amount:         amount,
				Currency:       currency,
				Status:         types.PAYMENT_CREATED,
			}
			if err := db.Create(&payment).Error; err != nil {
				// The gateway order exists but has no local mirror. Surface the
				// order id so the record can be reconciled.
				log.Printf("ANOMALY: gateway order %s has no local payment record: %s\n", orderId, err.Error())
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}

			utils.RespondData(ctx, http.StatusCreated, gin.H{
				"orderId":         orderId,
				"amount":          amount,
				"currency":        currency,
				"keyId":           lib.GetRazorpayKeyID(),
				"customerDetails": customerDetails,
				"notes":           notes,
			})
		}).
		POST("/payments/verify", func(ctx *gin.Context) {
			var body types.VerifyPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid verification request", err))
				return
			}
			db := db.GetDb()

			var payment models.Payment
			if err := db.
				Model(&models.Payment{}).
				Where(&models.Payment{GatewayOrderID: body.RazorpayOrderID}).
				First(&payment).
				Error; err != nil {
				utils.RespondError(ctx, types.NewNotFoundError("Payment order not found", err))
				return
			}
			if payment.CustomerID != ctx.GetUint("id") {
				utils.RespondError(ctx, types.NewForbiddenError("You can only verify your own payments"))
				return
			}

			// A retried callback for an already captured payment is a no-op.
			if payment.Status == types.PAYMENT_CAPTURED &&
				payment.GatewayPaymentID != nil &&
				*payment.GatewayPaymentID == body.RazorpayPaymentID {
				var booking models.Booking
				db.Model(&models.Booking{}).Where("id = ?", payment.BookingID).First(&booking)
				utils.RespondData(ctx, http.StatusOK, gin.H{"booking": booking, "payment": payment})
				return
			}

			if !lib.VerifyPaymentSignature(
				body.RazorpayOrderID, body.RazorpayPaymentID, body.RazorpaySignature, lib.GetRazorpaySecret()) {
				errCode := "SIGNATURE_MISMATCH"
				now := time.Now()
				if err := db.
					Model(&models.Payment{}).
					Where("gateway_order_id = ? AND status = ?", payment.GatewayOrderID, types.PAYMENT_CREATED).
					Updates(map[string]any{
						"status":     types.PAYMENT_FAILED,
						"error_code": errCode,
						"failed_at":  now,
					}).Error; err != nil {
					log.Printf("Error marking payment [%s] failed: %s\n", payment.ID, err.Error())
				}
				log.Printf("Signature mismatch for order %s\n", body.RazorpayOrderID)
				utils.RespondError(ctx, types.NewSignatureInvalidError())
				return
			}

			// Method metadata comes from the gateway, not the client. Failure
			// here does not block the capture.
			method, methodDetails, err := lib.FetchPaymentDetails(body.RazorpayPaymentID)
			if err != nil {
				log.Printf("Could not fetch payment details for [%s]: %s\n", body.RazorpayPaymentID, err.Error())
			}

			var booking models.Booking
			err = db.Transaction(func(tx *gorm.DB) error {
				now := time.Now()
				updates := map[string]any{
					"status":             types.PAYMENT_CAPTURED,
					"gateway_payment_id": body.RazorpayPaymentID,
					"paid_at":            now,
				}
				if method != "" {
					updates["method"] = method
					updates["method_details"] = methodDetails
				}
				res := tx.
					Model(&models.Payment{}).
					Where("gateway_order_id = ? AND status IN ?",
						payment.GatewayOrderID,
						[]types.PaymentStatus{types.PAYMENT_CREATED, types.PAYMENT_AUTHORIZED}).
					Updates(updates)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return types.NewConflictError("Payment was already processed", nil)
				}

				if err := tx.
					Model(&models.Booking{}).
					Where("id = ?", payment.BookingID).
					First(&booking).
					Error; err != nil {
					return err
				}
				if booking.Status == types.BOOKING_CONFIRMED {
					return nil
				}
				if _, err := booking.Status.ApplyTransition(types.BOOKING_CONFIRMED); err != nil {
					log.Printf("ANOMALY: captured payment %s for booking %s in state %s\n",
						body.RazorpayPaymentID, booking.BookingNumber, booking.Status)
					return types.NewInvalidStateError("Booking can no longer be confirmed")
				}
				res = tx.
					Model(&models.Booking{}).
					Where("id = ? AND status = ?", booking.ID, types.BOOKING_PENDING).
					Updates(map[string]any{
						"status":         types.BOOKING_CONFIRMED,
						"payment_status": types.BOOKING_PAYMENT_PAID,
						"confirmed_at":   now,
					})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					return types.NewConflictError("Booking was updated by another request", nil)
				}
				booking.Status = types.BOOKING_CONFIRMED
				booking.PaymentStatus = types.BOOKING_PAYMENT_PAID
				booking.ConfirmedAt = &now
				return nil
			})
			if err != nil {
				utils.RespondError(ctx, err)
				return
			}

			if err := db.
				Model(&models.Payment{}).
				Where(&models.Payment{GatewayOrderID: payment.GatewayOrderID}).
				First(&payment).
				Error; err != nil {
				utils.RespondError(ctx, types.NewInternalError(err))
				return
			}

			go notifyBookingConfirmed(&booking)

			utils.RespondData(ctx, http.StatusOK, gin.H{"booking": booking, "payment": payment})
		}).
		POST("/payments/failure", func(ctx *gin.Context) {
			var body types.PaymentFailureRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				// Failure reports are best effort and always acknowledged.
				utils.RespondMessage(ctx, http.StatusOK, "Acknowledged")
				return
			}
			db := db.GetDb()
			now := time.Now()
			updates := map[string]any{
				"status":    types.PAYMENT_FAILED,
				"failed_at": now,
			}
			if code, ok := body.Error["code"].(string); ok {
				updates["error_code"] = code
			}
			if desc, ok := body.Error["description"].(string); ok {
				updates["error_description"] = desc
			}
			res := db.
				Model(&models.Payment{}).
				Where("gateway_order_id = ? AND status IN ?",
					body.RazorpayOrderID,
					[]types.PaymentStatus{types.PAYMENT_CREATED, types.PAYMENT_AUTHORIZED}).
				Updates(updates)
			if res.Error != nil {
				log.Printf("Error recording payment failure for order %s: %s\n", body.RazorpayOrderID, res.Error.Error())
			} else if res.RowsAffected == 0 {
				log.Printf("Ignoring failure report for order %s: no open payment\n", body.RazorpayOrderID)
			}
			utils.RespondMessage(ctx, http.StatusOK, "Payment failure recorded")
		}).
		POST("/payments/:id/refund", func(ctx *gin.Context) {
			idParam := ctx.Params.ByName("id")
			paymentId, err := uuid.Parse(idParam)
			if err != nil {
				utils.RespondError(ctx, types.NewValidationError("Invalid payment id", err))
				return
			}
			var body types.RefundRequestBody
			ctx.ShouldBindJSON(&body)

			db := db.GetDb()
			var payment models.Payment
			if err := db.
				Model(&models.Payment{}).
				Where("id = ?", paymentId).
				First(&payment).
				Error; err != nil {
				utils.RespondError(ctx, types.NewNotFoundError("Payment not found", err))
				return
			}
			uid := ctx.GetUint("id")
			role := types.Role(ctx.GetString("role"))
			if payment.VendorID != uid && role != types.ROLE_ADMIN {
				utils.RespondError(ctx, types.NewForbiddenError("Only the vendor can refund this payment"))
				return
			}
			if _, err := payment.Status.ApplyTransition(types.PAYMENT_REFUNDED); err != nil {
				utils.RespondError(ctx, types.NewInvalidStateError("Only captured payments can be refunded"))
				return
			}

			refundId, err := lib.RefundGatewayPayment(*payment.GatewayPaymentID, payment.Amount, map[string]any{
				"reason": body.Reason,
			})
			if err != nil {
				utils.RespondError(ctx, types.NewPaymentGatewayError(err))
				return
			}

			err = db.Transaction(func(tx *gorm.DB) error {
				now := time.Now()
				res := tx.
					Model(&models.Payment{}).
					Where("id = ? AND status = ?", payment.ID, types.PAYMENT_CAPTURED).
					Updates(map[string]any{
						"status":      types.PAYMENT_REFUNDED,
						"refund_id":   refundId,
						"refunded_at": now,
					})
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					log.Printf("ANOMALY: gateway refund %s issued for payment %s not in captured state\n", refundId, payment.ID)
					return types.NewConflictError("Payment was updated by another request", nil)
				}
				return tx.
					Model(&models.Booking{}).
					Where("id = ? AND payment_status = ?", payment.BookingID, types.BOOKING_PAYMENT_PAID).
					Update("payment_status", types.BOOKING_PAYMENT_REFUNDED).
					Error
			})
			if err != nil {
				utils.RespondError(ctx, err)
				return
			}
			payment.Status = types.PAYMENT_REFUNDED
			payment.RefundID = &refundId
			utils.RespondData(ctx, http.StatusOK, payment)
		})
	return g
}
