package main

import (
	"esm/src/db"
	"esm/src/lib"
	"esm/src/lib/mailer"
	"esm/src/models"
	"fmt"
	"log"
)

func notifyBookingConfirmed(booking *models.Booking) {
	db := db.GetDb()
	var customer models.User
	if err := db.
		Model(&models.User{}).
		Where("id = ?", booking.CustomerID).
		First(&customer).
		Error; err != nil {
		log.Printf("Could not load customer for booking %s: %s\n", booking.BookingNumber, err.Error())
		return
	}
	mailer.NewMailerMessage(&lib.SendMailInput{
		To:      []string{customer.Email},
		Subject: fmt.Sprintf("Booking %s confirmed", booking.BookingNumber),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour deposit has been received and booking %s is confirmed for %s.\n",
			customer.Name, booking.BookingNumber, booking.ServiceDate.Format("Jan 2, 2006 3:04 PM")),
	})
}
