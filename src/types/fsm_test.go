package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BOOKING_PENDING, BOOKING_CONFIRMED, true},
		{BOOKING_PENDING, BOOKING_CANCELLED, true},
		{BOOKING_PENDING, BOOKING_COMPLETED, false},
		{BOOKING_CONFIRMED, BOOKING_COMPLETED, true},
		{BOOKING_CONFIRMED, BOOKING_CANCELLED, true},
		{BOOKING_CONFIRMED, BOOKING_PENDING, false},
		{BOOKING_CANCELLED, BOOKING_CONFIRMED, false},
		{BOOKING_CANCELLED, BOOKING_PENDING, false},
		{BOOKING_COMPLETED, BOOKING_CANCELLED, false},
		{BOOKING_COMPLETED, BOOKING_CONFIRMED, false},
	}
	for _, c := range cases {
		got := c.from.CanTransition(c.to)
		assert.Equalf(t, c.allowed, got, "%s -> %s", c.from, c.to)

		next, err := c.from.ApplyTransition(c.to)
		if c.allowed {
			assert.Nil(t, err)
			assert.Equal(t, c.to, next)
		} else {
			assert.NotNil(t, err)
			assert.Equal(t, c.from, next)
		}
	}
}

func TestBookingTerminalStates(t *testing.T) {
	assert.False(t, BOOKING_PENDING.Terminal())
	assert.False(t, BOOKING_CONFIRMED.Terminal())
	assert.True(t, BOOKING_CANCELLED.Terminal())
	assert.True(t, BOOKING_COMPLETED.Terminal())
}

func TestPaymentTransitions(t *testing.T) {
	cases := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PAYMENT_CREATED, PAYMENT_CAPTURED, true},
		{PAYMENT_CREATED, PAYMENT_AUTHORIZED, true},
		{PAYMENT_CREATED, PAYMENT_FAILED, true},
		{PAYMENT_CREATED, PAYMENT_REFUNDED, false},
		{PAYMENT_AUTHORIZED, PAYMENT_CAPTURED, true},
		{PAYMENT_CAPTURED, PAYMENT_REFUNDED, true},
		{PAYMENT_CAPTURED, PAYMENT_FAILED, false},
		{PAYMENT_FAILED, PAYMENT_CAPTURED, false},
		{PAYMENT_REFUNDED, PAYMENT_CAPTURED, false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.allowed, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestBookingPaymentStatusTransitions(t *testing.T) {
	assert.True(t, BOOKING_PAYMENT_PENDING.CanTransition(BOOKING_PAYMENT_PAID))
	assert.False(t, BOOKING_PAYMENT_PENDING.CanTransition(BOOKING_PAYMENT_REFUNDED))
	assert.True(t, BOOKING_PAYMENT_PAID.CanTransition(BOOKING_PAYMENT_REFUNDED))
	assert.False(t, BOOKING_PAYMENT_REFUNDED.CanTransition(BOOKING_PAYMENT_PAID))
}
