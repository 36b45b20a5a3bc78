package types

import "fmt"

// Status machines for bookings and payments. Every handler that mutates a
// status goes through CanTransition/ApplyTransition so illegal moves are
// rejected in one place instead of ad hoc checks scattered per handler.

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BOOKING_PENDING:   {BOOKING_CONFIRMED, BOOKING_CANCELLED},
	BOOKING_CONFIRMED: {BOOKING_COMPLETED, BOOKING_CANCELLED},
	BOOKING_CANCELLED: {},
	BOOKING_COMPLETED: {},
}

var bookingPaymentTransitions = map[BookingPaymentStatus][]BookingPaymentStatus{
	BOOKING_PAYMENT_PENDING:  {BOOKING_PAYMENT_PAID},
	BOOKING_PAYMENT_PAID:     {BOOKING_PAYMENT_REFUNDED},
	BOOKING_PAYMENT_REFUNDED: {},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PAYMENT_CREATED:    {PAYMENT_AUTHORIZED, PAYMENT_CAPTURED, PAYMENT_FAILED},
	PAYMENT_AUTHORIZED: {PAYMENT_CAPTURED, PAYMENT_FAILED},
	PAYMENT_CAPTURED:   {PAYMENT_REFUNDED},
	PAYMENT_FAILED:     {},
	PAYMENT_REFUNDED:   {},
}

func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingStatus) ApplyTransition(to BookingStatus) (BookingStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("illegal booking transition %s -> %s", s, to)
	}
	return to, nil
}

func (s BookingPaymentStatus) CanTransition(to BookingPaymentStatus) bool {
	for _, next := range bookingPaymentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s BookingPaymentStatus) ApplyTransition(to BookingPaymentStatus) (BookingPaymentStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("illegal payment status transition %s -> %s", s, to)
	}
	return to, nil
}

func (s PaymentStatus) Terminal() bool {
	return len(paymentTransitions[s]) == 0
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	for _, next := range paymentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s PaymentStatus) ApplyTransition(to PaymentStatus) (PaymentStatus, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("illegal gateway payment transition %s -> %s", s, to)
	}
	return to, nil
}
