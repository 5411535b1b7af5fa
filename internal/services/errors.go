package services

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("booking status can only move forward")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrNothingToRegister = errors.New("week has no billed totals to register")
	ErrUnavailable       = errors.New("item lookup not configured")
)
