package usecase

import "errors"

var (
	ErrInvalidJobState = errors.New("job is not in a matchable state")
	ErrJobNotFound     = errors.New("job not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrNotOwner        = errors.New("not the owner of this match")
	ErrNotAccepted     = errors.New("match is not accepted")
	ErrPaymentInvalid  = errors.New("payment confirmation invalid")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInternal        = errors.New("internal error")
)
