package domain

import "errors"

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrThreadNotFound   = errors.New("thread not found")
	ErrUnknownAction    = errors.New("unknown message action")
	ErrVerticalNotFound = errors.New("vertical not found")
	ErrDuplicateKeyword = errors.New("duplicate scenario keyword")
	ErrInvalidEntry     = errors.New("invalid scenario entry")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrSeedDisabled     = errors.New("debug seeding disabled")
)
