package domain

import (
	"errors"
	"fmt"
)

// Sentinel conditions matched with errors.Is
var (
	ErrQuoteNotFound     = errors.New("quote not found")
	ErrVersionNotFound   = errors.New("version not found")
	ErrNoLinkedItinerary = errors.New("quote has no linked itinerary")
	ErrItineraryNotFound = errors.New("linked itinerary not found")
	ErrInvalidMealDiff   = errors.New("invalid meal diff")
)

// User-facing sync messages
const (
	MsgNoLinkedItinerary     = "此報價單沒有連結行程表"
	MsgItineraryNotFound     = "找不到連結的行程表"
	MsgNothingToSync         = "沒有需要同步的變更"
	MsgNoAccommodationData   = "行程表沒有住宿資料"
	MsgAccommodationUpToDate = "住宿資料已是最新"
	MsgAccommodationSynced   = "已同步 %d 天住宿"
)

// ValidationError reports malformed input rejected before computation
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a missing resource: version index, quote, itinerary or itinerary link
type NotFoundError struct {
	Resource string
	ID       string
	Message  string
	Err      error
}

func (e *NotFoundError) Error() string {
	msg := e.Resource + " not found"
	if e.ID != "" {
		msg = fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err carries a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
