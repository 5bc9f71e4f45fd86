package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrForbidden          = errors.New("not allowed to modify this resource")
	ErrMalformedInput     = errors.New("malformed input")
	ErrLockNotAcquired    = errors.New("tenant lock not acquired")

	// Subscription and quota errors
	ErrSubscriptionExpired  = errors.New("subscription expired, please renew your subscription")
	ErrListingLimitReached  = errors.New("listing limit reached")
	ErrStorageLimitExceeded = errors.New("storage limit exceeded")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPaymentFailed        = errors.New("payment failed")

	// ErrPartialCleanup is only logged; callers never receive it.
	ErrPartialCleanup = errors.New("partial cleanup failure")
)

// ListingLimitError reports the listing cap of the tenant's current plan.
type ListingLimitError struct {
	Limit int
}

func (e *ListingLimitError) Error() string {
	return fmt.Sprintf("listing limit reached: your plan allows %d properties", e.Limit)
}

func (e *ListingLimitError) Unwrap() error { return ErrListingLimitReached }

// StorageLimitError carries the numbers behind a rejected upload batch.
type StorageLimitError struct {
	Used      int64
	Requested int64
	Limit     int64
}

func (e *StorageLimitError) Error() string {
	return fmt.Sprintf("storage limit exceeded: %d bytes used + %d bytes requested > %d bytes allowed", e.Used, e.Requested, e.Limit)
}

func (e *StorageLimitError) Unwrap() error { return ErrStorageLimitExceeded }

// MalformedInputError names the field whose serialized value could not be decoded.
type MalformedInputError struct {
	Field string
	Err   error
}

func (e *MalformedInputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed %s", e.Field)
	}
	return fmt.Sprintf("malformed %s: %v", e.Field, e.Err)
}

func (e *MalformedInputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedInput}
	}
	return []error{ErrMalformedInput, e.Err}
}
