package services

import (
	"errors"

	"amora_server/store"
)

// Error kinds surfaced to controllers. Vendor errors are wrapped with %w and
// end up as generic failures unless mapped to one of these.
var (
	ErrNotFound         = store.ErrNotFound
	ErrUnauthenticated  = errors.New("authentication failed")
	ErrForbidden        = errors.New("not allowed")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrPaymentRequired  = errors.New("premium subscription required")
	ErrVendorNotEnabled = errors.New("provider not configured")
)
