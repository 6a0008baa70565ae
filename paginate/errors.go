package paginate

import (
	"errors"

	"github.com/hadi77ir/go-paginate/store"
)

// Sentinel errors - use with errors.Is() for matching
// Errors returned by the store are passed through unchanged
var (
	// ErrInvalidOptions is returned when pagination options fail validation
	ErrInvalidOptions = errors.New("invalid pagination options")

	// ErrInvalidCursor is returned when a cursor string cannot be decoded
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrInvalidDestination is returned when dest is not a pointer to a slice,
	// or not a slice of maps in lean mode
	ErrInvalidDestination = store.ErrInvalidDestination

	// ErrNilStore is returned when a paginator is created without a store
	ErrNilStore = errors.New("nil store")
)
