package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Direction values recorded in a cursor
const (
	DirectionNext = "next"
	DirectionPrev = "prev"
)

// ErrMalformed is returned when a decoded cursor carries impossible values
var ErrMalformed = errors.New("malformed cursor")

// CursorData contains the data encoded in a cursor
type CursorData struct {
	// Offset is the number of matching records to skip
	Offset int64 `cbor:"1,keyasint"`

	// Limit is the page size the cursor was issued for
	Limit int `cbor:"2,keyasint"`

	// Direction indicates the pagination direction ("next" or "prev")
	Direction string `cbor:"3,keyasint,omitempty"`
}

// Encode encodes cursor data into a base64 string using CBOR
func Encode(data *CursorData) (string, error) {
	if data == nil {
		return "", nil
	}

	cborData, err := cbor.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor data: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(cborData), nil
}

// Decode decodes a base64 cursor string into cursor data using CBOR
func Decode(cursor string) (*CursorData, error) {
	if cursor == "" {
		return nil, nil
	}

	cborData, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cursor: %w", err)
	}

	var data CursorData
	if err := cbor.Unmarshal(cborData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor data: %w", err)
	}

	if data.Offset < 0 || data.Limit < 0 {
		return nil, ErrMalformed
	}

	return &data, nil
}
