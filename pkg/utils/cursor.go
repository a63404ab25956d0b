package utils

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is an opaque pagination token over a (created_date, id) ordering.
// Lists are sorted newest-first; the cursor marks the last row the client has
// already seen.
type Cursor struct {
	CreatedDate time.Time `json:"createdDate"`
	Id          uint64    `json:"id"`
}

// EncodeCursor serialises a cursor into an URL-safe opaque token.
func EncodeCursor(createdDate time.Time, id uint64) string {
	raw, _ := json.Marshal(Cursor{CreatedDate: createdDate, Id: id})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token yields
// a nil cursor (first page).
func DecodeCursor(token string) (*Cursor, error) {
	if IsEmpty(token) {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("malformed cursor: %w", err)
	}
	return &c, nil
}
