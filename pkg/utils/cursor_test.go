package utils

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	token := EncodeCursor(created, 42)

	c, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if c == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !c.CreatedDate.Equal(created) || c.Id != 42 {
		t.Errorf("round trip mismatch: %+v", c)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	for _, token := range []string{"", "   "} {
		c, err := DecodeCursor(token)
		if err != nil {
			t.Errorf("empty token %q: unexpected error %v", token, err)
		}
		if c != nil {
			t.Errorf("empty token %q: expected nil cursor", token)
		}
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	tests := []string{"!!!", "bm90LWpzb24"}
	for _, token := range tests {
		t.Run(token, func(t *testing.T) {
			if _, err := DecodeCursor(token); err == nil {
				t.Error("expected error for malformed cursor")
			}
		})
	}
}
