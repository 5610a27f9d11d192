package database

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		ID:        uuid.New(),
	}

	got, err := DecodeCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("DecodeCursor() error = %+v", err)
	}
	if got == nil {
		t.Fatal("DecodeCursor() returned nil for non-empty cursor")
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Errorf("want %+v, got %+v", want, *got)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	got, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("DecodeCursor(\"\") error = %+v", err)
	}
	if got != nil {
		t.Errorf("empty cursor should decode to nil, got %+v", *got)
	}
}

func TestDecodeCursorInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not base64", "%%%"},
		{"not json", "bm90LWpzb24"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.in)
			if !errors.Is(err, ErrInvalidCursor) {
				t.Errorf("want ErrInvalidCursor, got %+v", err)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 20},
		{-5, 20},
		{50, 50},
		{1000, 100},
	}

	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
