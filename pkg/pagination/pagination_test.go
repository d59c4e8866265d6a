package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	cursor := Cursor{
		CreatedAt: time.Date(2026, 8, 20, 12, 30, 45, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	got, err := ParseCursor(EncodeCursor(cursor))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got == nil {
		t.Fatal("expected cursor, got nil")
	}
	if !got.CreatedAt.Equal(cursor.CreatedAt) {
		t.Fatalf("created_at mismatch: %s != %s", got.CreatedAt, cursor.CreatedAt)
	}
	if got.ID != cursor.ID {
		t.Fatalf("id mismatch: %s != %s", got.ID, cursor.ID)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	for _, value := range []string{"", "   "} {
		got, err := ParseCursor(value)
		if err != nil {
			t.Fatalf("parse %q: %v", value, err)
		}
		if got != nil {
			t.Fatalf("expected nil cursor for %q, got %+v", value, got)
		}
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, value := range []string{"not-base64!!", "bm8tcGlwZQ", "MjAyNnxub3QtYS11dWlk"} {
		if _, err := ParseCursor(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{10, 10},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d, want 11", got)
	}
}
