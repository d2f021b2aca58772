package cursor

import (
	"errors"
	"testing"
	"time"
)

func TestEncodeDecode(t *testing.T) {
	p := Position{
		CreatedAt: time.Date(2025, 3, 1, 15, 4, 5, 123456000, time.UTC),
		ID:        "7b0c7c8e-3f1e-4a8e-9a38-0d2b8ef0c9a1",
	}
	got, err := Decode(Encode(p))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) || got.ID != p.ID {
		t.Fatalf("got=%+v want=%+v", got, p)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"%%%",
		"bm90LWpzb24",
		"eyJpZCI6IngifQ",
		"eyJjcmVhdGVkQXQiOiJ5ZXN0ZXJkYXkiLCJpZCI6IngifQ",
	} {
		if _, err := Decode(in); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Decode(%q) err=%v want=%v", in, err, ErrInvalid)
		}
	}
}
