package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		region string
		want   string
		err    error
	}{
		{"national with default region", "098123 45678", "IN", "+919812345678", nil},
		{"already e164", "+919812345678", "US", "+919812345678", nil},
		{"lowercase region", "9812345678", "in", "+919812345678", nil},
		{"empty", "  ", "IN", "", ErrInvalid},
		{"garbage", "call me", "IN", "", ErrInvalid},
		{"too short", "12", "IN", "", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.region)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Normalize(%q) error = %v, want %v", tt.raw, err, tt.err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
