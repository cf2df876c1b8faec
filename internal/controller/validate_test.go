package controller

import (
	"errors"
	"testing"

	"wheelly/control/internal/geometry"
)

func TestValidateMove(t *testing.T) {
	cases := []struct {
		name    string
		speed   float64
		maxPPS  float64
		wantErr error
	}{
		{"within range", 50, 100, nil},
		{"negative", -1, 100, ErrSpeedOutOfRange},
		{"exceeds max", 150, 100, ErrSpeedOutOfRange},
		{"exactly zero", 0, 100, nil},
		{"exactly max", 100, 100, nil},
	}
	for _, c := range cases {
		err := ValidateMove(c.speed, c.maxPPS)
		if !errors.Is(err, c.wantErr) && err != c.wantErr {
			t.Errorf("%s: ValidateMove(%v,%v) = %v, want %v", c.name, c.speed, c.maxPPS, err, c.wantErr)
		}
	}
}

func TestValidateScan(t *testing.T) {
	if err := ValidateScan(geometry.FromDeg(0)); err != nil {
		t.Fatalf("straight ahead must be a valid scan direction, got %v", err)
	}
	if err := ValidateScan(geometry.FromDeg(180)); !errors.Is(err, ErrScanNotFront) {
		t.Fatalf("straight behind must be rejected, got %v", err)
	}
}
