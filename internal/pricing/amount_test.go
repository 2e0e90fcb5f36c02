package pricing_test

import (
	"errors"
	"testing"

	"github.com/nealfung/checkout-shop/internal/pricing"
)

func TestTotal(t *testing.T) {
	cases := []struct {
		name    string
		unit    int64
		qty     int
		want    int64
		wantErr bool
	}{
		{name: "single unit", unit: 9000, qty: 1, want: 9000},
		{name: "three units", unit: 9000, qty: 3, want: 27000},
		{name: "zero quantity", unit: 9000, qty: 0, wantErr: true},
		{name: "negative quantity", unit: 9000, qty: -2, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pricing.Total(tc.unit, tc.qty)
			if tc.wantErr {
				if !errors.Is(err, pricing.ErrInvalidQuantity) {
					t.Fatalf("expected ErrInvalidQuantity, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d got %d", tc.want, got)
			}
		})
	}
}

func TestMinorUnitsRoundsHalfUp(t *testing.T) {
	got, err := pricing.MinorUnits("10.005")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1001 {
		t.Fatalf("expected 1001 got %d", got)
	}
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "90", want: 9000},
		{in: "0.01", want: 1},
		{in: "10.004", want: 1000},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := pricing.MinorUnits(tc.in)
		if tc.wantErr {
			if !errors.Is(err, pricing.ErrInvalidAmount) {
				t.Fatalf("%q: expected ErrInvalidAmount, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %d got %d", tc.in, tc.want, got)
		}
	}
}
