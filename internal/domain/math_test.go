package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSafeParseValid(t *testing.T) {
	d := SafeParse("123.4567890")
	want := decimal.RequireFromString("123.456789")
	if !d.Equal(want) {
		t.Errorf("SafeParse() = %v, want %v", d, want)
	}
}

func TestSafeParseInvalid(t *testing.T) {
	for _, s := range []string{"", "abc", "1.2.3"} {
		if d := SafeParse(s); !d.IsZero() {
			t.Errorf("SafeParse(%q) = %v, want 0", s, d)
		}
	}
}

func TestTokensUsd(t *testing.T) {
	got := TokensUsd(decimal.NewFromInt(1000), 1.05)
	if math.Abs(got-1050) > 1e-9 {
		t.Errorf("TokensUsd() = %v, want 1050", got)
	}
}

func TestSafePercentZeroDenom(t *testing.T) {
	if got := SafePercent(50, 0); got != 0 {
		t.Errorf("SafePercent(50, 0) = %v, want 0", got)
	}
	if got := SafePercent(50, -10); got != 0 {
		t.Errorf("SafePercent(50, -10) = %v, want 0", got)
	}
}

func TestSafePercent(t *testing.T) {
	if got := SafePercent(50, 200); got != 25 {
		t.Errorf("SafePercent(50, 200) = %v, want 25", got)
	}
}

func TestAnnualizeGuard(t *testing.T) {
	// roi of -150% makes the base 1 + (-1.5) = -0.5, undefined for a
	// fractional exponent.
	if got := Annualize(-150, 30); got != nil {
		t.Errorf("Annualize(-150, 30) = %v, want nil", *got)
	}
	if got := Annualize(-100, 30); got != nil {
		t.Errorf("Annualize(-100, 30) = %v, want nil", *got)
	}
	if got := Annualize(10, 0); got != nil {
		t.Errorf("Annualize(10, 0) = %v, want nil", *got)
	}
}

func TestAnnualizeFullYearIsIdentity(t *testing.T) {
	got := Annualize(20, 365)
	if got == nil {
		t.Fatal("Annualize(20, 365) = nil, want value")
	}
	if math.Abs(*got-20) > 1e-9 {
		t.Errorf("Annualize(20, 365) = %v, want 20", *got)
	}
}

func TestAnnualizeCompounds(t *testing.T) {
	// 10% in half a year compounds to (1.1^2 - 1) over a full year.
	got := Annualize(10, 365/2)
	if got == nil {
		t.Fatal("Annualize(10, 182) = nil, want value")
	}
	want := (math.Pow(1.1, 365.0/182) - 1) * 100
	if math.Abs(*got-want) > 1e-9 {
		t.Errorf("Annualize(10, 182) = %v, want %v", *got, want)
	}
}
