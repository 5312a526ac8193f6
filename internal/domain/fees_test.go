package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitAmount(t *testing.T) {
	t.Parallel()

	fee, creator := SplitAmount(decimal.RequireFromString("10.00"), DefaultPlatformFeePercent)
	if !fee.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected fee 0.5, got %s", fee)
	}
	if !creator.Equal(decimal.RequireFromString("9.5")) {
		t.Fatalf("expected creator 9.5, got %s", creator)
	}
	if !fee.Add(creator).Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("split must sum to the amount")
	}
}

func TestSplitBaseUnitsFloorsFee(t *testing.T) {
	t.Parallel()

	fee, seller := SplitBaseUnits(10_000_000, DefaultPlatformFeePercent)
	if fee != 500_000 || seller != 9_500_000 {
		t.Fatalf("expected 500000/9500000, got %d/%d", fee, seller)
	}

	// 5% of 19 base units is 0.95; the fee floors to 0 and the seller keeps
	// the remainder.
	fee, seller = SplitBaseUnits(19, DefaultPlatformFeePercent)
	if fee != 0 || seller != 19 {
		t.Fatalf("expected floored fee 0, got %d/%d", fee, seller)
	}

	for _, total := range []uint64{1, 21, 99, 1_000_001, 123_456_789} {
		fee, seller = SplitBaseUnits(total, DefaultPlatformFeePercent)
		if fee+seller != total {
			t.Fatalf("split of %d lost units: %d + %d", total, fee, seller)
		}
	}
}

func TestToBaseUnits(t *testing.T) {
	t.Parallel()

	units, err := ToBaseUnits(decimal.RequireFromString("10.00"), USDCDecimals)
	if err != nil {
		t.Fatalf("to base units: %v", err)
	}
	if units.Int64() != 10_000_000 {
		t.Fatalf("expected 10000000, got %s", units)
	}

	if _, err := ToBaseUnits(decimal.RequireFromString("0.0000001"), USDCDecimals); err == nil {
		t.Fatalf("expected rejection of sub-unit precision")
	}
	if _, err := ToBaseUnits(decimal.RequireFromString("-1"), USDCDecimals); err == nil {
		t.Fatalf("expected rejection of negative amount")
	}
}
