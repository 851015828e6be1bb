// Package pricing computes monthly charges for per-bed plans.
//
// Nothing here returns an error: malformed input is coerced to a safe
// value so a displayed total is never negative or non-finite.
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const MinBeds = 1

// ComputeTotal returns (pricePerBed*beds + boost) * (1 - discount/100), rounded to cents.
func ComputeTotal(pricePerBed float64, numberOfBeds int, boostEnabled bool, boostPrice float64, discountPercentage float64) float64 {
	price := nonNegative(pricePerBed)
	beds := ClampBeds(numberOfBeds)

	subtotal := price * float64(beds)
	if boostEnabled {
		subtotal += nonNegative(boostPrice)
	}

	total := subtotal * (1 - ClampDiscount(discountPercentage)/100)
	return nonNegative(Round2(total))
}

func ClampBeds(n int) int {
	if n < MinBeds {
		return MinBeds
	}
	return n
}

func ClampDiscount(pct float64) float64 {
	switch {
	case math.IsNaN(pct), pct <= 0:
		return 0
	case pct >= 100:
		return 100
	}
	return pct
}

// ParseBedCount reads a user-entered bed count; anything unusable yields 1.
func ParseBedCount(input string) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return MinBeds
	}
	return ClampBeds(n)
}

func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func FormatUSD(v float64) string {
	return fmt.Sprintf("$%.2f", Round2(v))
}

// ToMinor converts dollars to cents.
func ToMinor(v float64) int64 {
	return int64(math.Round(nonNegative(v) * 100))
}

func FromMinor(minor int64) float64 {
	if minor < 0 {
		return 0
	}
	return float64(minor) / 100
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
