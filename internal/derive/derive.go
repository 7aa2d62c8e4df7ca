//-------------------------------------------------------------------------
//
// pgEdge Mart Generator
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package derive implements the shared derivation rules used by the
// staging and mart layers. Every function is a pure function of its
// inputs so classifications stay deterministic across runs.
package derive

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Delivery status values for staged orders.
const (
	DeliveryOnTime = "OnTime"
	DeliveryLate   = "Late"
)

// Weight category values for staged products.
const (
	WeightLight     = "Light"
	WeightMedium    = "Medium"
	WeightHeavy     = "Heavy"
	WeightVeryHeavy = "VeryHeavy"
)

// Size category values for staged products.
const (
	SizeSmall  = "Small"
	SizeMedium = "Medium"
	SizeLarge  = "Large"
)

// Customer segment values.
const (
	SegmentOneTime    = "OneTime"
	SegmentOccasional = "Occasional"
	SegmentFrequent   = "Frequent"
)

// Product performance tiers.
const (
	TierBestSeller = "BestSeller"
	TierPopular    = "Popular"
	TierRegular    = "Regular"
	TierSlowMoving = "SlowMoving"
	TierNeverSold  = "NeverSold"
)

var titleCaser = cases.Title(language.English)

// Round1 rounds a value to 1 decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds a value to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TitleCase normalizes a string to English title case. Applying it to
// already-normalized input yields the same output.
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(s))
}

// CategoryDisplay converts a raw category slug (underscore or hyphen
// separated) into a title-cased display name.
func CategoryDisplay(category string) string {
	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(category)
	return TitleCase(strings.Join(strings.Fields(replaced), " "))
}

// DayDiff returns the whole number of days from a to b, truncated
// toward zero.
func DayDiff(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// HoursBetween returns the hours from a to b, rounded to 2 decimals.
func HoursBetween(a, b time.Time) float64 {
	return Round2(b.Sub(a).Hours())
}

// DeliveryStatus classifies a delivery as on time or late. A delivery
// is on time when the actual delivery is no later than the estimate.
func DeliveryStatus(delivered, estimated time.Time) string {
	if delivered.After(estimated) {
		return DeliveryLate
	}
	return DeliveryOnTime
}

// WeightCategory classifies a product weight in grams. Boundaries are
// inclusive-lower/exclusive-upper.
func WeightCategory(grams float64) string {
	switch {
	case grams < 500:
		return WeightLight
	case grams < 2000:
		return WeightMedium
	case grams < 10000:
		return WeightHeavy
	default:
		return WeightVeryHeavy
	}
}

// SizeCategory classifies a product by volume in cubic centimeters.
func SizeCategory(volume float64) string {
	switch {
	case volume < 1000:
		return SizeSmall
	case volume < 10000:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// CustomerSegment classifies a customer by distinct order count.
func CustomerSegment(distinctOrders int) string {
	switch {
	case distinctOrders <= 1:
		return SegmentOneTime
	case distinctOrders <= 3:
		return SegmentOccasional
	default:
		return SegmentFrequent
	}
}

// PerformanceTier classifies a product by how many distinct orders it
// appeared in. Missing sales data is treated as zero.
func PerformanceTier(timesOrdered int) string {
	switch {
	case timesOrdered >= 100:
		return TierBestSeller
	case timesOrdered >= 50:
		return TierPopular
	case timesOrdered >= 10:
		return TierRegular
	case timesOrdered > 0:
		return TierSlowMoving
	default:
		return TierNeverSold
	}
}

// Pct returns numerator/denominator as a percentage rounded to 1
// decimal, or nil when the denominator is zero.
func Pct(numerator, denominator int) *float64 {
	if denominator == 0 {
		return nil
	}
	v := Round1(float64(numerator) / float64(denominator) * 100)
	return &v
}

// GrowthPct returns the percentage change from prev to current rounded
// to 1 decimal, or nil when prev is nil or zero.
func GrowthPct(current float64, prev *float64) *float64 {
	if prev == nil || *prev == 0 {
		return nil
	}
	v := Round1((current - *prev) / *prev * 100)
	return &v
}

// Avg returns the mean of values rounded to the given rounding
// function, or nil for an empty slice.
func Avg(values []float64, round func(float64) float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := round(sum / float64(len(values)))
	return &mean
}
