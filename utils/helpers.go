package utils

import (
	"strconv"
)

func StringOrEmpty(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

// FloatOrEmpty renders an optional score for a spreadsheet cell.
func FloatOrEmpty(f *float64) interface{} {
	if f != nil {
		return *f
	}
	return ""
}

// FormatFloat renders an optional score as text, empty when missing.
func FormatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func FloatPtr(f float64) *float64 {
	return &f
}

func StringPtr(s string) *string {
	return &s
}

// EqualFloat reports whether two optional scores hold the same value. Two
// missing scores are equal.
func EqualFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
