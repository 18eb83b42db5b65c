package core

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a disclosed gift amount to whole currency units.
//
// The dataset exports amounts either as plain integers or as floats written by
// spreadsheet tools ("1234.0"), sometimes with a currency sign and thousands
// separators ("$1,234"). Negative values are corrections and are preserved.
// Fractions are rounded half away from zero.
//
// Examples:
//
//	ParseAmount("1234")     -> 1234, nil
//	ParseAmount("$1,234.5") -> 1235, nil
//	ParseAmount("-250.0")   -> -250, nil
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if fracPart != "" && fracPart[0] >= '5' {
		v++
	}
	if neg {
		v = -v
	}
	return v, nil
}
