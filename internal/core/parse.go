// Package core provides number parsing and formatting utilities.
//
// Two parsers live here. ParseLenient is used by the aggregators: it reads the
// leading numeric part of the text and falls back to zero. ParseNumber is used
// by entry validation: the whole text must be a number or it does not parse.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseLenient converts free text to a number the way the calculators read
// input: surrounding space is ignored, trailing garbage after a numeric
// prefix is dropped, and anything unparsable (including NaN and infinities)
// becomes 0. A decimal comma ends the number, so "2,5" reads as 2.
//
// Examples:
//
//	ParseLenient("3")       -> 3
//	ParseLenient(" 2,5 ")   -> 2
//	ParseLenient("85 pts")  -> 85
//	ParseLenient("abc")     -> 0
//	ParseLenient("")        -> 0
func ParseLenient(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return finiteOrZero(v)
	}
	prefix := numericPrefix(s)
	if prefix == "" {
		return 0
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(v)
}

// ParseNumber parses the whole text as a number. ok is false for empty text,
// partial numbers and non-finite values.
func ParseNumber(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatFixed2 renders v with exactly two decimals.
func FormatFixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatNumber renders v with the shortest representation that round-trips
// (15 -> "15", 3.5 -> "3.5").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// numericPrefix returns the longest leading [sign]digits[.digits][e[sign]digits] run.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits+frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return s[:i]
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
