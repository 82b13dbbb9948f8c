package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	groupedByDot   = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+$`)
	groupedByComma = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+$`)
	brazilian      = regexp.MustCompile(`^[+-]?(\d{1,3}(\.\d{3})+|\d+)(,\d+)?$`)
)

// ParseNumber reads a decimal in "1234.5", "1,234.5" or Brazilian "1.234,5"
// notation. When both separators appear the last one is the decimal point;
// a lone comma is decimal, repeated ones group thousands. An optional "R$"
// prefix and surrounding blanks are ignored. Empty, non-numeric and
// non-finite inputs report false.
func ParseNumber(valStr string) (float64, bool) {
	s := strings.TrimSpace(valStr)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return 0, false
	}

	if val, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(val)
	}

	cleanStr, ok := normalizeSeparators(s)
	if !ok {
		return 0, false
	}
	val, err := strconv.ParseFloat(cleanStr, 64)
	if err != nil {
		return 0, false
	}
	return finite(val)
}

func normalizeSeparators(s string) (string, bool) {
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")

	var decimal, thousands string
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			decimal, thousands = ",", "."
		} else {
			decimal, thousands = ".", ","
		}
	case comma >= 0:
		if strings.Count(s, ",") == 1 {
			decimal = ","
		} else {
			thousands = ","
		}
	case dot >= 0 && strings.Count(s, ".") > 1:
		thousands = "."
	default:
		return "", false
	}

	intPart, frac := s, ""
	if decimal != "" {
		i := strings.LastIndex(s, decimal)
		intPart, frac = s[:i], s[i+1:]
	}
	if thousands != "" && strings.Contains(intPart, thousands) {
		grouped := groupedByDot
		if thousands == "," {
			grouped = groupedByComma
		}
		if !grouped.MatchString(intPart) {
			return "", false
		}
		intPart = strings.ReplaceAll(intPart, thousands, "")
	}

	if decimal == "" {
		return intPart, true
	}
	return intPart + "." + frac, true
}

// FromBrazilian rewrites "1.234,56" and "250.000" as "1234.56" and "250000".
// It is meant for sources known to use Brazilian notation, where a dot
// followed by three digits groups thousands. Anything else is returned as is.
func FromBrazilian(valStr string) string {
	s := strings.TrimSpace(valStr)
	if !brazilian.MatchString(s) {
		return valStr
	}
	s = strings.ReplaceAll(s, ".", "")
	return strings.Replace(s, ",", ".", 1)
}

func finite(val float64) (float64, bool) {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, false
	}
	return val, true
}

// ParseFloat is ParseNumber with 0 for anything unreadable.
func ParseFloat(valStr string) float64 {
	val, _ := ParseNumber(valStr)
	return val
}

// ParseFloatOrNaN is ParseNumber with NaN marking a missing value.
func ParseFloatOrNaN(valStr string) float64 {
	val, ok := ParseNumber(valStr)
	if !ok {
		return math.NaN()
	}
	return val
}

var (
	trueValues  = []string{"true", "t", "1", "1.0", "sim", "s", "yes", "y", "verdadeiro"}
	falseValues = []string{"false", "f", "0", "0.0", "nao", "não", "n", "no", "falso"}
)

// ParseBool normalizes the chargeable flag. ok is false for empty or
// unrecognized input; callers treat that as not chargeable.
func ParseBool(valStr string) (value bool, ok bool) {
	s := strings.ToLower(strings.TrimSpace(valStr))
	if containsString(trueValues, s) {
		return true, true
	}
	if containsString(falseValues, s) {
		return false, true
	}
	return false, false
}

// ParseInt reads an integer, accepting integral floats such as "3.0".
func ParseInt(valStr string) (int, bool) {
	s := strings.TrimSpace(valStr)
	if s == "" {
		return 0, false
	}
	if val, err := strconv.Atoi(s); err == nil {
		return val, true
	}
	f, ok := ParseNumber(s)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
