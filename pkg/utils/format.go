// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"
)

// FormatIndianCurrency formats a number in Indian currency format (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	if amount < 0 {
		return "-₹" + FormatIndianNumber(-amount)
	}
	return "₹" + FormatIndianNumber(amount)
}

// FormatIndianNumber groups a value the Indian way: 12,45,00,000.00.
func FormatIndianNumber(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := groupIndian(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupIndian puts the first separator after three digits, then every two.
func groupIndian(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]

	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatQuantity formats a quantity such as OI or volume with Indian grouping.
func FormatQuantity(qty int64) string {
	if qty < 0 {
		return "-" + groupIndian(fmt.Sprintf("%d", -qty))
	}
	return groupIndian(fmt.Sprintf("%d", qty))
}

// FormatCompact formats a number in compact form (L/Cr).
func FormatCompact(amount float64) string {
	abs := amount
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 10000000:
		return fmt.Sprintf("%.2f Cr", amount/10000000)
	case abs >= 100000:
		return fmt.Sprintf("%.2f L", amount/100000)
	default:
		return FormatIndianNumber(amount)
	}
}
