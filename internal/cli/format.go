package cli

import (
	"fmt"
	"strings"
	"time"

	"zonix/pkg/utils"
)

// FormatIndex formats index points with Indian grouping and no currency sign.
func FormatIndex(points float64) string {
	return utils.FormatIndianNumber(points)
}

// FormatPrice formats a rupee price.
func FormatPrice(price float64) string {
	return utils.FormatIndianCurrency(price)
}

// FormatChange formats a signed percent change.
func FormatChange(pct float64) string {
	return utils.FormatPercent(pct)
}

// FormatOI formats open interest compactly.
func FormatOI(oi int64) string {
	switch {
	case oi >= 10000000:
		return fmt.Sprintf("%.2fCr", float64(oi)/10000000)
	case oi >= 100000:
		return fmt.Sprintf("%.2fL", float64(oi)/100000)
	case oi >= 1000:
		return fmt.Sprintf("%.1fK", float64(oi)/1000)
	default:
		return fmt.Sprintf("%d", oi)
	}
}

// FormatTotalOI formats an aggregate OI figure in lakh or crore.
func FormatTotalOI(oi int64) string {
	return utils.FormatCompact(float64(oi))
}

// FormatIV formats implied volatility.
func FormatIV(iv float64) string {
	return fmt.Sprintf("%.1f%%", iv)
}

// FormatPCR formats a put-call ratio with its reading.
func FormatPCR(pcr float64) string {
	reading := "neutral"
	switch {
	case pcr > 1.2:
		reading = "bullish"
	case pcr < 0.8:
		reading = "bearish"
	}
	return fmt.Sprintf("%.2f (%s)", pcr, reading)
}

// FormatGreeks formats option Greeks in one line.
func FormatGreeks(delta, gamma, theta, vega float64) string {
	return fmt.Sprintf("Δ %.2f  Γ %.4f  Θ %.2f  ν %.2f", delta, gamma, theta, vega)
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

// FormatTime formats a timestamp in IST.
func FormatTime(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("15:04:05")
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// PadLeft pads a string on the left to the given width.
func PadLeft(s string, length int) string {
	if n := visibleWidth(s); n < length {
		return strings.Repeat(" ", length-n) + s
	}
	return s
}
