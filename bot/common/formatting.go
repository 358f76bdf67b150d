package common

import (
	"fmt"
	"strings"
	"time"

	"lbclottery/domain/entities"
)

// FormatBalance formats a token amount with thousand separators
func FormatBalance(balance int64) string {
	sign := ""
	if balance < 0 {
		sign = "-"
		balance = -balance
	}

	str := fmt.Sprintf("%d", balance)
	n := len(str)
	if n <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// FormatBalanceCompact formats a token amount in compact form (e.g. 100k, 1.5M)
func FormatBalanceCompact(balance int64) string {
	switch {
	case balance < 1000:
		return fmt.Sprintf("%d", balance)
	case balance < 1000000:
		return compact(float64(balance)/1000.0, "k")
	case balance < 1000000000:
		return compact(float64(balance)/1000000.0, "M")
	default:
		return compact(float64(balance)/1000000000.0, "B")
	}
}

func compact(value float64, suffix string) string {
	if value == float64(int64(value)) {
		return fmt.Sprintf("%.0f%s", value, suffix)
	}
	return fmt.Sprintf("%.1f%s", value, suffix)
}

// FormatTokenAddress shortens a token address for display, e.g. 0x5fbd…0aa3
func FormatTokenAddress(address entities.TokenAddress) string {
	s := address.Normalize().String()
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// FormatDuration formats a duration in a human-readable format
// Examples: "2d 14h 30m", "3h 45m", "45m", "< 1m"
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "< 1m"
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}

	return strings.Join(parts, " ")
}
