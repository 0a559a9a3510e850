package m93xx

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatOctal renders a word as the six digit octal field the monitor expects.
func FormatOctal(v uint16) string {
	return fmt.Sprintf("%06o", v)
}

// ParseOctal parses an octal numeral of at most 16 bits. A leading "0o" or "0"
// prefix is accepted.
func ParseOctal(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0o")
	if s == "" {
		return 0, fmt.Errorf("empty octal value")
	}
	v, err := strconv.ParseUint(s, 8, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid octal value %q: %w", s, err)
	}
	return uint16(v), nil
}

func octalDigit(ch byte) (uint16, bool) {
	if ch >= '0' && ch <= '7' {
		return uint16(ch - '0'), true
	}
	return 0, false
}

// shiftOctal appends a digit to an accumulated field. Digits beyond the
// sixth push the high bits out of the word.
func shiftOctal(acc, digit uint16) uint16 {
	return acc<<3 | digit
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\r' || ch == '\n'
}
