package models

import (
	"regexp"
	"strings"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,15}$`)

// NormalizeSymbol upper-cases and validates a ticker symbol.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if sym == "" {
		return "", Errorf(KindValidation, "symbol is required")
	}
	if !symbolPattern.MatchString(sym) {
		return "", Errorf(KindValidation, "invalid symbol %q", s)
	}
	return sym, nil
}
