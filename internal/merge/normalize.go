package merge

import (
	"regexp"
	"strings"
	"time"
)

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeFlag reduces a free-text abnormality flag to H, L or N.
// Anything else (empty, unknown letters, missing) becomes nil.
func NormalizeFlag(flag *string) *string {
	if flag == nil {
		return nil
	}
	s := strings.TrimSpace(*flag)
	if s == "" {
		return nil
	}
	switch c := strings.ToUpper(s[:1]); c {
	case "H", "L", "N":
		return &c
	}
	return nil
}

// ValidISODate reports whether s is exactly YYYY-MM-DD and names a real
// calendar date.
func ValidISODate(s string) bool {
	if !isoDateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
