package common

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCode reads a six digit invitation code
func ParseCode(s string) (int, error) {
	s = strings.TrimSpace(s)
	code, err := strconv.Atoi(s)
	if err != nil || code < 100000 || code > 999999 {
		return 0, fmt.Errorf("invitation code must be 6 digits, got %q", s)
	}
	return code, nil
}

// Plural "1 point", "2 points"
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
