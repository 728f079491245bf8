package util

import (
    "strconv"
    "strings"
)

// ParseIntDefault parses s as a base-10 int, returning def when s is
// empty or malformed. Surrounding whitespace is tolerated so env vars
// pass through unharmed.
func ParseIntDefault(s string, def int) int {
    v, err := strconv.Atoi(strings.TrimSpace(s))
    if err != nil {
        return def
    }
    return v
}
