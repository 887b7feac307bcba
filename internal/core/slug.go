package core

import (
	"strconv"
	"strings"
)

// SlugKey derives a goal key from its name: lowercase, runs of
// non-alphanumerics collapsed to single dashes. If the key already exists in
// taken, a numeric suffix disambiguates ("trip", "trip-1", "trip-2", ...).
func SlugKey(name string, taken map[string]*Goal) string {
	base := slugify(name)
	if base == "" {
		base = "goal"
	}
	key := base
	for i := 1; ; i++ {
		if _, exists := taken[key]; !exists {
			return key
		}
		key = base + "-" + strconv.Itoa(i)
	}
}

func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
