package weather

import (
	"regexp"

	"github.com/samber/lo"
)

var citySeparators = regexp.MustCompile(`[\s,:]+`)

// ParseCities splits free-form input on runs of whitespace, commas or
// colons. Empty tokens are dropped; duplicates are kept.
func ParseCities(raw string) []string {
	return lo.Compact(citySeparators.Split(raw, -1))
}
