package paperfly

import (
	"strings"
)

// Administrative suffixes merchants append to a thana name. Longest first so
// "Upazilla" is not cut down to a stray "l".
var thanaSuffixes = []string{"upazilla", "upazila", "thana"}

// ThanaCandidates lists the thana spellings to offer Paperfly, in order:
// the area with its suffix stripped, the area as typed, the area with
// "Upazila" swapped for "Thana", then the city. Blank and case-insensitive
// duplicate entries are dropped.
func ThanaCandidates(area, city string) []string {
	area = strings.Join(strings.Fields(area), " ")
	city = strings.Join(strings.Fields(city), " ")

	base, suffix := splitSuffix(area)

	var swapped string
	if suffix == "upazila" || suffix == "upazilla" {
		swapped = base + " Thana"
	}

	seen := make(map[string]bool, 4)
	out := make([]string, 0, 4)
	for _, c := range []string{base, area, swapped, city} {
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// splitSuffix separates a trailing administrative suffix from a place name.
func splitSuffix(name string) (base, suffix string) {
	lower := strings.ToLower(name)
	for _, s := range thanaSuffixes {
		if strings.HasSuffix(lower, " "+s) {
			return strings.TrimSpace(name[:len(name)-len(s)]), s
		}
	}
	return name, ""
}
