package shipper

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatusPending is what an empty carrier status normalizes to.
const StatusPending = "Pending"

var statusSeparators = strings.NewReplacer("_", " ", "-", " ")

// NormalizeStatus turns a carrier-native status string into the display
// vocabulary stored on orders: "in_transit" -> "In Transit".
func NormalizeStatus(raw string) string {
	s := strings.Join(strings.Fields(statusSeparators.Replace(raw)), " ")
	if s == "" {
		return StatusPending
	}
	// A Caser keeps state, so one is built per call.
	return cases.Title(language.Und).String(s)
}
