package shipper

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	localPhoneDigits = 11
	countryCode      = "88"
	countryPrefix    = countryCode + "0"
)

// NormalizePhone reduces a Bangladeshi mobile number to its 11-digit local form.
// "+880 1712-345678" -> "01712345678". Anything that does not end up with
// exactly 11 digits is a validation error.
func NormalizePhone(carrier, raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, raw)

	// 88 01712345678: the country code goes, the trunk zero stays.
	if len(digits) == len(countryCode)+localPhoneDigits && strings.HasPrefix(digits, countryPrefix) {
		digits = digits[len(countryCode):]
	}
	if len(digits) != localPhoneDigits {
		return "", ValidationError(carrier,
			fmt.Sprintf("recipient phone %q must have %d digits, got %d", raw, localPhoneDigits, len(digits)))
	}
	return digits, nil
}
