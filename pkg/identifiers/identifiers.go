package identifiers

import (
	"strings"
	"unicode"
)

// NormalizeISBN removes an "ISBN" label and the hyphens and spaces used to
// group an ISBN's digits. Any other character is kept so that validation can
// still reject it.
func NormalizeISBN(value string) string {
	value = strings.TrimSpace(value)
	upper := strings.ToUpper(value)
	for _, prefix := range []string{"ISBN-13:", "ISBN:", "ISBN"} {
		if strings.HasPrefix(upper, prefix) {
			value = value[len(prefix):]
			break
		}
	}

	var result strings.Builder
	for _, r := range value {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}
