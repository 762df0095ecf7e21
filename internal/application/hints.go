package application

import (
	"strings"
	"unicode/utf8"
)

// LooksComplete reports whether v is far enough along to style the field as
// filled in. It is a display hint, weaker than Validate: an email with an @
// and a dot looks complete without matching the email rule.
func LooksComplete(f Field, v string) bool {
	switch f {
	case FirstName, LastName:
		return trim(v) != "" && utf8.RuneCountInString(v) >= 2
	case Email:
		return strings.Contains(v, "@") && strings.Contains(v, ".")
	case PhoneNumber:
		return utf8.RuneCountInString(phoneDigits(v)) >= 10
	case EducationalQualification:
		return utf8.RuneCountInString(trim(v)) >= 3
	case AboutYou:
		return utf8.RuneCountInString(trim(v)) >= 20
	}
	return false
}
