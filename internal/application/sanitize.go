package application

import "regexp"

// disallowed matches every character a field does not accept. Fields
// without an entry are stored as typed.
var disallowed = map[Field]*regexp.Regexp{
	FirstName:                regexp.MustCompile(`[^a-zA-Z` + ws + `'\-.,]`),
	LastName:                 regexp.MustCompile(`[^a-zA-Z` + ws + `'\-.,]`),
	PhoneNumber:              regexp.MustCompile(`[^0-9` + ws + `\-()]`),
	EducationalQualification: regexp.MustCompile(`[^a-zA-Z0-9` + ws + `.,'\-()&]`),
	AboutYou:                 regexp.MustCompile(`[^a-zA-Z0-9` + ws + `.,!?'\-()&@#$%:;"\n]`),
}

// Sanitize removes characters outside f's allow-set. It is an input
// filter for the form, not a security boundary, and applying it twice
// gives the same result as applying it once.
func Sanitize(f Field, raw string) string {
	re, ok := disallowed[f]
	if !ok {
		return raw
	}
	return re.ReplaceAllString(raw, "")
}
