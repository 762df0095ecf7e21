package application

import (
	"regexp"
	"unicode/utf8"
)

var (
	nameRegex      = regexp.MustCompile(`^[a-zA-Z]+(([',. -][a-zA-Z ])?[a-zA-Z]*)*$`)
	emailRegex     = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")
	phoneRegex     = regexp.MustCompile(`^[0-9]{10,15}$`)
	phoneLeadRegex = regexp.MustCompile(`^[1-9]`)
	educationRegex = regexp.MustCompile(`^[a-zA-Z0-9` + ws + `.,'\-()&]+$`)
	aboutYouRegex  = regexp.MustCompile(`^[a-zA-Z0-9` + ws + `.,!?'\-()&@#$%:;"\n]+$`)
)

// check reports whether the prepared value passes.
type check func(v string) bool

// rule pairs a check with the message shown when it fails.
type rule struct {
	ok  check
	msg string
}

// fieldRules is the ordered rule list for one field. prepare turns the raw
// value into the value the checks see; skip short-circuits optional fields.
type fieldRules struct {
	field   Field
	prepare func(string) string
	skip    func(prepared string) bool
	rules   []rule
}

func notEmpty(v string) bool { return v != "" }

func minLen(n int) check {
	return func(v string) bool { return utf8.RuneCountInString(v) >= n }
}

func maxLen(n int) check {
	return func(v string) bool { return utf8.RuneCountInString(v) <= n }
}

func matches(re *regexp.Regexp) check {
	return re.MatchString
}

func oneOf(values ...string) check {
	return func(v string) bool {
		for _, want := range values {
			if v == want {
				return true
			}
		}
		return false
	}
}

func identity(v string) string { return v }

// phoneDigits removes the separators the sanitizer lets through.
func phoneDigits(v string) string {
	out := make([]rune, 0, len(v))
	for _, r := range stripSpace(v) {
		switch r {
		case '-', '(', ')':
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

func nameRules(f Field, label string) fieldRules {
	return fieldRules{
		field:   f,
		prepare: trim,
		rules: []rule{
			{notEmpty, label + " is required"},
			{minLen(2), label + " must be at least 2 characters"},
			{maxLen(50), label + " must not exceed 50 characters"},
			{matches(nameRegex), label + " can only contain letters, spaces, hyphens, and apostrophes"},
		},
	}
}

// table runs in form order; countryCode has no rules.
var table = []fieldRules{
	nameRules(FirstName, "First name"),
	nameRules(LastName, "Last name"),
	{
		field:   Email,
		prepare: trim,
		rules: []rule{
			{notEmpty, "Email is required"},
			{maxLen(254), "Email must not exceed 254 characters"},
			{matches(emailRegex), "Please enter a valid email address (e.g., user@example.com)"},
		},
	},
	{
		// Required-ness is judged on the trimmed input, the digit rules on
		// the input with separators removed.
		field:   PhoneNumber,
		prepare: identity,
		rules: []rule{
			{func(v string) bool { return trim(v) != "" }, "Phone number is required"},
			{func(v string) bool { return phoneRegex.MatchString(phoneDigits(v)) }, "Phone number must be 10-15 digits (numbers only)"},
			{func(v string) bool { return phoneLeadRegex.MatchString(phoneDigits(v)) }, "Phone number cannot start with 0"},
		},
	},
	{
		field:   SalesExperience,
		prepare: identity,
		rules: []rule{
			{notEmpty, "Please select your sales experience"},
			{oneOf(ExperienceFresher, ExperienceExperienced), "Invalid sales experience selection"},
		},
	},
	{
		field:   EducationalQualification,
		prepare: trim,
		rules: []rule{
			{notEmpty, "Educational qualification is required"},
			{minLen(5), "Educational qualification must be at least 5 characters"},
			{maxLen(200), "Educational qualification must not exceed 200 characters"},
			{matches(educationRegex), "Educational qualification contains invalid characters"},
		},
	},
	{
		field:   AboutYou,
		prepare: trim,
		skip:    func(v string) bool { return v == "" },
		rules: []rule{
			{maxLen(1000), "Description must not exceed 1000 characters"},
			{matches(aboutYouRegex), "Description contains invalid characters"},
		},
	},
}

// Validate checks every field of d and returns one message per failing
// field: the message of the first rule that fails. The draft is valid when
// the result is empty. Validate has no side effects.
func Validate(d Draft) ErrorMap {
	errs := ErrorMap{}
	for _, fr := range table {
		v := fr.prepare(d.Get(fr.field))
		if fr.skip != nil && fr.skip(v) {
			continue
		}
		for _, r := range fr.rules {
			if !r.ok(v) {
				errs[fr.field] = r.msg
				break
			}
		}
	}
	return errs
}

// ValidateField runs the rules for a single field of d. It returns "" when
// the field passes.
func ValidateField(d Draft, f Field) string {
	return Validate(d).Get(f)
}
