// Package application holds the job-application draft, the per-field
// sanitizer and the validator. Everything here is pure: no I/O, no clock.
package application

import "fmt"

// Field names one input of the application form. The string value is the
// wire name used in JSON, HTML form posts and the submitted payload.
type Field string

const (
	FirstName                Field = "firstName"
	LastName                 Field = "lastName"
	Email                    Field = "email"
	CountryCode              Field = "countryCode"
	PhoneNumber              Field = "phoneNumber"
	SalesExperience          Field = "salesExperience"
	EducationalQualification Field = "educationalQualification"
	AboutYou                 Field = "aboutYou"
)

var fieldOrder = [...]Field{
	FirstName,
	LastName,
	Email,
	CountryCode,
	PhoneNumber,
	SalesExperience,
	EducationalQualification,
	AboutYou,
}

// Fields returns every field in form order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder[:])
	return out
}

// ParseField maps a wire name to its Field.
func ParseField(name string) (Field, error) {
	for _, f := range fieldOrder {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("application: unknown field %q", name)
}

func (f Field) position() int {
	for i, g := range fieldOrder {
		if g == f {
			return i
		}
	}
	return len(fieldOrder)
}

// Draft is the in-progress application. All eight keys are always present
// when encoded.
type Draft struct {
	FirstName                string `json:"firstName"`
	LastName                 string `json:"lastName"`
	Email                    string `json:"email"`
	CountryCode              string `json:"countryCode"`
	PhoneNumber              string `json:"phoneNumber"`
	SalesExperience          string `json:"salesExperience"`
	EducationalQualification string `json:"educationalQualification"`
	AboutYou                 string `json:"aboutYou"`
}

// NewDraft returns an empty draft with the given dial code preselected.
func NewDraft(defaultCountryCode string) Draft {
	return Draft{CountryCode: defaultCountryCode}
}

// Get returns the current value of f, or "" for an unknown field.
func (d Draft) Get(f Field) string {
	if p := d.slot(f); p != nil {
		return *p
	}
	return ""
}

// With returns a copy of d with f replaced by value. Unknown fields leave
// the copy unchanged.
func (d Draft) With(f Field, value string) Draft {
	if p := d.slot(f); p != nil {
		*p = value
	}
	return d
}

// slot points into d, which callers always hold by value.
func (d *Draft) slot(f Field) *string {
	switch f {
	case FirstName:
		return &d.FirstName
	case LastName:
		return &d.LastName
	case Email:
		return &d.Email
	case CountryCode:
		return &d.CountryCode
	case PhoneNumber:
		return &d.PhoneNumber
	case SalesExperience:
		return &d.SalesExperience
	case EducationalQualification:
		return &d.EducationalQualification
	case AboutYou:
		return &d.AboutYou
	}
	return nil
}
