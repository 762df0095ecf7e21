package application

// Country is one dial-code option.
type Country struct {
	Code    string `json:"code"`
	Country string `json:"country"`
}

// Label is the text shown in the select control, e.g. "+91 (India)".
func (c Country) Label() string {
	return c.Code + " (" + c.Country + ")"
}

var countryCodes = [...]Country{
	{"+1", "US/CA"},
	{"+44", "UK"},
	{"+91", "India"},
	{"+971", "UAE"},
	{"+966", "Saudi Arabia"},
	{"+974", "Qatar"},
	{"+965", "Kuwait"},
	{"+968", "Oman"},
	{"+973", "Bahrain"},
	{"+962", "Jordan"},
	{"+961", "Lebanon"},
	{"+20", "Egypt"},
	{"+964", "Iraq"},
	{"+963", "Syria"},
	{"+970", "Palestine"},
	{"+967", "Yemen"},
	{"+98", "Iran"},
	{"+90", "Turkey"},
	{"+972", "Israel"},
	{"+61", "Australia"},
	{"+81", "Japan"},
	{"+86", "China"},
	{"+49", "Germany"},
	{"+33", "France"},
}

// CountryCodes returns the dial-code catalog in display order.
func CountryCodes() []Country {
	out := make([]Country, len(countryCodes))
	copy(out, countryCodes[:])
	return out
}

// LookupCountry finds the catalog entry for code.
func LookupCountry(code string) (Country, bool) {
	for _, c := range countryCodes {
		if c.Code == code {
			return c, true
		}
	}
	return Country{}, false
}

// Option is a value/label pair for a select control.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

const (
	ExperienceFresher     = "fresher"
	ExperienceExperienced = "experienced"
)

// ExperienceLevels returns the sales-experience choices.
func ExperienceLevels() []Option {
	return []Option{
		{Value: ExperienceFresher, Label: "Fresher"},
		{Value: ExperienceExperienced, Label: "Experienced"},
	}
}
