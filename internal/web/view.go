package web

import (
	"time"
	"unicode/utf8"

	"github.com/dalemusser/applyform/internal/application"
	"github.com/dalemusser/applyform/internal/form"
)

// AboutYouMax is the about-you character limit shown by the counter.
const AboutYouMax = 1000

type input struct {
	Name     string
	Value    string
	Error    string
	Complete bool
}

// State is the CSS state class for the control.
func (in input) State() string {
	switch {
	case in.Error != "":
		return "is-invalid"
	case in.Complete:
		return "is-valid"
	}
	return ""
}

type inputs struct {
	FirstName                input
	LastName                 input
	Email                    input
	CountryCode              input
	PhoneNumber              input
	SalesExperience          input
	EducationalQualification input
	AboutYou                 input
}

type notice struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	DurationMS int64  `json:"duration_ms"`
}

type redirect struct {
	URL     string        `json:"url"`
	DelayMS int64         `json:"delay_ms"`
	Delay   time.Duration `json:"-"`
}

type page struct {
	Title        string
	Assets       map[string]string
	Inputs       inputs
	Countries    []application.Country
	Experience   []application.Option
	AboutCount   int
	AboutMax     int
	AboutOver    bool
	Notification *notice
	Redirect     *redirect
}

func newInput(s *form.Session, f application.Field) input {
	v := s.Draft.Get(f)
	return input{
		Name:     string(f),
		Value:    v,
		Error:    s.Errors.Get(f),
		Complete: application.LooksComplete(f, v),
	}
}

func newNotice(n *form.Notification) *notice {
	if n == nil {
		return nil
	}
	return &notice{
		Kind:       string(n.Kind),
		Message:    n.Message,
		DurationMS: n.Duration.Milliseconds(),
	}
}

func newRedirect(r *form.Redirect, now time.Time) *redirect {
	if r == nil {
		return nil
	}
	d := r.Remaining(now)
	return &redirect{URL: r.URL, DelayMS: d.Milliseconds(), Delay: d}
}

// newPage builds the template data for s with the notice already taken.
func (h *Handler) newPage(s *form.Session, n *form.Notification, r *form.Redirect) page {
	about := s.Draft.AboutYou
	count := utf8.RuneCountInString(about)
	return page{
		Title:  "Apply | Hustlify",
		Assets: h.versions,
		Inputs: inputs{
			FirstName:                newInput(s, application.FirstName),
			LastName:                 newInput(s, application.LastName),
			Email:                    newInput(s, application.Email),
			CountryCode:              newInput(s, application.CountryCode),
			PhoneNumber:              newInput(s, application.PhoneNumber),
			SalesExperience:          newInput(s, application.SalesExperience),
			EducationalQualification: newInput(s, application.EducationalQualification),
			AboutYou:                 newInput(s, application.AboutYou),
		},
		Countries:    application.CountryCodes(),
		Experience:   application.ExperienceLevels(),
		AboutCount:   count,
		AboutMax:     AboutYouMax,
		AboutOver:    count > AboutYouMax,
		Notification: newNotice(n),
		Redirect:     newRedirect(r, h.ctrl.Now()),
	}
}
