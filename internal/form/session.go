// Package form holds one visitor's form session and the controller that
// turns a submit into validation, one network call and a notification.
package form

import (
	"errors"
	"time"

	"github.com/dalemusser/applyform/internal/application"
)

var (
	// ErrBusy is returned for edits made while a submission is in flight.
	ErrBusy = errors.New("form: submission in flight")

	// ErrStaleEdit is returned for edits aimed at a draft that has since
	// been submitted and reset.
	ErrStaleEdit = errors.New("form: draft was reset")
)

// Phase is the submission state of a session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
)

// NotificationKind selects the toast style.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient toast.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	Duration  time.Duration    `json:"duration"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Active reports whether n should still be shown at now.
func (n *Notification) Active(now time.Time) bool {
	return n != nil && now.Before(n.ExpiresAt)
}

// Redirect is a pending navigation.
type Redirect struct {
	URL string    `json:"url"`
	At  time.Time `json:"at"`
}

// Remaining returns how long until the navigation is due, never negative.
func (r Redirect) Remaining(now time.Time) time.Duration {
	if d := r.At.Sub(now); d > 0 {
		return d
	}
	return 0
}

// State is the storable form of a Session. Round counts successful
// submissions, so it moves whenever the draft resets.
type State struct {
	Round        int                  `json:"round"`
	Draft        application.Draft    `json:"draft"`
	Errors       application.ErrorMap `json:"errors,omitempty"`
	Notification *Notification        `json:"notification,omitempty"`
	Redirect     *Redirect            `json:"redirect,omitempty"`
}

// Session is one visitor's form: the draft, its errors and whether a
// submission is in flight, kept together so they change as a unit.
type Session struct {
	ID           string
	Round        int
	Draft        application.Draft
	Errors       application.ErrorMap
	Submitting   bool
	Notification *Notification
	Redirect     *Redirect
}

// NewSession returns an empty form with defaultCountry preselected.
func NewSession(id, defaultCountry string) *Session {
	return &Session{
		ID:     id,
		Draft:  application.NewDraft(defaultCountry),
		Errors: application.ErrorMap{},
	}
}

// Restore rebuilds a session from stored state.
func Restore(id string, st State) *Session {
	errs := st.Errors
	if errs == nil {
		errs = application.ErrorMap{}
	}
	return &Session{
		ID:           id,
		Round:        st.Round,
		Draft:        st.Draft,
		Errors:       errs,
		Notification: st.Notification,
		Redirect:     st.Redirect,
	}
}

// Snapshot returns the storable state. Submitting is never stored: a
// submission starts and finishes within one request.
func (s *Session) Snapshot() State {
	return State{
		Round:        s.Round,
		Draft:        s.Draft,
		Errors:       s.Errors,
		Notification: s.Notification,
		Redirect:     s.Redirect,
	}
}

// Phase reports the current submission state.
func (s *Session) Phase() Phase {
	if s.Submitting {
		return PhaseSubmitting
	}
	return PhaseIdle
}

// Change applies one edit: sanitize, store, and clear that field's error.
// It returns the stored value.
func (s *Session) Change(f application.Field, raw string) string {
	v := application.Sanitize(f, raw)
	s.Draft = s.Draft.With(f, v)
	if s.Errors.Has(f) {
		s.Errors = s.Errors.Clear(f)
	}
	return v
}


// Apply runs Change for every field present in values, in form order.
func (s *Session) Apply(values map[application.Field]string) {
	for _, f := range application.Fields() {
		if raw, ok := values[f]; ok {
			s.Change(f, raw)
		}
	}
}

// TakeNotice returns the notification and redirect still due at now and
// clears them, so each is rendered once.
func (s *Session) TakeNotice(now time.Time) (*Notification, *Redirect) {
	n, r := s.Notification, s.Redirect
	s.Notification, s.Redirect = nil, nil
	if !n.Active(now) {
		n = nil
	}
	return n, r
}
