// Package submit delivers a validated application draft to the
// spreadsheet-backed collection endpoint.
//
// The endpoint is treated as opaque: a submission succeeds when the request
// reaches it, whatever it answers. Callers must not read more into success
// than "the request was sent and a response came back".
//
//	s := submit.NewScriptSubmitter(submit.Config{
//	    Endpoint: "https://script.google.com/macros/s/.../exec",
//	})
//	err := s.Submit(ctx, draft)
package submit

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/applyform/internal/application"
	"github.com/google/uuid"
)

// Common errors returned by submitters.
var (
	ErrEndpointNotConfigured = errors.New("submit: endpoint URL not configured; set APPLYFORM_SCRIPT_URL")
)

// Submitter delivers one draft. Implementations make exactly one attempt.
type Submitter interface {
	Submit(ctx context.Context, d application.Draft) error
}

// Func adapts an ordinary function to Submitter.
type Func func(ctx context.Context, d application.Draft) error

// Submit calls f.
func (f Func) Submit(ctx context.Context, d application.Draft) error {
	return f(ctx, d)
}

// Attempt describes one delivery attempt.
type Attempt struct {
	ID       string
	Endpoint string
	Started  time.Time
	Duration time.Duration

	// StatusCode is recorded for logs only; it never decides success.
	StatusCode int
	Err        error
}

// Success reports whether the attempt reached the endpoint.
func (a Attempt) Success() bool {
	return a.Err == nil
}

func newAttemptID() string {
	return uuid.NewString()
}
