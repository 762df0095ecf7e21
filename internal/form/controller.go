package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/applyform/internal/application"
	"github.com/dalemusser/applyform/internal/submit"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Messages shown after a submission.
const (
	SuccessMessage = "Form submitted successfully! Redirecting to Telegram group..."
	FailureMessage = "There was an error submitting your form. Please try again."
)

// Result classifies a submit.
type Result int

const (
	// Busy means a submission for the session was already in flight.
	Busy Result = iota
	// Invalid means validation failed; nothing was sent.
	Invalid
	// Submitted means the endpoint was reached.
	Submitted
	// Failed means the request could not be delivered.
	Failed
)

func (r Result) String() string {
	switch r {
	case Busy:
		return "busy"
	case Invalid:
		return "invalid"
	case Submitted:
		return "submitted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is what a submit produced.
type Outcome struct {
	Result       Result
	Errors       application.ErrorMap
	Notification *Notification
	Redirect     *Redirect
	Err          error
}

// Observer receives submission events, typically for metrics.
type Observer interface {
	ObserveSubmission(result string, elapsed time.Duration)
	ObserveValidation(fields []application.Field)
}

// Config configures a Controller.
type Config struct {
	Submitter submit.Submitter

	// DefaultCountryCode is preselected in new and reset drafts.
	// Default: "+91".
	DefaultCountryCode string

	// RedirectURL is where the visitor goes after a successful submit.
	RedirectURL string

	// RedirectDelay defaults to 2s, SuccessToast to 3s, ErrorToast to 5s.
	RedirectDelay time.Duration
	SuccessToast  time.Duration
	ErrorToast    time.Duration

	Clock    clockwork.Clock
	Logger   *zap.Logger
	Observer Observer
}

// Controller runs submissions. It is safe for concurrent use.
type Controller struct {
	submitter      submit.Submitter
	defaultCountry string
	redirectURL    string
	redirectDelay  time.Duration
	successToast   time.Duration
	errorToast     time.Duration
	clock          clockwork.Clock
	logger         *zap.Logger
	observer       Observer

	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock serializes the read-modify-write of one session's stored
// state. submitting is guarded by Controller.mu, the state by mu.
type sessionLock struct {
	mu         sync.Mutex
	refs       int
	submitting bool
}

// NewController creates a Controller.
func NewController(cfg Config) *Controller {
	if cfg.DefaultCountryCode == "" {
		cfg.DefaultCountryCode = "+91"
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = 2 * time.Second
	}
	if cfg.SuccessToast <= 0 {
		cfg.SuccessToast = 3 * time.Second
	}
	if cfg.ErrorToast <= 0 {
		cfg.ErrorToast = 5 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Controller{
		submitter:      cfg.Submitter,
		defaultCountry: cfg.DefaultCountryCode,
		redirectURL:    cfg.RedirectURL,
		redirectDelay:  cfg.RedirectDelay,
		successToast:   cfg.SuccessToast,
		errorToast:     cfg.ErrorToast,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		observer:       cfg.Observer,
		locks:          make(map[string]*sessionLock),
	}
}

// NewSession returns an empty session using the configured default dial code.
func (c *Controller) NewSession(id string) *Session {
	return NewSession(id, c.defaultCountry)
}

// DefaultCountry is the dial code new and reset drafts start with.
func (c *Controller) DefaultCountry() string {
	return c.defaultCountry
}

// Now is the controller's clock reading.
func (c *Controller) Now() time.Time {
	return c.clock.Now()
}

// hold returns id's lock with a reference taken. It fails while a
// submission for id is in flight; with submitting set it marks one.
func (c *Controller) hold(id string, submitting bool) (*sessionLock, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.locks[id]
	if l == nil {
		l = &sessionLock{}
		c.locks[id] = l
	}
	if l.submitting {
		return nil, false
	}
	l.submitting = submitting
	l.refs++
	return l, true
}

func (c *Controller) drop(id string, l *sessionLock, submitting bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if submitting {
		l.submitting = false
	}
	l.refs--
	if l.refs == 0 {
		delete(c.locks, id)
	}
}

// Edit runs fn while holding the session's lock, so fn can reload, change
// and store the form state without interleaving with a submission. It
// returns ErrBusy without calling fn while a submission is in flight.
func (c *Controller) Edit(id string, fn func() error) error {
	if id == "" {
		return fn()
	}
	l, ok := c.hold(id, false)
	if !ok {
		return ErrBusy
	}
	defer c.drop(id, l, false)

	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

// Submit validates the session's draft and, if it is valid, sends it once.
//
// A second submit while one is in flight returns Busy and changes nothing.
// On success the draft is reset and a redirect is scheduled; on failure the
// draft and errors are kept. The network call is not cancelled when ctx is;
// only the submitter's own timeout bounds it.
func (c *Controller) Submit(ctx context.Context, s *Session) Outcome {
	return c.SubmitThen(ctx, s, nil)
}

// SubmitThen is Submit with commit run before the session's lock is
// released, so the outcome is stored before any waiting edit reloads it.
// commit is not called for Busy.
func (c *Controller) SubmitThen(ctx context.Context, s *Session, commit func(Outcome)) Outcome {
	if s.Submitting {
		return Outcome{Result: Busy}
	}
	if s.ID != "" {
		l, ok := c.hold(s.ID, true)
		if !ok {
			return Outcome{Result: Busy}
		}
		defer c.drop(s.ID, l, true)

		l.mu.Lock()
		defer l.mu.Unlock()
	}

	out := c.submit(ctx, s)
	if commit != nil {
		commit(out)
	}
	return out
}

func (c *Controller) submit(ctx context.Context, s *Session) Outcome {
	if errs := application.Validate(s.Draft); !errs.Empty() {
		s.Errors = errs
		if c.observer != nil {
			c.observer.ObserveValidation(errs.Fields())
		}
		c.logger.Debug("application rejected by validation", zap.Any("fields", errs.Fields()))
		return Outcome{Result: Invalid, Errors: errs}
	}

	s.Submitting = true
	start := c.clock.Now()
	err := c.send(context.WithoutCancel(ctx), s.Draft)
	elapsed := c.clock.Since(start)
	s.Submitting = false

	now := c.clock.Now()
	if err != nil {
		c.logger.Error("application submission failed",
			zap.Error(err),
			zap.Bool("endpoint_configured", !errors.Is(err, submit.ErrEndpointNotConfigured)),
			zap.Duration("elapsed", elapsed))
		c.observe(Failed, elapsed)

		s.Notification = &Notification{
			Kind:      NotifyError,
			Message:   FailureMessage,
			Duration:  c.errorToast,
			ExpiresAt: now.Add(c.errorToast),
		}
		s.Redirect = nil
		return Outcome{Result: Failed, Notification: s.Notification, Err: err}
	}

	c.logger.Info("application submitted",
		zap.String("sales_experience", s.Draft.SalesExperience),
		zap.String("country_code", s.Draft.CountryCode),
		zap.Duration("elapsed", elapsed))
	c.observe(Submitted, elapsed)

	s.Round++
	s.Draft = application.NewDraft(c.defaultCountry)
	s.Errors = application.ErrorMap{}
	s.Notification = &Notification{
		Kind:      NotifySuccess,
		Message:   SuccessMessage,
		Duration:  c.successToast,
		ExpiresAt: now.Add(c.successToast),
	}
	s.Redirect = &Redirect{URL: c.redirectURL, At: now.Add(c.redirectDelay)}
	return Outcome{Result: Submitted, Notification: s.Notification, Redirect: s.Redirect}
}

func (c *Controller) send(ctx context.Context, d application.Draft) error {
	if c.submitter == nil {
		return submit.ErrEndpointNotConfigured
	}
	return c.submitter.Submit(ctx, d)
}

func (c *Controller) observe(r Result, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveSubmission(r.String(), elapsed)
	}
}
