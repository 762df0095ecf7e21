package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/applyform/httputil"
	"github.com/dalemusser/applyform/internal/application"
	"github.com/dalemusser/applyform/internal/form"
	"github.com/dalemusser/applyform/internal/submit"
	"github.com/dalemusser/applyform/pantry/ratelimit"
	"github.com/dalemusser/applyform/pantry/session"
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/publicsuffix"
)

const telegram = "https://t.me/HustlifySalesSchool"

type recorder struct {
	mu     sync.Mutex
	drafts []application.Draft
	err    error
}

func (r *recorder) Submit(ctx context.Context, d application.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts = append(r.drafts, d)
	return r.err
}

func (r *recorder) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *recorder) sent() []application.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]application.Draft(nil), r.drafts...)
}

type harness struct {
	srv    *httptest.Server
	client *http.Client
	clock  *clockwork.FakeClock
}

func newHarness(t *testing.T, sub submit.Submitter, limit func(http.Handler) http.Handler) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()

	store := session.NewMemoryStoreWithConfig(session.MemoryStoreConfig{Clock: clock})
	t.Cleanup(func() { _ = store.Close() })

	h, err := New(Config{
		Controller: form.NewController(form.Config{
			Submitter:   sub,
			RedirectURL: telegram,
			Clock:       clock,
		}),
		Sessions:    session.NewManager(store, session.Config{Clock: clock}),
		SubmitLimit: limit,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.Mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	require.NoError(t, err)
	return &harness{srv: srv, client: &http.Client{Jar: jar}, clock: clock}
}

func (h *harness) get(t *testing.T, path string) (int, string) {
	t.Helper()
	res, err := h.client.Get(h.srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(b)
}

func (h *harness) postForm(t *testing.T, vals url.Values) (int, string) {
	t.Helper()
	res, err := h.client.PostForm(h.srv.URL+"/", vals)
	require.NoError(t, err)
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(b)
}

func (h *harness) postJSON(t *testing.T, path string, body any, out any) int {
	t.Helper()
	code, err := h.tryPostJSON(path, body, out)
	require.NoError(t, err)
	return code
}

// tryPostJSON is postJSON for goroutines other than the test's.
func (h *harness) tryPostJSON(path string, body any, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	res, err := h.client.Post(h.srv.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, err
		}
	}
	return res.StatusCode, nil
}

func validForm() url.Values {
	return url.Values{
		"firstName":                {"Jane"},
		"lastName":                 {"Doe"},
		"email":                    {"jane@example.com"},
		"countryCode":              {"+44"},
		"phoneNumber":              {"9876543210"},
		"salesExperience":          {"experienced"},
		"educationalQualification": {"MBA Marketing"},
		"aboutYou":                 {""},
	}
}

func TestShowForm_Empty(t *testing.T) {
	h := newHarness(t, &recorder{}, nil)

	code, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Application Form")
	assert.Contains(t, body, "Start Your Journey")
	assert.Contains(t, body, `<option value="&#43;91" selected>&#43;91 (India)</option>`)
	assert.Contains(t, body, ">0/1000<")
	assert.Contains(t, body, `maxlength="254"`)
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.NotContains(t, body, `class="toast toast-`)
}

func TestSubmitForm_Success(t *testing.T) {
	sub := &recorder{}
	h := newHarness(t, sub, nil)

	code, body := h.postForm(t, validForm())
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, form.SuccessMessage)
	assert.Contains(t, body, `data-duration-ms="3000"`)
	assert.Contains(t, body, `http-equiv="refresh" content="2;url=`+telegram+`"`)

	sent := sub.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, application.Draft{
		FirstName:                "Jane",
		LastName:                 "Doe",
		Email:                    "jane@example.com",
		CountryCode:              "+44",
		PhoneNumber:              "9876543210",
		SalesExperience:          "experienced",
		EducationalQualification: "MBA Marketing",
	}, sent[0])

	// The draft was reset and the notice is not shown twice.
	code, body = h.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, form.SuccessMessage)
	assert.NotContains(t, body, `value="Jane"`)
	assert.Contains(t, body, `<option value="&#43;91" selected>`)
}

func TestSubmitForm_Invalid(t *testing.T) {
	sub := &recorder{}
	h := newHarness(t, sub, nil)

	vals := validForm()
	vals.Set("educationalQualification", "BSc")
	vals.Set("firstName", "J@ne")

	code, body := h.postForm(t, vals)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body, "Educational qualification must be at least 5 characters")
	assert.Contains(t, body, `value="Jne"`, "posted values are sanitized")
	assert.Empty(t, sub.sent())

	// Errors and draft survive a reload.
	_, body = h.get(t, "/")
	assert.Contains(t, body, "Educational qualification must be at least 5 characters")
	assert.Contains(t, body, `value="BSc"`)
}

func TestSubmitForm_Failure(t *testing.T) {
	sub := &recorder{err: errors.New("connection refused")}
	h := newHarness(t, sub, nil)

	code, body := h.postForm(t, validForm())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, form.FailureMessage)
	assert.Contains(t, body, `data-duration-ms="5000"`)
	assert.Contains(t, body, `value="Jane"`)
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.Len(t, sub.sent(), 1)
}

func TestSubmitForm_RequiresFormEncoding(t *testing.T) {
	h := newHarness(t, &recorder{}, nil)

	res, err := h.client.Post(h.srv.URL+"/", "text/plain", strings.NewReader("firstName=Jane"))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)
}

func TestAPIField(t *testing.T) {
	h := newHarness(t, &recorder{}, nil)

	var resp fieldResponse
	code := h.postJSON(t, "/api/field", fieldRequest{Field: "firstName", Value: "J0hn!"}, &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "firstName", resp.Field)
	assert.Equal(t, "Jhn", resp.Value)
	assert.True(t, resp.Complete)
	assert.Empty(t, resp.Errors)

	code = h.postJSON(t, "/api/field", fieldRequest{Field: "phoneNumber", Value: "+91 (987) abc"}, &resp)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "91 (987) ", resp.Value)
	assert.False(t, resp.Complete)

	// The edit was stored in the visitor's session.
	_, body := h.get(t, "/")
	assert.Contains(t, body, `value="Jhn"`)

	var apiErr httputil.ErrorResponse
	code = h.postJSON(t, "/api/field", fieldRequest{Field: "middleName", Value: "x"}, &apiErr)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown_field", apiErr.Error)

	code = h.postJSON(t, "/api/field", map[string]string{"field": "email", "extra": "x"}, &apiErr)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_request", apiErr.Error)
}

func TestAPIField_ClearsThatFieldsError(t *testing.T) {
	h := newHarness(t, &recorder{}, nil)

	var sub submitResponse
	code := h.postJSON(t, "/api/application", map[string]string{}, &sub)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Contains(t, sub.Errors, application.FirstName)
	require.Contains(t, sub.Errors, application.Email)

	var resp fieldResponse
	h.postJSON(t, "/api/field", fieldRequest{Field: "firstName", Value: "J"}, &resp)
	assert.NotContains(t, resp.Errors, application.FirstName)
	assert.Contains(t, resp.Errors, application.Email)
}

func TestAPIApplication(t *testing.T) {
	sub := &recorder{}
	h := newHarness(t, sub, nil)

	// Earlier edits count; keys left out of the body keep stored values.
	h.postJSON(t, "/api/field", fieldRequest{Field: "firstName", Value: "Jane"}, nil)

	draft := map[string]string{
		"lastName":                 "Doe",
		"email":                    "jane@example.com",
		"phoneNumber":              "98765-43210",
		"salesExperience":          "fresher",
		"educationalQualification": "B.Com Finance",
	}

	var resp submitResponse
	code := h.postJSON(t, "/api/application", draft, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "submitted", resp.Status)
	require.NotNil(t, resp.Notification)
	assert.Equal(t, "success", resp.Notification.Kind)
	assert.Equal(t, form.SuccessMessage, resp.Notification.Message)
	assert.Equal(t, int64(3000), resp.Notification.DurationMS)
	require.NotNil(t, resp.Redirect)
	assert.Equal(t, telegram, resp.Redirect.URL)
	assert.Equal(t, int64(2000), resp.Redirect.DelayMS)
	require.NotNil(t, resp.Draft)
	assert.Equal(t, application.NewDraft("+91"), *resp.Draft)

	sent := sub.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Jane", sent[0].FirstName)
	assert.Equal(t, "+91", sent[0].CountryCode)
	assert.Equal(t, "98765-43210", sent[0].PhoneNumber)
}

func TestAPIApplication_InvalidAndFailed(t *testing.T) {
	sub := &recorder{}
	h := newHarness(t, sub, nil)

	draft := map[string]string{
		"firstName":                "Jane",
		"lastName":                 "Doe",
		"email":                    "jane@example.com",
		"phoneNumber":              "0123456789",
		"salesExperience":          "fresher",
		"educationalQualification": "B.Com Finance",
	}

	var resp submitResponse
	code := h.postJSON(t, "/api/application", draft, &resp)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid", resp.Status)
	assert.Equal(t, application.ErrorMap{application.PhoneNumber: "Phone number cannot start with 0"}, resp.Errors)
	assert.Nil(t, resp.Notification)
	assert.Empty(t, sub.sent())

	sub.fail(errors.New("timeout"))
	draft["phoneNumber"] = "9123456789"
	resp = submitResponse{}
	code = h.postJSON(t, "/api/application", draft, &resp)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "failed", resp.Status)
	require.NotNil(t, resp.Notification)
	assert.Equal(t, "error", resp.Notification.Kind)
	assert.Equal(t, int64(5000), resp.Notification.DurationMS)
	assert.Nil(t, resp.Redirect)
	require.NotNil(t, resp.Draft)
	assert.Equal(t, "Jane", resp.Draft.FirstName)
}

func TestAPIApplication_BusyWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	sub := submit.Func(func(ctx context.Context, d application.Draft) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})
	h := newHarness(t, sub, nil)

	// Establish the session cookie first so both requests share it.
	code, _ := h.get(t, "/")
	require.Equal(t, http.StatusOK, code)

	draft := map[string]string{
		"firstName":                "Jane",
		"lastName":                 "Doe",
		"email":                    "jane@example.com",
		"phoneNumber":              "9123456789",
		"salesExperience":          "fresher",
		"educationalQualification": "B.Com Finance",
	}

	done := make(chan int, 1)
	go func() {
		code, err := h.tryPostJSON("/api/application", draft, nil)
		if err != nil {
			code = 0
		}
		done <- code
	}()
	<-started

	var resp submitResponse
	code = h.postJSON(t, "/api/application", draft, &resp)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "busy", resp.Status)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestAPIField_RefusedWhileSubmitting(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	sub := submit.Func(func(ctx context.Context, d application.Draft) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	})
	h := newHarness(t, sub, nil)

	code, _ := h.get(t, "/")
	require.Equal(t, http.StatusOK, code)

	draft := map[string]string{
		"firstName":                "Jane",
		"lastName":                 "Doe",
		"email":                    "jane@example.com",
		"phoneNumber":              "9123456789",
		"salesExperience":          "fresher",
		"educationalQualification": "B.Com Finance",
	}

	done := make(chan int, 1)
	go func() {
		code, err := h.tryPostJSON("/api/application", draft, nil)
		if err != nil {
			code = 0
		}
		done <- code
	}()
	<-started

	// An edit racing the submission is refused rather than stored over
	// the reset that follows.
	var apiErr httputil.ErrorResponse
	code = h.postJSON(t, "/api/field", fieldRequest{Field: "firstName", Value: "Janet"}, &apiErr)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "busy", apiErr.Error)

	close(release)
	require.Equal(t, http.StatusOK, <-done)

	_, body := h.get(t, "/")
	assert.NotContains(t, body, `value="Jane"`)
	assert.NotContains(t, body, `value="Janet"`)

	// Once the submission is done, edits apply to the fresh draft.
	var resp fieldResponse
	code = h.postJSON(t, "/api/field", fieldRequest{Field: "lastName", Value: "Roe"}, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Roe", resp.Value)

	_, body = h.get(t, "/")
	assert.Contains(t, body, `value="Roe"`)
	assert.NotContains(t, body, `value="Doe"`)
}

func TestAPIApplication_RateLimited(t *testing.T) {
	mw, kl := ratelimit.Middleware(ratelimit.Config{
		Rate:  0.001,
		Burst: 1,
		OnLimited: func(w http.ResponseWriter, r *http.Request) {
			httputil.JSONError(w, http.StatusTooManyRequests, "rate_limited", "slow down")
		},
	})
	defer kl.Close()
	h := newHarness(t, &recorder{}, mw)

	code := h.postJSON(t, "/api/application", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	var apiErr httputil.ErrorResponse
	code = h.postJSON(t, "/api/application", map[string]string{}, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate_limited", apiErr.Error)

	// Field edits are not throttled.
	code = h.postJSON(t, "/api/field", fieldRequest{Field: "email", Value: "a"}, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAPICountries(t *testing.T) {
	h := newHarness(t, &recorder{}, nil)

	code, body := h.get(t, "/api/countries")
	require.Equal(t, http.StatusOK, code)

	var resp countriesResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Len(t, resp.Countries, 24)
	assert.Equal(t, "+91", resp.Default)
	assert.Len(t, resp.Experience, 2)
}

func TestStatic(t *testing.T) {
	h := newHarness(t, &recorder{}, nil)

	code, body := h.get(t, "/static/form.js")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "/api/field")

	code, _ = h.get(t, "/static/missing.css")
	assert.Equal(t, http.StatusNotFound, code)

	_, page := h.get(t, "/")
	assert.Contains(t, page, "/static/form.css?v=")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusFor(form.Submitted))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(form.Invalid))
	assert.Equal(t, http.StatusConflict, statusFor(form.Busy))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(form.Failed))
}
