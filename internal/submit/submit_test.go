package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/applyform/internal/application"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleDraft() application.Draft {
	return application.Draft{
		FirstName:                "Jane",
		LastName:                 "Doe",
		Email:                    "jane@example.com",
		CountryCode:              "+91",
		PhoneNumber:              "9876543210",
		SalesExperience:          "fresher",
		EducationalQualification: "BCom Honours",
		AboutYou:                 "",
	}
}

func TestScriptSubmitter_PostsMultipartDataField(t *testing.T) {
	var calls int32
	var got map[string]string
	var ua string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		ua = r.UserAgent()
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Len(t, r.MultipartForm.Value, 1)
		assert.NoError(t, json.Unmarshal([]byte(r.FormValue(PayloadField)), &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var attempts []Attempt
	s := NewScriptSubmitter(Config{
		Endpoint:  srv.URL,
		UserAgent: "test-agent",
		OnAttempt: func(a Attempt) { attempts = append(attempts, a) },
	})

	require.NoError(t, s.Submit(context.Background(), sampleDraft()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "test-agent", ua)

	assert.Len(t, got, 8)
	assert.Equal(t, "Jane", got["firstName"])
	assert.Equal(t, "", got["aboutYou"])

	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Success())
	assert.Equal(t, http.StatusOK, attempts[0].StatusCode)
	_, err := uuid.Parse(attempts[0].ID)
	assert.NoError(t, err)
}

func TestScriptSubmitter_StatusIsNotInspected(t *testing.T) {
	for _, status := range []int{http.StatusFound, http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("ignored"))
		}))

		var last Attempt
		s := NewScriptSubmitter(Config{Endpoint: srv.URL, OnAttempt: func(a Attempt) { last = a }})
		assert.NoError(t, s.Submit(context.Background(), sampleDraft()), "status %d", status)
		assert.Equal(t, status, last.StatusCode)
		srv.Close()
	}
}

func TestScriptSubmitter_EndpointNotConfigured(t *testing.T) {
	var last Attempt
	s := NewScriptSubmitter(Config{Endpoint: "  ", OnAttempt: func(a Attempt) { last = a }})

	err := s.Submit(context.Background(), sampleDraft())
	assert.ErrorIs(t, err, ErrEndpointNotConfigured)
	assert.ErrorIs(t, last.Err, ErrEndpointNotConfigured)
	assert.Equal(t, "", last.Endpoint)
}

func TestScriptSubmitter_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var attempts int
	s := NewScriptSubmitter(Config{Endpoint: url, OnAttempt: func(Attempt) { attempts++ }})
	err := s.Submit(context.Background(), sampleDraft())
	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "no retry")
}

func TestScriptSubmitter_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewScriptSubmitter(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	err := s.Submit(context.Background(), sampleDraft())
	assert.Error(t, err)
}

func TestEndpointHost(t *testing.T) {
	assert.Equal(t, "script.google.com", endpointHost("https://script.google.com/macros/s/secret/exec"))
	assert.Equal(t, "", endpointHost(""))
	assert.Equal(t, "invalid", endpointHost("not a url"))
}

func TestFunc(t *testing.T) {
	boom := errors.New("boom")
	var seen application.Draft
	f := Func(func(ctx context.Context, d application.Draft) error {
		seen = d
		return boom
	})
	assert.ErrorIs(t, f.Submit(context.Background(), sampleDraft()), boom)
	assert.Equal(t, "Jane", seen.FirstName)
}

func TestDryRun_LogsWithoutPII(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	err := DryRun{Logger: zap.New(core)}.Submit(context.Background(), sampleDraft())
	require.NoError(t, err)

	require.Equal(t, 2, logs.Len())
	for _, e := range logs.All() {
		for _, v := range e.ContextMap() {
			assert.NotEqual(t, "jane@example.com", v)
		}
	}
}
