package web

import (
	"errors"
	"net/http"

	"github.com/dalemusser/applyform/httputil"
	"github.com/dalemusser/applyform/internal/application"
	"github.com/dalemusser/applyform/internal/form"
)

type countriesResponse struct {
	Countries  []application.Country `json:"countries"`
	Default    string                `json:"default"`
	Experience []application.Option  `json:"experience"`
}

func (h *Handler) countries(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, countriesResponse{
		Countries:  application.CountryCodes(),
		Default:    h.ctrl.DefaultCountry(),
		Experience: application.ExperienceLevels(),
	})
}

type fieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type fieldResponse struct {
	Field    string               `json:"field"`
	Value    string               `json:"value"`
	Complete bool                 `json:"complete"`
	Errors   application.ErrorMap `json:"errors"`
}

// editField applies one keystroke edit and answers with the sanitized value
// and the errors still standing. Edits are refused while a submission is in
// flight and when the draft they were typed into has since been submitted.
func (h *Handler) editField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := httputil.BindJSON(r, &req); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	f, err := application.ParseField(req.Field)
	if err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "unknown_field", "field is not part of the application form")
		return
	}

	loaded, ss := h.load(r)

	var resp fieldResponse
	err = h.update(w, r, ss, func(s *form.Session) error {
		if s.Round != loaded.Round {
			return form.ErrStaleEdit
		}
		v := s.Change(f, req.Value)
		errs := s.Errors
		if errs == nil {
			errs = application.ErrorMap{}
		}
		resp = fieldResponse{
			Field:    string(f),
			Value:    v,
			Complete: application.LooksComplete(f, v),
			Errors:   errs,
		}
		return nil
	})
	switch {
	case errors.Is(err, form.ErrBusy):
		httputil.JSONError(w, http.StatusConflict, "busy", "a submission is in progress")
		return
	case errors.Is(err, form.ErrStaleEdit):
		httputil.JSONError(w, http.StatusConflict, "draft_reset", "the application was already submitted")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type submitResponse struct {
	Status       string               `json:"status"`
	Draft        *application.Draft   `json:"draft,omitempty"`
	Errors       application.ErrorMap `json:"errors,omitempty"`
	Notification *notice              `json:"notification,omitempty"`
	Redirect     *redirect            `json:"redirect,omitempty"`
}

// submitApplication takes a whole or partial draft as JSON. Keys left out
// keep their stored values; every key sent goes through the sanitizer.
func (h *Handler) submitApplication(w http.ResponseWriter, r *http.Request) {
	s, ss := h.load(r)

	posted := s.Draft
	if err := httputil.BindJSON(r, &posted); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	values := make(map[application.Field]string, len(application.Fields()))
	for _, f := range application.Fields() {
		values[f] = posted.Get(f)
	}
	s.Apply(values)

	var (
		n  *form.Notification
		rd *form.Redirect
	)
	out := h.ctrl.SubmitThen(r.Context(), s, func(form.Outcome) {
		n, rd = s.TakeNotice(h.ctrl.Now())
		h.persist(w, r, ss, s)
	})
	if out.Result == form.Busy {
		httputil.WriteJSON(w, http.StatusConflict, submitResponse{Status: out.Result.String()})
		return
	}

	draft := s.Draft
	httputil.WriteJSON(w, statusFor(out.Result), submitResponse{
		Status:       out.Result.String(),
		Draft:        &draft,
		Errors:       out.Errors,
		Notification: newNotice(n),
		Redirect:     newRedirect(rd, h.ctrl.Now()),
	})
}
