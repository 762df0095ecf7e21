package web

import (
	"net/http"

	"github.com/dalemusser/applyform/internal/application"
	"github.com/dalemusser/applyform/internal/form"
	"github.com/dalemusser/applyform/middleware"
	"go.uber.org/zap"
)

const pageTemplate = "apply"

// statusFor maps a submit result to the HTTP status of the response.
func statusFor(r form.Result) int {
	switch r {
	case form.Submitted:
		return http.StatusOK
	case form.Invalid:
		return http.StatusUnprocessableEntity
	case form.Busy:
		return http.StatusConflict
	}
	return http.StatusServiceUnavailable
}

// showForm renders the page from the visitor's session. A pending
// notification or redirect is shown once and then dropped.
func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	s, ss := h.load(r)

	var (
		n  *form.Notification
		rd *form.Redirect
	)
	err := h.update(w, r, ss, func(cur *form.Session) error {
		n, rd = cur.TakeNotice(h.ctrl.Now())
		s = cur
		return nil
	})
	if err != nil {
		// A submission is in flight; show the form as loaded and leave the
		// notice for the request that owns it.
		h.logger.Debug("page load while a submission is in flight",
			zap.String("session_id", logSessionID(s.ID)))
	}

	h.engine.Render(w, http.StatusOK, pageTemplate, h.newPage(s, n, rd))
}

// submitForm handles the no-script path: every posted field is applied as
// an edit, then the draft is submitted.
func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		if middleware.IsBodyTooLarge(err) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	s, ss := h.load(r)

	values := make(map[application.Field]string, len(r.PostForm))
	for _, f := range application.Fields() {
		if _, ok := r.PostForm[string(f)]; ok {
			values[f] = r.PostForm.Get(string(f))
		}
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
		// The in-flight request owns the stored state.
		h.logger.Debug("form post while a submission is in flight",
			zap.String("session_id", logSessionID(s.ID)))
		h.engine.Render(w, http.StatusConflict, pageTemplate, h.newPage(s, nil, nil))
		return
	}

	h.engine.Render(w, statusFor(out.Result), pageTemplate, h.newPage(s, n, rd))
}
