// Package web serves the application page, the browser form post and the
// JSON API the page script uses for live edits and submission.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/dalemusser/applyform/internal/form"
	"github.com/dalemusser/applyform/middleware"
	"github.com/dalemusser/applyform/pantry/assets"
	"github.com/dalemusser/applyform/pantry/fileserver"
	"github.com/dalemusser/applyform/pantry/session"
	"github.com/dalemusser/applyform/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

//go:embed templates static
var content embed.FS

var staticFiles = []string{"form.css", "form.js"}

// Config wires a Handler.
type Config struct {
	Controller *form.Controller
	Sessions   *session.Manager

	// SubmitLimit wraps the two submission routes, typically a per-IP
	// rate limiter. Optional.
	SubmitLimit func(http.Handler) http.Handler

	// CORS wraps the JSON API. Optional.
	CORS func(http.Handler) http.Handler

	Logger *zap.Logger
}

// Handler serves the form.
type Handler struct {
	ctrl     *form.Controller
	sessions *session.Manager
	limit    func(http.Handler) http.Handler
	cors     func(http.Handler) http.Handler
	engine   *templates.Engine
	static   fs.FS
	versions map[string]string
	logger   *zap.Logger
}

// New compiles the page templates and returns a Handler.
func New(cfg Config) (*Handler, error) {
	if cfg.Controller == nil {
		return nil, fmt.Errorf("web: controller is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("web: session manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	identity := func(next http.Handler) http.Handler { return next }
	if cfg.SubmitLimit == nil {
		cfg.SubmitLimit = identity
	}
	if cfg.CORS == nil {
		cfg.CORS = identity
	}

	engine := templates.New(cfg.Logger, nil)
	if err := engine.Boot(
		templates.Set{Name: "shared", FS: content, Patterns: []string{"templates/shared/*.gohtml"}},
		templates.Set{Name: "pages", FS: content, Patterns: []string{"templates/pages/*.gohtml"}},
	); err != nil {
		return nil, fmt.Errorf("web: templates: %w", err)
	}

	static, err := fs.Sub(content, "static")
	if err != nil {
		return nil, fmt.Errorf("web: static: %w", err)
	}

	return &Handler{
		ctrl:     cfg.Controller,
		sessions: cfg.Sessions,
		limit:    cfg.SubmitLimit,
		cors:     cfg.CORS,
		engine:   engine,
		static:   static,
		versions: assets.Versions(static, staticFiles...),
		logger:   cfg.Logger,
	}, nil
}

// Mount attaches the page, static assets and JSON API to r.
//
//	GET  /                  page
//	POST /                  browser form post
//	GET  /static/*          css and js
//	GET  /api/countries     dial-code catalog
//	POST /api/field         one edit
//	POST /api/application   submit a draft
func (h *Handler) Mount(r chi.Router) {
	r.Handle("/static/*", fileserver.Handler("/static", h.static, fileserver.Options{
		CacheControl: "public, max-age=31536000, immutable",
	}))

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(h.sessions, h.logger))
		r.Get("/", h.showForm)
		r.With(middleware.RequireForm(), h.limit).Post("/", h.submitForm)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(h.cors)
		r.Get("/countries", h.countries)

		r.Group(func(r chi.Router) {
			r.Use(session.Middleware(h.sessions, h.logger))
			r.Use(middleware.RequireJSON())
			r.Post("/field", h.editField)
			r.With(h.limit).Post("/application", h.submitApplication)
		})
	})
}

// load restores the visitor's form from the session in the request
// context, or starts a fresh one. The copy is as of the start of the
// request; use update to change it.
func (h *Handler) load(r *http.Request) (*form.Session, *session.Session) {
	ss := session.FromContext(r.Context())
	return h.restore(ss), ss
}

func (h *Handler) restore(ss *session.Session) *form.Session {
	if ss == nil {
		return h.ctrl.NewSession("")
	}

	var st form.State
	ok, err := ss.Decode(&st)
	if err != nil {
		h.logger.Warn("stored form state unreadable; starting over",
			zap.String("session_id", logSessionID(ss.ID())), zap.Error(err))
		ok = false
	}
	if !ok {
		return h.ctrl.NewSession(ss.ID())
	}
	return form.Restore(ss.ID(), st)
}

// update reloads the visitor's form under the controller's session lock,
// applies fn and stores the result before the lock is released. It returns
// form.ErrBusy while a submission is in flight.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, ss *session.Session, fn func(*form.Session) error) error {
	id := ""
	if ss != nil {
		id = ss.ID()
	}
	return h.ctrl.Edit(id, func() error {
		if ss != nil {
			if err := h.sessions.Reload(r.Context(), ss); err != nil {
				h.logger.Warn("session reload failed; using the copy loaded with the request",
					zap.String("session_id", logSessionID(id)), zap.Error(err))
			}
		}
		s := h.restore(ss)
		if err := fn(s); err != nil {
			return err
		}
		h.persist(w, r, ss, s)
		return nil
	})
}

// persist writes the form back and saves the session now, rather than when
// the response header goes out, so callers holding the session lock store
// before they release it.
func (h *Handler) persist(w http.ResponseWriter, r *http.Request, ss *session.Session, s *form.Session) {
	if ss == nil {
		return
	}
	if err := ss.Encode(s.Snapshot()); err != nil {
		h.logger.Error("form state encode failed", zap.Error(err))
		return
	}
	if err := h.sessions.Save(w, r, ss); err != nil {
		h.logger.Error("session save failed",
			zap.String("session_id", logSessionID(ss.ID())), zap.Error(err))
	}
}

// logSessionID shortens an ID so logs can correlate requests without
// carrying a usable cookie value.
func logSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
