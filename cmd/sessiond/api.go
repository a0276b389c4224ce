package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sessionstore/pkg/logger"
	"github.com/dmitrymomot/sessionstore/pkg/requestid"
	"github.com/dmitrymomot/sessionstore/pkg/session"
)

const maxValueSize = 64 << 10

// httpError pairs a status code with a stable error key.
type httpError struct {
	Code int
	Key  string
}

func (e httpError) Error() string { return e.Key }

var (
	errBadRequest      = httpError{Code: http.StatusBadRequest, Key: "bad_request"}
	errNoSession       = httpError{Code: http.StatusNotFound, Key: "session_not_found"}
	errNoKey           = httpError{Code: http.StatusNotFound, Key: "key_not_found"}
	errSessionConflict = httpError{Code: http.StatusConflict, Key: "session_deleted"}
	errUnavailable     = httpError{Code: http.StatusServiceUnavailable, Key: "store_unavailable"}
	errInternal        = httpError{Code: http.StatusInternalServerError, Key: "internal_error"}
)

// envelope is the body of every API response.
type envelope struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// sessionView is the JSON form of a request's session.
type sessionView struct {
	ID   string       `json:"id,omitempty"`
	New  bool         `json:"new"`
	Data session.Data `json:"data"`
}

type writeView struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
}

type api struct {
	sessions *session.Manager
	log      *slog.Logger
}

// routes mounts the session endpoints on r. The session middleware must
// already be installed.
func (a *api) routes(r chi.Router) {
	r.Get("/session", a.show)
	r.Delete("/session", a.destroy)
	r.Post("/session/renew", a.renew)
	r.Put("/session/{key}", a.setKey)
	r.Delete("/session/{key}", a.deleteKey)
}

func (a *api) show(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())
	view := sessionView{New: st.IsNew(), Data: st.Data}
	if !st.IsNew() {
		view.ID = st.ID.Public
	}
	a.json(w, r, http.StatusOK, view)
}

func (a *api) setKey(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxValueSize+1))
	if err != nil || len(body) > maxValueSize {
		a.fail(w, r, errBadRequest, err)
		return
	}

	var v session.Value
	if err := json.Unmarshal(body, &v); err != nil {
		a.fail(w, r, errBadRequest, err)
		return
	}

	st.Data.Set(chi.URLParam(r, "key"), v)
	a.save(w, r, st)
}

func (a *api) deleteKey(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())
	key := chi.URLParam(r, "key")
	if _, ok := st.Data.Get(key); !ok {
		a.fail(w, r, errNoKey, nil)
		return
	}

	st.Data.Delete(key)
	a.save(w, r, st)
}

func (a *api) save(w http.ResponseWriter, r *http.Request, st *session.State) {
	res, err := a.sessions.Save(r.Context(), w, st)
	if err != nil {
		a.fail(w, r, classify(err), err)
		return
	}
	countWrite(res.Status)

	switch res.Status {
	case session.WriteCommitted:
		a.json(w, r, http.StatusOK, writeView{ID: res.ID.Public, Status: res.Status.String()})
	case session.WriteDropped:
		a.fail(w, r, errSessionConflict, nil)
	default:
		a.fail(w, r, errUnavailable, nil)
	}
}

func (a *api) destroy(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())
	if st.IsNew() {
		a.fail(w, r, errNoSession, nil)
		return
	}

	if err := a.sessions.Destroy(r.Context(), w, st, true); err != nil {
		a.fail(w, r, classify(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) renew(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())
	// An empty session is never stored under a new id, so there is nothing to move.
	if st.IsNew() || st.Data.Empty() {
		a.fail(w, r, errNoSession, nil)
		return
	}

	prev := st.ID.Public
	if err := a.sessions.Renew(r.Context(), w, st); err != nil {
		a.fail(w, r, classify(err), err)
		return
	}
	if st.ID.Public == prev {
		a.fail(w, r, errUnavailable, nil)
		return
	}

	a.json(w, r, http.StatusOK, sessionView{ID: st.ID.Public, Data: st.Data})
}

func classify(err error) httpError {
	switch {
	case errors.Is(err, session.ErrInvalidValue):
		return errBadRequest
	case errors.Is(err, session.ErrIDExhausted):
		return errUnavailable
	default:
		return errInternal
	}
}

func (a *api) json(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		a.log.ErrorContext(r.Context(), "failed to write response", logger.Error(err))
	}
}

func (a *api) fail(w http.ResponseWriter, r *http.Request, e httpError, cause error) {
	level := slog.LevelWarn
	if e.Code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	a.log.LogAttrs(r.Context(), level, "request error",
		logger.RequestID(requestid.FromContext(r.Context())),
		logger.Error(cause),
		slog.Int("status_code", e.Code),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("api"),
	)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	_ = json.NewEncoder(w).Encode(envelope{Error: &errorDetail{Code: e.Key, Message: http.StatusText(e.Code)}})
}
