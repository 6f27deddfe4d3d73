package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/mojito-booking/internal/booking"
	"github.com/wolfman30/mojito-booking/internal/render"
	"github.com/wolfman30/mojito-booking/internal/session"
	"github.com/wolfman30/mojito-booking/pkg/logging"
)

// maxBodyBytes bounds field and submit payloads.
const maxBodyBytes = 64 << 10

// FieldChangeObserver counts accepted and rejected field changes.
type FieldChangeObserver interface {
	ObserveFieldChange(accepted bool)
}

// BookingHandlerConfig wires the booking endpoints.
type BookingHandlerConfig struct {
	Store    *session.Store
	Renderer *render.Renderer
	Logger   *logging.Logger
	Changes  FieldChangeObserver

	// CookieName names the session cookie.
	CookieName string
	// SecureCookie marks the cookie Secure and SameSite=None so a landing
	// page on another HTTPS origin can send it.
	SecureCookie bool
	// SubmitPath is the form action rendered into the page.
	SubmitPath string
}

// BookingHandler serves the booking section and its form events.
type BookingHandler struct {
	store        *session.Store
	renderer     *render.Renderer
	logger       *logging.Logger
	changes      FieldChangeObserver
	cookieName   string
	secureCookie bool
	submitPath   string
}

// StateResponse is the JSON form of a session's form.
type StateResponse struct {
	Data   booking.FormData `json:"data"`
	Status booking.Status   `json:"status"`
	View   render.View      `json:"view"`
}

// FieldChangeRequest is one input event.
type FieldChangeRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// NewBookingHandler creates the booking handler.
func NewBookingHandler(cfg BookingHandlerConfig) *BookingHandler {
	if cfg.Store == nil {
		panic("handlers: session store required")
	}
	if cfg.Renderer == nil {
		panic("handlers: renderer required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "booking_session"
	}
	if cfg.SubmitPath == "" {
		cfg.SubmitPath = "/booking/submit"
	}
	return &BookingHandler{
		store:        cfg.Store,
		renderer:     cfg.Renderer,
		logger:       cfg.Logger,
		changes:      cfg.Changes,
		cookieName:   cfg.CookieName,
		secureCookie: cfg.SecureCookie,
		submitPath:   cfg.SubmitPath,
	}
}

// Routes mounts the booking endpoints.
func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Page)
	r.Get("/state", h.State)
	r.Post("/fields", h.ChangeField)
	r.Post("/submit", h.Submit)
	return r
}

// Page handles GET /booking.
func (h *BookingHandler) Page(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	data, status := sess.Form().State()
	h.renderPage(w, http.StatusOK, render.NewView(data, status))
}

// State handles GET /booking/state.
func (h *BookingHandler) State(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	writeJSON(w, http.StatusOK, stateOf(sess.Form()))
}

// ChangeField handles POST /booking/fields.
func (h *BookingHandler) ChangeField(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req FieldChangeRequest
	if wantsJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form body"})
			return
		}
		req.Field = r.PostForm.Get("field")
		req.Value = r.PostForm.Get("value")
	}

	if err := sess.Form().Change(req.Field, req.Value); err != nil {
		h.observeChange(false)
		h.logger.Warn("field change rejected", "session_id", sess.ID, "field", req.Field, "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: changeErrorMessage(err)})
		return
	}
	h.observeChange(true)
	writeJSON(w, http.StatusOK, stateOf(sess.Form()))
}

// Submit handles POST /booking/submit. Posted form fields are applied before
// the submit runs, so a plain HTML form post works as well as a client that
// sent each change to /booking/fields.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	asJSON := wantsJSON(r)

	values, err := postedValues(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(values) > 0 {
		if err := sess.Form().ChangeAll(values); err != nil {
			h.observeChange(false)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: changeErrorMessage(err)})
			return
		}
		h.observeChange(true)
	}

	status, err := sess.Controller.Submit(r.Context())

	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		if asJSON {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: verr.Fields})
			return
		}
		data, current := sess.Form().State()
		h.renderPage(w, http.StatusUnprocessableEntity, render.NewViewWithErrors(data, current, verr.Fields))
		return
	case errors.Is(err, booking.ErrSubmitInProgress):
		if asJSON {
			writeJSON(w, http.StatusConflict, stateOf(sess.Form()))
			return
		}
		data, current := sess.Form().State()
		h.renderPage(w, http.StatusConflict, render.NewView(data, current))
		return
	}

	if asJSON {
		code := http.StatusOK
		if status == booking.StatusError {
			code = http.StatusBadGateway
		}
		writeJSON(w, code, stateOf(sess.Form()))
		return
	}
	data, current := sess.Form().State()
	h.renderPage(w, http.StatusOK, render.NewView(data, current))
}

func (h *BookingHandler) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(h.cookieName); err == nil {
		id = c.Value
	}
	sess, created := h.store.GetOrCreate(id)
	if created {
		cookie := &http.Cookie{
			Name:     h.cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if h.secureCookie {
			cookie.Secure = true
			cookie.SameSite = http.SameSiteNoneMode
		}
		http.SetCookie(w, cookie)
		h.logger.Debug("booking session created", "session_id", sess.ID)
	}
	return sess
}

func (h *BookingHandler) renderPage(w http.ResponseWriter, status int, view render.View) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, render.Page{View: view, Action: h.submitPath}); err != nil {
		h.logger.Error("failed to render booking page", "error", err)
	}
}

func (h *BookingHandler) observeChange(accepted bool) {
	if h.changes != nil {
		h.changes.ObserveFieldChange(accepted)
	}
}

func stateOf(form *booking.Form) StateResponse {
	data, status := form.State()
	return StateResponse{
		Data:   data,
		Status: status,
		View:   render.NewView(data, status),
	}
}

func postedValues(r *http.Request) (map[string][]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, err
		}
		values := make(map[string][]string, len(body))
		for k, v := range body {
			values[k] = []string{v}
		}
		return values, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

func changeErrorMessage(err error) string {
	switch {
	case errors.Is(err, booking.ErrUnknownField):
		return "unknown field"
	case errors.Is(err, booking.ErrInvalidReferral):
		return "referral must be one of the listed options"
	default:
		return "invalid change"
	}
}
