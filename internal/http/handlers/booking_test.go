package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/mojito-booking/internal/booking"
	"github.com/wolfman30/mojito-booking/internal/render"
	"github.com/wolfman30/mojito-booking/internal/session"
	"github.com/wolfman30/mojito-booking/pkg/logging"
)

type fakeSender struct {
	mu    sync.Mutex
	calls []booking.FormData
	err   error
	hook  func()
}

func (s *fakeSender) Send(_ context.Context, data booking.FormData) error {
	if s.hook != nil {
		s.hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, data)
	return s.err
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type changeCounter struct {
	accepted, rejected int
}

func (c *changeCounter) ObserveFieldChange(accepted bool) {
	if accepted {
		c.accepted++
		return
	}
	c.rejected++
}

func newBookingServer(t *testing.T, sender booking.Sender) (http.Handler, *changeCounter) {
	t.Helper()
	renderer, err := render.NewRenderer()
	require.NoError(t, err)
	store := session.NewStore(time.Hour, func(form *booking.Form) *booking.Controller {
		return booking.NewController(form, sender)
	})
	counter := &changeCounter{}
	h := NewBookingHandler(BookingHandlerConfig{
		Store:    store,
		Renderer: renderer,
		Logger:   logging.Default(),
		Changes:  counter,
	})
	return h.Routes(), counter
}

func scenarioForm() url.Values {
	return url.Values{
		"name":     {"Jane Doe"},
		"phone":    {"555-0100"},
		"email":    {"jane@x.com"},
		"dateTime": {"2024-12-31T20:00"},
		"order":    {""},
		"referral": {"Instagram"},
	}
}

func do(t *testing.T, h http.Handler, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "booking_session" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) StateResponse {
	t.Helper()
	var state StateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	return state
}

func TestPageIssuesSessionAndRendersForm(t *testing.T) {
	h, _ := newBookingServer(t, &fakeSender{})

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Confirm Reservation")
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	again := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil), cookie)
	assert.Empty(t, again.Result().Cookies(), "existing session must be reused")
}

func TestChangeFieldUpdatesOnlyThatField(t *testing.T) {
	h, counter := newBookingServer(t, &fakeSender{})
	first := do(t, h, httptest.NewRequest(http.MethodGet, "/state", nil), nil)
	cookie := sessionCookie(t, first)

	req := httptest.NewRequest(http.MethodPost, "/fields", strings.NewReader(`{"field":"name","value":"Jane Doe"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, h, req, cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.Equal(t, booking.FormData{Name: "Jane Doe", Referral: "Facebook"}, state.Data)
	assert.Equal(t, booking.StatusIdle, state.Status)
	assert.Equal(t, 1, counter.accepted)

	form := url.Values{"field": {"referral"}, "value": {"Word of mouth"}}
	req = httptest.NewRequest(http.MethodPost, "/fields", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = do(t, h, req, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Word of mouth", decodeState(t, rec).Data.Referral)
}

func TestChangeFieldRejectsUnknownFieldAndReferral(t *testing.T) {
	h, counter := newBookingServer(t, &fakeSender{})

	for _, body := range []string{`{"field":"guests","value":"4"}`, `{"field":"referral","value":"Billboard"}`, `{`} {
		req := httptest.NewRequest(http.MethodPost, "/fields", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := do(t, h, req, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Equal(t, 2, counter.rejected)
}

func TestSubmitFormPostSuccess(t *testing.T) {
	sender := &fakeSender{}
	h, _ := newBookingServer(t, sender)

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(scenarioForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, h, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, render.BannerSuccessText)
	assert.NotContains(t, body, "Jane Doe", "fields reset after success")
	require.Equal(t, 1, sender.count())
	assert.Equal(t, booking.FormData{
		Name: "Jane Doe", Phone: "555-0100", Email: "jane@x.com",
		DateTime: "2024-12-31T20:00", Order: "", Referral: "Instagram",
	}, sender.calls[0])

	state := decodeState(t, do(t, h, httptest.NewRequest(http.MethodGet, "/state", nil), sessionCookie(t, rec)))
	assert.Equal(t, booking.StatusSuccess, state.Status)
	assert.Equal(t, booking.DefaultFormData(), state.Data)
}

func TestSubmitJSONRemoteRejected(t *testing.T) {
	sender := &fakeSender{err: &booking.RemoteRejectedError{StatusCode: 500}}
	h, _ := newBookingServer(t, sender)

	body, _ := json.Marshal(map[string]string{
		"name": "Jane Doe", "phone": "555-0100", "email": "jane@x.com",
		"dateTime": "2024-12-31T20:00", "order": "", "referral": "Instagram",
	})
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, h, req, nil)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	state := decodeState(t, rec)
	assert.Equal(t, booking.StatusError, state.Status)
	assert.Equal(t, "Jane Doe", state.Data.Name)
	assert.Equal(t, render.BannerError, state.View.Banner)
	assert.False(t, state.View.SubmitDisabled)
}

func TestSubmitHTMLTransportFailureKeepsInput(t *testing.T) {
	sender := &fakeSender{err: errors.New("dial tcp: no such host")}
	h, _ := newBookingServer(t, sender)

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(scenarioForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, h, req, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), render.BannerErrorText)
	assert.Contains(t, rec.Body.String(), `value="Jane Doe"`)
	assert.NotContains(t, rec.Body.String(), "no such host")
}

func TestSubmitValidationBlocked(t *testing.T) {
	sender := &fakeSender{}
	h, _ := newBookingServer(t, sender)

	form := scenarioForm()
	form.Set("email", "not-an-email")
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := do(t, h, req, nil)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Fields, "email")
	assert.Equal(t, 0, sender.count())

	state := decodeState(t, do(t, h, httptest.NewRequest(http.MethodGet, "/state", nil), sessionCookie(t, rec)))
	assert.Equal(t, booking.StatusIdle, state.Status)
	assert.Equal(t, "not-an-email", state.Data.Email)
}

func TestSubmitValidationBlockedHTMLShowsInlineError(t *testing.T) {
	h, _ := newBookingServer(t, &fakeSender{})

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(url.Values{"name": {"Jane"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, h, req, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required")
	assert.Contains(t, rec.Body.String(), `value="Jane"`)
}

func TestSubmitRejectsInvalidReferral(t *testing.T) {
	sender := &fakeSender{}
	h, _ := newBookingServer(t, sender)

	form := scenarioForm()
	form.Set("referral", "Billboard")
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, h, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, sender.count())
}

func TestSubmitWhilePendingReturnsConflict(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	sender := &fakeSender{hook: func() {
		once.Do(func() { close(entered) })
		<-release
	}}
	h, _ := newBookingServer(t, sender)

	first := do(t, h, httptest.NewRequest(http.MethodGet, "/state", nil), nil)
	cookie := sessionCookie(t, first)

	done := make(chan int)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(scenarioForm().Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		done <- rec.Code
	}()
	<-entered

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Accept", "application/json")
	rec := do(t, h, req, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	state := decodeState(t, rec)
	assert.Equal(t, booking.StatusSubmitting, state.Status)
	assert.True(t, state.View.SubmitDisabled)
	assert.Equal(t, render.LabelProcessing, state.View.SubmitLabel)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
	assert.Equal(t, 1, sender.count())
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
