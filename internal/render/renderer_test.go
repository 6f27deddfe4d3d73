package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/mojito-booking/internal/booking"
)

func renderPage(t *testing.T, data booking.FormData, status booking.Status) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Page{View: NewView(data, status), Action: "/booking/submit"}))
	return buf.String()
}

func TestRenderIdle(t *testing.T) {
	html := renderPage(t, booking.DefaultFormData(), booking.StatusIdle)

	assert.Contains(t, html, `<form method="post" action="/booking/submit"`)
	assert.Contains(t, html, `<input type="text" id="name" name="name" value="" placeholder="John Doe" required>`)
	assert.Contains(t, html, `<input type="datetime-local" id="dateTime" name="dateTime" value="" required>`)
	assert.Contains(t, html, `<option value="Facebook" selected>Facebook</option>`)
	assert.Contains(t, html, `>Confirm Reservation</button>`)
	assert.NotContains(t, html, "disabled")
	assert.NotContains(t, html, "banner-")
}

func TestRenderSubmitting(t *testing.T) {
	html := renderPage(t, sampleData(), booking.StatusSubmitting)

	assert.Contains(t, html, `<button type="submit" disabled>`)
	assert.Contains(t, html, `Processing...</button>`)
	assert.Contains(t, html, `class="spinner"`)
}

func TestRenderBanners(t *testing.T) {
	success := renderPage(t, booking.DefaultFormData(), booking.StatusSuccess)
	assert.Contains(t, success, BannerSuccessText)
	assert.NotContains(t, success, BannerErrorText)

	failed := renderPage(t, sampleData(), booking.StatusError)
	assert.Contains(t, failed, BannerErrorText)
	assert.Contains(t, failed, `value="Jane Doe"`)
	assert.Contains(t, failed, `<option value="Instagram" selected>Instagram</option>`)
}

func TestRenderEscapesInput(t *testing.T) {
	data := sampleData()
	data.Name = `"><script>alert(1)</script>`
	data.Order = "</textarea><b>x</b>"
	html := renderPage(t, data, booking.StatusError)

	assert.False(t, strings.Contains(html, "<script>alert(1)</script>"))
	assert.False(t, strings.Contains(html, "<b>x</b>"))
	assert.Contains(t, html, "&lt;script&gt;")
}
