package booking

import (
	"fmt"
	"net/url"
	"strings"
)

// Encode serializes data as an application/x-www-form-urlencoded query string
// byte for byte as a browser's URLSearchParams does. All six keys are emitted
// in form order, including empty ones.
func Encode(data FormData) string {
	var b strings.Builder
	for i, f := range fieldOrder {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(formEscape(string(f)))
		b.WriteByte('=')
		b.WriteString(formEscape(data.Get(f)))
	}
	return b.String()
}

// Decode parses a query string produced by Encode. Every form key must be
// present and no other keys are accepted.
func Decode(query string) (FormData, error) {
	values, err := url.ParseQuery(query)
	if err != nil {
		return FormData{}, fmt.Errorf("booking: parse query: %w", err)
	}
	var data FormData
	for key := range values {
		if _, err := ParseField(key); err != nil {
			return FormData{}, err
		}
	}
	for _, f := range fieldOrder {
		vs, ok := values[string(f)]
		if !ok || len(vs) == 0 {
			return FormData{}, fmt.Errorf("booking: query missing key %q", string(f))
		}
		if data, err = data.With(f, vs[0]); err != nil {
			return FormData{}, err
		}
	}
	return data, nil
}

const upperHex = "0123456789ABCDEF"

// formEscape applies the WHATWG urlencoded byte serializer: ASCII
// alphanumerics and "*-._" pass through, space becomes "+" and every other
// UTF-8 byte is percent-encoded. url.QueryEscape differs on "*" and "~".
func formEscape(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '*', c == '-', c == '.', c == '_':
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&15])
		}
	}
	return b.String()
}
