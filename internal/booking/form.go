package booking

import (
	"fmt"
	"strings"
)

// Field identifies one input of the booking form. The string value doubles as
// the query-string key sent to the webhook.
type Field string

const (
	FieldName     Field = "name"
	FieldPhone    Field = "phone"
	FieldEmail    Field = "email"
	FieldDateTime Field = "dateTime"
	FieldOrder    Field = "order"
	FieldReferral Field = "referral"
)

var fieldOrder = []Field{FieldName, FieldPhone, FieldEmail, FieldDateTime, FieldOrder, FieldReferral}

// Fields returns every form field in canonical order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// ParseField resolves a field identifier coming from an input's name attribute.
func ParseField(name string) (Field, error) {
	for _, f := range fieldOrder {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

func (f Field) valid() bool {
	_, err := ParseField(string(f))
	return err == nil
}

// Referral is the "How did you hear about us?" answer.
type Referral string

const (
	ReferralFacebook    Referral = "Facebook"
	ReferralInstagram   Referral = "Instagram"
	ReferralAssistant   Referral = "ChatGPT/Gemini"
	ReferralWordOfMouth Referral = "Word of mouth"
	ReferralOther       Referral = "Other"

	DefaultReferral = ReferralFacebook
)

var referralOrder = []Referral{ReferralFacebook, ReferralInstagram, ReferralAssistant, ReferralWordOfMouth, ReferralOther}

// Referrals returns the selectable referral sources in display order.
func Referrals() []Referral {
	out := make([]Referral, len(referralOrder))
	copy(out, referralOrder)
	return out
}

// IsValid reports whether r is one of the selectable sources.
func (r Referral) IsValid() bool {
	for _, candidate := range referralOrder {
		if r == candidate {
			return true
		}
	}
	return false
}

// Label is the human readable option text.
func (r Referral) Label() string {
	if r == ReferralAssistant {
		return strings.ReplaceAll(string(r), "/", " / ")
	}
	return string(r)
}

// FormData is the reservation request collected by the form.
type FormData struct {
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	DateTime string `json:"dateTime" validate:"required,datetime_local"`
	Order    string `json:"order"`
	Referral string `json:"referral" validate:"referral"`
}

// DefaultFormData is the snapshot a fresh or successfully submitted form holds.
func DefaultFormData() FormData {
	return FormData{Referral: string(DefaultReferral)}
}

// Get returns the value stored for field. Unknown fields yield "".
func (d FormData) Get(field Field) string {
	switch field {
	case FieldName:
		return d.Name
	case FieldPhone:
		return d.Phone
	case FieldEmail:
		return d.Email
	case FieldDateTime:
		return d.DateTime
	case FieldOrder:
		return d.Order
	case FieldReferral:
		return d.Referral
	}
	return ""
}

// With returns a copy of d with field replaced by value. A referral outside
// Referrals() is rejected with ErrInvalidReferral.
func (d FormData) With(field Field, value string) (FormData, error) {
	switch field {
	case FieldName:
		d.Name = value
	case FieldPhone:
		d.Phone = value
	case FieldEmail:
		d.Email = value
	case FieldDateTime:
		d.DateTime = value
	case FieldOrder:
		d.Order = value
	case FieldReferral:
		if !Referral(value).IsValid() {
			return d, fmt.Errorf("%w: %q", ErrInvalidReferral, value)
		}
		d.Referral = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, string(field))
	}
	return d, nil
}

// Map returns the form as field name -> value with all six keys present.
func (d FormData) Map() map[string]string {
	out := make(map[string]string, len(fieldOrder))
	for _, f := range fieldOrder {
		out[string(f)] = d.Get(f)
	}
	return out
}
