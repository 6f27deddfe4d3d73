package render

import "github.com/wolfman30/mojito-booking/internal/booking"

const (
	LabelConfirm    = "Confirm Reservation"
	LabelProcessing = "Processing..."

	BannerSuccessText = "Booking received! We will confirm your reservation shortly."
	BannerErrorText   = "Something went wrong. Please try again or call us directly."
)

// BannerKind selects the feedback box shown under the submit control.
type BannerKind string

const (
	BannerNone    BannerKind = ""
	BannerSuccess BannerKind = "success"
	BannerError   BannerKind = "error"
)

// InputField describes one rendered control bound to a form field.
type InputField struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value"`
	Error       string `json:"error,omitempty"`
}

// Option is one entry of the referral select.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// View is everything the presentation layer needs to draw the booking section.
type View struct {
	Status         booking.Status `json:"status"`
	Fields         []InputField   `json:"fields"`
	Referrals      []Option       `json:"referrals"`
	SubmitLabel    string         `json:"submit_label"`
	SubmitDisabled bool           `json:"submit_disabled"`
	Busy           bool           `json:"busy"`
	Banner         BannerKind     `json:"banner,omitempty"`
	BannerText     string         `json:"banner_text,omitempty"`
}

type fieldSpec struct {
	field       booking.Field
	label       string
	inputType   string
	required    bool
	placeholder string
}

var fieldSpecs = []fieldSpec{
	{booking.FieldName, "Name *", "text", true, "John Doe"},
	{booking.FieldPhone, "Phone Number *", "tel", true, "(555) 123-4567"},
	{booking.FieldEmail, "Email *", "email", true, "john@example.com"},
	{booking.FieldDateTime, "Date & Time *", "datetime-local", true, ""},
	{booking.FieldReferral, "How did you hear about us?", "select", false, ""},
	{booking.FieldOrder, "Your Order (Optional)", "textarea", false, "Any specific cocktails or dietary requirements?"},
}

// NewView maps form data and status onto the presentation contract. It has no
// side effects.
func NewView(data booking.FormData, status booking.Status) View {
	return NewViewWithErrors(data, status, nil)
}

// NewViewWithErrors is NewView plus inline messages for fields that blocked
// a submit.
func NewViewWithErrors(data booking.FormData, status booking.Status, fieldErrors map[string]string) View {
	v := View{
		Status:      status,
		SubmitLabel: LabelConfirm,
	}
	for _, spec := range fieldSpecs {
		v.Fields = append(v.Fields, InputField{
			ID:          string(spec.field),
			Label:       spec.label,
			Type:        spec.inputType,
			Required:    spec.required,
			Placeholder: spec.placeholder,
			Value:       data.Get(spec.field),
			Error:       fieldErrors[string(spec.field)],
		})
	}
	for _, r := range booking.Referrals() {
		v.Referrals = append(v.Referrals, Option{
			Value:    string(r),
			Label:    r.Label(),
			Selected: string(r) == data.Referral,
		})
	}

	switch status {
	case booking.StatusSubmitting:
		v.SubmitDisabled = true
		v.Busy = true
		v.SubmitLabel = LabelProcessing
	case booking.StatusSuccess:
		v.Banner = BannerSuccess
		v.BannerText = BannerSuccessText
	case booking.StatusError:
		v.Banner = BannerError
		v.BannerText = BannerErrorText
	}
	return v
}

// Field returns the descriptor for id.
func (v View) Field(id string) (InputField, bool) {
	for _, f := range v.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return InputField{}, false
}
