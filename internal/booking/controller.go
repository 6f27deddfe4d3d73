package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/mojito-booking/pkg/logging"
)

// Sender delivers a booking snapshot to the automation webhook. A nil error
// means the webhook acknowledged with a 2xx status; a *RemoteRejectedError
// means it answered with anything else; any other error is a transport failure.
type Sender interface {
	Send(ctx context.Context, data FormData) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, data FormData) error

func (fn SenderFunc) Send(ctx context.Context, data FormData) error {
	return fn(ctx, data)
}

// Recorder receives one observation per submit attempt.
type Recorder interface {
	ObserveSubmission(outcome string, seconds float64)
}

// Controller runs the submit state machine for one Form.
type Controller struct {
	form     *Form
	sender   Sender
	logger   *logging.Logger
	recorder Recorder
}

// ControllerOption customises a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *logging.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) ControllerOption {
	return func(c *Controller) {
		c.recorder = r
	}
}

// NewController binds a form to the sender that delivers its submissions.
func NewController(form *Form, sender Sender, opts ...ControllerOption) *Controller {
	if form == nil {
		panic("booking: form required")
	}
	if sender == nil {
		panic("booking: sender required")
	}
	c := &Controller{
		form:   form,
		sender: sender,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Form returns the form this controller drives.
func (c *Controller) Form() *Form {
	return c.form
}

// Submit validates the form, sends it once and records the outcome.
//
// A validation failure or a submit already in flight returns an error without
// any status change. Otherwise the returned status is success or error, and
// the returned error (if any) describes the failure for diagnostics only.
// Caller cancellation does not abort a request once it has been issued.
func (c *Controller) Submit(ctx context.Context) (Status, error) {
	start := time.Now()
	snapshot, err := c.form.beginSubmit(Validate)
	if err != nil {
		c.observe(err, start)
		return c.form.Status(), err
	}

	sendErr := c.send(context.WithoutCancel(ctx), snapshot)
	status := c.form.finishSubmit(sendErr == nil)
	c.observe(sendErr, start)

	var rejected *RemoteRejectedError
	switch {
	case sendErr == nil:
		c.logger.Info("booking submitted", "referral", snapshot.Referral, "date_time", snapshot.DateTime)
	case errors.As(sendErr, &rejected):
		c.logger.Warn("booking rejected by webhook", "status", rejected.StatusCode, "body", rejected.Body)
	default:
		c.logger.Error("error submitting form", "error", sendErr)
	}
	return status, sendErr
}

func (c *Controller) observe(err error, start time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.ObserveSubmission(Classify(err), time.Since(start).Seconds())
}

// send calls the sender, turning a panic into a transport failure so the form
// always leaves submitting.
func (c *Controller) send(ctx context.Context, data FormData) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: sender panic: %v", ErrTransportFailure, r)
		}
	}()
	return c.sender.Send(ctx, data)
}
