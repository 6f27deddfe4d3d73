package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/wolfman30/mojito-booking/internal/booking"
	"github.com/wolfman30/mojito-booking/internal/render"
)

// errAborted signals the visitor pressed Ctrl+C at a prompt.
var errAborted = errors.New("booking-cli: aborted")

type inputPrompt struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

type selectPrompt struct {
	Message      string
	Options      []string
	DefaultIndex int
}

// prompter abstracts the terminal so the flow can be tested without a TTY.
type prompter interface {
	Input(ctx context.Context, p inputPrompt) (string, error)
	Select(ctx context.Context, p selectPrompt) (int, error)
	TextArea(ctx context.Context, message, def string) (string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

type surveyPrompter struct {
	stdio terminal.Stdio
}

func (s *surveyPrompter) Input(ctx context.Context, p inputPrompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{Message: p.Message, Default: p.Default, Help: p.Help}
	opts := []survey.AskOpt{survey.WithStdio(s.stdio.In, s.stdio.Out, s.stdio.Err)}
	if p.Validator != nil {
		validate := p.Validator
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			value, _ := ans.(string)
			return validate(value)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (s *surveyPrompter) Select(ctx context.Context, p selectPrompt) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var out int
	prompt := &survey.Select{Message: p.Message, Options: p.Options}
	if p.DefaultIndex >= 0 && p.DefaultIndex < len(p.Options) {
		prompt.Default = p.Options[p.DefaultIndex]
	}
	if err := survey.AskOne(prompt, &out, survey.WithStdio(s.stdio.In, s.stdio.Out, s.stdio.Err)); err != nil {
		return 0, translateSurveyErr(err)
	}
	return out, nil
}

func (s *surveyPrompter) TextArea(ctx context.Context, message, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Multiline{Message: message, Default: def}
	if err := survey.AskOne(prompt, &out, survey.WithStdio(s.stdio.In, s.stdio.Out, s.stdio.Err)); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (s *surveyPrompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{Message: message, Default: def}
	if err := survey.AskOne(prompt, &out, survey.WithStdio(s.stdio.In, s.stdio.Out, s.stdio.Err)); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}

// fieldValidator checks one answer against the same rules the form applies
// on submit, ignoring every other field.
func fieldValidator(field booking.Field) func(string) error {
	return func(value string) error {
		data, err := booking.DefaultFormData().With(field, value)
		if err != nil {
			return err
		}
		var verr *booking.ValidationError
		if errors.As(booking.Validate(data), &verr) {
			if msg, ok := verr.Fields[string(field)]; ok {
				return errors.New(msg)
			}
		}
		return nil
	}
}

// fillForm prompts for every field the booking view lists, in display order,
// and applies each answer as a change event.
func fillForm(ctx context.Context, p prompter, form *booking.Form) error {
	view := render.NewView(form.State())
	for _, field := range view.Fields {
		var value string
		switch field.Type {
		case "select":
			labels := make([]string, len(view.Referrals))
			selected := 0
			for i, opt := range view.Referrals {
				labels[i] = opt.Label
				if opt.Selected {
					selected = i
				}
			}
			idx, err := p.Select(ctx, selectPrompt{Message: field.Label, Options: labels, DefaultIndex: selected})
			if err != nil {
				return err
			}
			if idx < 0 || idx >= len(view.Referrals) {
				return fmt.Errorf("booking-cli: referral choice %d out of range", idx)
			}
			value = view.Referrals[idx].Value
		case "textarea":
			answer, err := p.TextArea(ctx, field.Label, field.Value)
			if err != nil {
				return err
			}
			value = answer
		default:
			prompt := inputPrompt{Message: field.Label, Default: field.Value, Help: field.Placeholder}
			if field.Required {
				prompt.Validator = fieldValidator(booking.Field(field.ID))
			}
			answer, err := p.Input(ctx, prompt)
			if err != nil {
				return err
			}
			value = answer
		}
		if err := form.Change(field.ID, value); err != nil {
			return fmt.Errorf("booking-cli: %s: %w", field.ID, err)
		}
	}
	return nil
}

// run collects one reservation and submits it, offering a retry after a
// failed delivery. The form keeps its values between attempts.
func run(ctx context.Context, p prompter, controller *booking.Controller, out io.Writer) (booking.Status, error) {
	form := controller.Form()
	if err := fillForm(ctx, p, form); err != nil {
		return form.Status(), err
	}
	for {
		fmt.Fprintln(out, render.LabelProcessing)
		status, err := controller.Submit(ctx)
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			for field, msg := range verr.Fields {
				fmt.Fprintf(out, "%s: %s\n", field, msg)
			}
			if err := fillForm(ctx, p, form); err != nil {
				return form.Status(), err
			}
			continue
		}

		view := render.NewView(form.State())
		if view.BannerText != "" {
			fmt.Fprintln(out, view.BannerText)
		}
		if status != booking.StatusError {
			return status, nil
		}
		again, err := p.Confirm(ctx, "Try again?", true)
		if err != nil {
			return status, err
		}
		if !again {
			return status, nil
		}
	}
}
