package booking

import (
	"fmt"
	"sync"
)

// Observer is notified after every mutation of a Form with the new snapshot
// and status. Presentation layers use it to redraw.
type Observer func(FormData, Status)

// Form holds the booking fields and submission status for one visitor.
type Form struct {
	mu        sync.Mutex
	data      FormData
	status    Status
	observers []Observer
}

// NewForm returns an idle form holding the default values.
func NewForm() *Form {
	return &Form{
		data:   DefaultFormData(),
		status: StatusIdle,
	}
}

// Snapshot returns a copy of the current field values.
func (f *Form) Snapshot() FormData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

// Get returns the current value of a single field.
func (f *Form) Get(field Field) string {
	return f.Snapshot().Get(field)
}

// Status returns the current submission status.
func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// State returns the field values and status as one consistent pair.
func (f *Form) State() (FormData, Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, f.status
}

// Subscribe registers fn to run after each mutation.
func (f *Form) Subscribe(fn Observer) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	f.observers = append(f.observers, fn)
	f.mu.Unlock()
}

// Set replaces one field and leaves the rest untouched. Only unknown fields and
// referrals outside the allowed set are rejected; required and format rules
// are checked on submit.
func (f *Form) Set(field Field, value string) error {
	f.mu.Lock()
	next, err := f.data.With(field, value)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.data = next
	f.mu.Unlock()
	f.notify()
	return nil
}

// Change applies an input event: name is the input's name attribute and value
// its new content.
func (f *Form) Change(name, value string) error {
	field, err := ParseField(name)
	if err != nil {
		return err
	}
	return f.Set(field, value)
}

// ChangeAll applies every form field present in values, as sent by a full form
// post. Keys that are not form fields are ignored. Nothing is applied if any
// value is rejected.
func (f *Form) ChangeAll(values map[string][]string) error {
	f.mu.Lock()
	next := f.data
	changed := false
	for _, field := range fieldOrder {
		vs, ok := values[string(field)]
		if !ok || len(vs) == 0 {
			continue
		}
		var err error
		if next, err = next.With(field, vs[0]); err != nil {
			f.mu.Unlock()
			return err
		}
		changed = true
	}
	f.data = next
	f.mu.Unlock()
	if changed {
		f.notify()
	}
	return nil
}

// beginSubmit atomically checks the precondition and moves to submitting,
// returning the snapshot to send.
func (f *Form) beginSubmit(check func(FormData) error) (FormData, error) {
	f.mu.Lock()
	if f.status == StatusSubmitting {
		f.mu.Unlock()
		return FormData{}, ErrSubmitInProgress
	}
	if check != nil {
		if err := check(f.data); err != nil {
			f.mu.Unlock()
			return FormData{}, err
		}
	}
	if err := f.transitionLocked(StatusSubmitting); err != nil {
		f.mu.Unlock()
		return FormData{}, err
	}
	snapshot := f.data
	f.mu.Unlock()
	f.notify()
	return snapshot, nil
}

// finishSubmit records the outcome of the in-flight request. Success resets
// the fields; failure keeps them for correction.
func (f *Form) finishSubmit(ok bool) Status {
	f.mu.Lock()
	to := StatusError
	if ok {
		to = StatusSuccess
	}
	if err := f.transitionLocked(to); err != nil {
		f.mu.Unlock()
		return f.Status()
	}
	if ok {
		f.data = DefaultFormData()
	}
	f.mu.Unlock()
	f.notify()
	return to
}

func (f *Form) transitionLocked(to Status) error {
	if !CanTransition(f.status, to) {
		return fmt.Errorf("booking: illegal transition %s -> %s", f.status, to)
	}
	f.status = to
	return nil
}

func (f *Form) notify() {
	f.mu.Lock()
	data, status := f.data, f.status
	observers := make([]Observer, len(f.observers))
	copy(observers, f.observers)
	f.mu.Unlock()
	for _, fn := range observers {
		fn(data, status)
	}
}
