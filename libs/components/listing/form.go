package listing

import "sync"

// ValidationHook observes every section validation a form performs.
type ValidationHook func(section Section, result Result)

// Form owns one listing being edited: the record, its error map, section
// statuses, and the queue of sections waiting to be re-validated.
//
// Field edits are two-phase. Edit commits the mutation and clears the field's
// stale error; the owning section is queued and only re-validated by Settle,
// so validation always observes the post-edit record.
type Form struct {
	mu sync.Mutex

	mode       Mode
	record     Startup
	errors     ErrorMap
	status     *StatusTracker
	active     Section
	pending    []Section
	hydrating  bool
	submitting bool
	closed     bool
	lastError  string

	hook ValidationHook
}

// FormOption customises a form.
type FormOption func(*Form)

// WithValidationHook registers a callback run after every section validation.
func WithValidationHook(hook ValidationHook) FormOption {
	return func(f *Form) {
		f.hook = hook
	}
}

// NewCreateForm starts an empty listing.
func NewCreateForm(opts ...FormOption) *Form {
	return newForm(ModeCreate, NewStartup(), opts)
}

// NewEditForm hydrates a form from a persisted listing. The hydration pass
// validates every section as an initial load, so nothing is flagged until the
// user changes a field.
func NewEditForm(existing Startup, opts ...FormOption) *Form {
	rec := existing.Clone()
	if len(rec.Founders) == 0 {
		rec.Founders = []Founder{{}}
	}
	f := newForm(ModeEdit, rec, opts)
	f.hydrating = true
	f.validateAllLocked(true)
	return f
}

func newForm(mode Mode, rec Startup, opts []FormOption) *Form {
	f := &Form{
		mode:   mode,
		record: rec,
		errors: ErrorMap{},
		status: NewStatusTracker(mode),
		active: SectionBasic,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Edit applies one field change. Unknown paths return ErrUnknownField and a
// closed form returns ErrFormClosed; neither changes anything.
//
// The edited path's error is always gone when Edit returns. Trigger fields
// recompute the basic section's status at once, but the edited path's own
// message only comes back with the Settle that follows.
func (f *Form) Edit(path, raw string) error {
	p, ok := ParseFieldPath(path)
	if !ok {
		return ErrUnknownField
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}

	key := p.String()
	f.record = ApplyEdit(f.record, p, raw)
	f.errors.Clear(key)
	f.hydrating = false

	if p.Trigger() {
		f.applyLocked(SectionBasic, Validate(SectionBasic, f.record, false), key)
	}
	f.enqueueLocked(p.Section())
	return nil
}

// Settle runs every queued section validation and returns their results.
func (f *Form) Settle() map[Section]Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	results := make(map[Section]Result, len(f.pending))
	for _, s := range f.pending {
		results[s] = f.validateLocked(s, f.hydrating)
	}
	f.pending = f.pending[:0]
	return results
}

// Pending lists sections queued for re-validation.
func (f *Form) Pending() []Section {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Section(nil), f.pending...)
}

// ValidateSection re-validates one section now.
func (f *Form) ValidateSection(section Section) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked(section, f.hydrating)
}

// ValidateForm sweeps every section, ignoring the hydration shortcut, and
// returns the sections that failed in navigation order.
func (f *Form) ValidateForm() []Section {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateAllLocked(false)
}

// Navigate moves the active tab. The current section is validated first;
// moving forward out of an invalid section is refused, moving back never is.
func (f *Form) Navigate(to Section) (bool, Result) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := f.validateLocked(f.active, f.hydrating)
	if to.order() > f.active.order() && !result.Valid {
		return false, result
	}
	f.active = to
	return true, result
}

// AddFounder appends a blank founder.
func (f *Form) AddFounder() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	f.record.Founders = append(f.record.Founders, Founder{})
	f.enqueueLocked(SectionFounders)
	return nil
}

// RemoveFounder drops the founder at index; the last founder cannot be removed.
func (f *Form) RemoveFounder(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	if index < 0 || index >= len(f.record.Founders) {
		return ErrIndexOutOfRange
	}
	if len(f.record.Founders) == 1 {
		return ErrLastFounder
	}
	f.record.Founders = append(f.record.Founders[:index:index], f.record.Founders[index+1:]...)
	f.hydrating = false
	f.enqueueLocked(SectionFounders)
	return nil
}

// AddFundingRound appends a blank funding round.
func (f *Form) AddFundingRound() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	f.record.FundingRounds = append(f.record.FundingRounds, FundingRound{Investors: []string{}})
	f.enqueueLocked(SectionFunding)
	return nil
}

// RemoveFundingRound drops the funding round at index.
func (f *Form) RemoveFundingRound(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	if index < 0 || index >= len(f.record.FundingRounds) {
		return ErrIndexOutOfRange
	}
	f.record.FundingRounds = append(f.record.FundingRounds[:index:index], f.record.FundingRounds[index+1:]...)
	f.hydrating = false
	f.enqueueLocked(SectionFunding)
	return nil
}

// Record returns a copy of the current record.
func (f *Form) Record() Startup {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record.Clone()
}

// Errors returns a copy of the current error map.
func (f *Form) Errors() ErrorMap {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// AllValid reports the accumulated section flags. It is not a substitute for
// ValidateForm.
func (f *Form) AllValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status.AllValid()
}

// Close tears the form down. Later edits are ignored and late submission
// results are discarded.
func (f *Form) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

// Snapshot is a consistent, copy-only view of the form.
type Snapshot struct {
	Mode          Mode             `json:"mode"`
	Record        Startup          `json:"record"`
	Errors        ErrorMap         `json:"errors"`
	Sections      map[Section]bool `json:"sections"`
	ActiveSection Section          `json:"activeSection"`
	AllValid      bool             `json:"allValid"`
	Submitting    bool             `json:"submitting"`
	Closed        bool             `json:"closed"`
	Error         string           `json:"error,omitempty"`
}

// Snapshot copies the form state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Mode:          f.mode,
		Record:        f.record.Clone(),
		Errors:        f.errors.Clone(),
		Sections:      f.status.Snapshot(),
		ActiveSection: f.active,
		AllValid:      f.status.AllValid(),
		Submitting:    f.submitting,
		Closed:        f.closed,
		Error:         f.lastError,
	}
}

// DismissError clears the last submission error.
func (f *Form) DismissError() {
	f.mu.Lock()
	f.lastError = ""
	f.mu.Unlock()
}

// beginSubmit runs the full sweep and, when it passes, marks the form as
// submitting and returns the record to send.
func (f *Form) beginSubmit() (Startup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return Startup{}, ErrFormClosed
	}
	if f.submitting {
		return Startup{}, ErrSubmitInFlight
	}

	if failed := f.validateAllLocked(false); len(failed) > 0 {
		errs := ErrorMap{}
		for key, msg := range f.errors {
			for _, s := range failed {
				if s.Owns(key) {
					errs[key] = msg
				}
			}
		}
		return Startup{}, &ValidationFailure{Sections: failed, Errors: errs}
	}

	f.submitting = true
	f.lastError = ""
	return f.record.Clone(), nil
}

// finishSubmit releases the in-flight guard. A successful save closes the
// form; a failed one leaves it editable with the error recorded. Results for
// a form closed in the meantime are dropped.
func (f *Form) finishSubmit(saved Startup, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.submitting = false
	if f.closed {
		return
	}
	if err != nil {
		f.lastError = err.Error()
		return
	}
	f.record.ID = saved.ID
	f.closed = true
}

func (f *Form) enqueueLocked(section Section) {
	for _, s := range f.pending {
		if s == section {
			return
		}
	}
	f.pending = append(f.pending, section)
}

func (f *Form) validateLocked(section Section, initial bool) Result {
	result := Validate(section, f.record, initial)
	f.applyLocked(section, result, "")
	return result
}

// applyLocked records result for section. A non-empty skip keeps that path
// out of the error map.
func (f *Form) applyLocked(section Section, result Result, skip string) {
	fresh := result.Errors
	if _, ok := fresh[skip]; ok && skip != "" {
		fresh = make(map[string]string, len(result.Errors))
		for key, msg := range result.Errors {
			if key != skip {
				fresh[key] = msg
			}
		}
	}
	f.errors.ReplaceSection(section, fresh)
	f.status.Set(section, result.Valid)
	if f.hook != nil {
		f.hook(section, result)
	}
}

func (f *Form) validateAllLocked(initial bool) []Section {
	var failed []Section
	for _, s := range Sections {
		if !f.validateLocked(s, initial).Valid {
			failed = append(failed, s)
		}
	}
	return failed
}
