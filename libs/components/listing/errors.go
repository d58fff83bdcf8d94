package listing

import (
	"errors"
	"strings"
)

var (
	// ErrSubmitInFlight rejects a submission while another is outstanding.
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	// ErrUnknownField rejects an edit to a path the form does not have.
	ErrUnknownField = errors.New("unknown field")
	// ErrFormClosed is returned once a form has been submitted or discarded.
	ErrFormClosed = errors.New("form is no longer editable")
	// ErrLastFounder refuses to remove the only remaining founder.
	ErrLastFounder = errors.New("at least one founder entry must remain")
	// ErrIndexOutOfRange reports a list operation against a missing entry.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// ErrorMap holds the current validation message for each field path.
type ErrorMap map[string]string

// Clear drops the entry for one field path.
func (m ErrorMap) Clear(key string) {
	delete(m, key)
}

// ReplaceSection removes every entry owned by section, then merges fresh.
// Entries of other sections are left alone.
func (m ErrorMap) ReplaceSection(section Section, fresh map[string]string) {
	for key := range m {
		if section.Owns(key) {
			delete(m, key)
		}
	}
	for key, msg := range fresh {
		m[key] = msg
	}
}

// Clone copies the map.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ValidationFailure is returned by a submission whose full sweep failed.
type ValidationFailure struct {
	Sections []Section
	Errors   ErrorMap
}

func (f *ValidationFailure) Error() string {
	titles := make([]string, 0, len(f.Sections))
	for _, s := range f.Sections {
		titles = append(titles, s.Title())
	}
	return "Please fix errors in: " + strings.Join(titles, ", ")
}
