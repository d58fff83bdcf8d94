package listing

// Mode distinguishes a new listing from an edit of a persisted one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// StatusTracker records whether each section last validated clean.
//
// Defaults differ by mode: in create mode only the all-optional sections start
// valid, in edit mode every section starts valid until re-validated. A
// never-visited section therefore keeps its default, which is why submission
// always re-sweeps instead of trusting AllValid.
type StatusTracker struct {
	flags map[Section]bool
}

// NewStatusTracker returns a tracker holding the defaults for mode.
func NewStatusTracker(mode Mode) *StatusTracker {
	t := &StatusTracker{flags: make(map[Section]bool, len(Sections))}
	for _, s := range Sections {
		t.flags[s] = mode == ModeEdit || s.Optional()
	}
	return t
}

// Set records the status of one section.
func (t *StatusTracker) Set(section Section, valid bool) {
	t.flags[section] = valid
}

// Get returns the recorded status of one section.
func (t *StatusTracker) Get(section Section) bool {
	return t.flags[section]
}

// AllValid is the conjunction of every section flag.
func (t *StatusTracker) AllValid() bool {
	for _, s := range Sections {
		if !t.flags[s] {
			return false
		}
	}
	return true
}

// Snapshot copies the flags.
func (t *StatusTracker) Snapshot() map[Section]bool {
	out := make(map[Section]bool, len(t.flags))
	for k, v := range t.flags {
		out[k] = v
	}
	return out
}
