package listing

import "strings"

// Section names one tab of the listing form.
type Section string

const (
	SectionBasic    Section = "basic"
	SectionLocation Section = "location"
	SectionMetrics  Section = "metrics"
	SectionSocial   Section = "social"
	SectionFounders Section = "founders"
	SectionFunding  Section = "funding"
)

// Sections lists every section in navigation order.
var Sections = []Section{
	SectionBasic,
	SectionLocation,
	SectionMetrics,
	SectionSocial,
	SectionFounders,
	SectionFunding,
}

var sectionTitles = map[Section]string{
	SectionBasic:    "Basic Information",
	SectionLocation: "Location",
	SectionMetrics:  "Metrics",
	SectionSocial:   "Social Profiles",
	SectionFounders: "Founders",
	SectionFunding:  "Funding History",
}

// Top-level keys owned by the basic and location sections.
var (
	basicKeys = map[string]struct{}{
		"name": {}, "tagline": {}, "description": {}, "website": {}, "logo": {},
		"foundingDate": {}, "category": {}, "subCategory": {}, "stage": {}, "products": {},
	}
	locationKeys = map[string]struct{}{"country": {}, "city": {}}
)

// ParseSection maps a wire name to a Section.
func ParseSection(raw string) (Section, bool) {
	s := Section(strings.TrimSpace(raw))
	_, ok := sectionTitles[s]
	return s, ok
}

// Title is the human-readable name used in aggregated messages.
func (s Section) Title() string {
	return sectionTitles[s]
}

// Optional reports whether every field of the section is optional, which makes
// it valid by default in create mode.
func (s Section) Optional() bool {
	return s == SectionMetrics || s == SectionSocial || s == SectionFunding
}

func (s Section) order() int {
	for i, candidate := range Sections {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Owns reports whether an error key belongs to the section.
func (s Section) Owns(key string) bool {
	switch s {
	case SectionBasic:
		_, ok := basicKeys[key]
		return ok
	case SectionLocation:
		_, ok := locationKeys[key]
		return ok
	case SectionMetrics:
		return strings.HasPrefix(key, "metrics.")
	case SectionSocial:
		return strings.HasPrefix(key, "socialProfiles.")
	case SectionFounders:
		return key == "founders" || strings.HasPrefix(key, "founders[")
	case SectionFunding:
		return key == "fundingRounds" || strings.HasPrefix(key, "fundingRounds[")
	}
	return false
}
