package listing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FieldGroup selects which part of a Startup a FieldPath addresses.
type FieldGroup int

const (
	groupNone FieldGroup = iota
	GroupTop
	GroupMetrics
	GroupSocial
	GroupFounder
	GroupRound
)

// FieldPath addresses one editable field. Index is only meaningful for the
// founder and funding-round groups.
type FieldPath struct {
	Group FieldGroup
	Name  string
	Index int
}

var (
	topFields = map[string]Section{
		"name": SectionBasic, "tagline": SectionBasic, "description": SectionBasic,
		"website": SectionBasic, "logo": SectionBasic, "foundingDate": SectionBasic,
		"category": SectionBasic, "subCategory": SectionBasic, "stage": SectionBasic,
		"products": SectionBasic, "country": SectionLocation, "city": SectionLocation,
	}
	metricFields  = map[string]struct{}{"fundingTotal": {}, "employees": {}, "revenue": {}}
	socialFields  = map[string]struct{}{"linkedin": {}, "twitter": {}, "facebook": {}, "instagram": {}}
	founderFields = map[string]struct{}{"name": {}, "role": {}, "linkedin": {}, "bio": {}}
	roundFields   = map[string]struct{}{"stage": {}, "date": {}, "amount": {}, "valuation": {}, "investors": {}, "notes": {}}

	indexedPath = regexp.MustCompile(`^(founders|fundingRounds)\[(\d+)\]\.([A-Za-z]+)$`)
)

// Top addresses a top-level identity or location field.
func Top(name string) FieldPath { return FieldPath{Group: GroupTop, Name: name} }

// Metric addresses a field of Metrics.
func Metric(name string) FieldPath { return FieldPath{Group: GroupMetrics, Name: name} }

// Social addresses a field of SocialProfiles.
func Social(name string) FieldPath { return FieldPath{Group: GroupSocial, Name: name} }

// FounderField addresses a field of the founder at index.
func FounderField(index int, name string) FieldPath {
	return FieldPath{Group: GroupFounder, Name: name, Index: index}
}

// RoundField addresses a field of the funding round at index.
func RoundField(index int, name string) FieldPath {
	return FieldPath{Group: GroupRound, Name: name, Index: index}
}

// ParseFieldPath parses the wire form of a path: "tagline",
// "metrics.fundingTotal", "socialProfiles.twitter", "founders[0].linkedin",
// "fundingRounds[1].amount". Unknown fields and malformed paths report false.
func ParseFieldPath(raw string) (FieldPath, bool) {
	raw = strings.TrimSpace(raw)

	if m := indexedPath.FindStringSubmatch(raw); m != nil {
		index, err := strconv.Atoi(m[2])
		if err != nil {
			return FieldPath{}, false
		}
		p := FounderField(index, m[3])
		if m[1] == "fundingRounds" {
			p = RoundField(index, m[3])
		}
		return p, p.known()
	}

	if parent, child, ok := strings.Cut(raw, "."); ok {
		var p FieldPath
		switch parent {
		case "metrics":
			p = Metric(child)
		case "socialProfiles":
			p = Social(child)
		default:
			return FieldPath{}, false
		}
		return p, p.known()
	}

	p := Top(raw)
	return p, p.known()
}

func (p FieldPath) known() bool {
	var ok bool
	switch p.Group {
	case GroupTop:
		_, ok = topFields[p.Name]
	case GroupMetrics:
		_, ok = metricFields[p.Name]
	case GroupSocial:
		_, ok = socialFields[p.Name]
	case GroupFounder:
		_, ok = founderFields[p.Name]
		ok = ok && p.Index >= 0
	case GroupRound:
		_, ok = roundFields[p.Name]
		ok = ok && p.Index >= 0
	}
	return ok
}

// String renders the path in the same form used as an error key.
func (p FieldPath) String() string {
	switch p.Group {
	case GroupTop:
		return p.Name
	case GroupMetrics:
		return "metrics." + p.Name
	case GroupSocial:
		return "socialProfiles." + p.Name
	case GroupFounder:
		return fmt.Sprintf("founders[%d].%s", p.Index, p.Name)
	case GroupRound:
		return fmt.Sprintf("fundingRounds[%d].%s", p.Index, p.Name)
	}
	return ""
}

// Section returns the form section the field lives in.
func (p FieldPath) Section() Section {
	switch p.Group {
	case GroupMetrics:
		return SectionMetrics
	case GroupSocial:
		return SectionSocial
	case GroupFounder:
		return SectionFounders
	case GroupRound:
		return SectionFunding
	}
	return topFields[p.Name]
}

// Trigger reports whether an edit to the field recomputes the basic section's
// status immediately instead of waiting for the next settle.
func (p FieldPath) Trigger() bool {
	return p.Group == GroupTop && (p.Name == "category" || p.Name == "stage")
}

// ApplyEdit returns a copy of rec with the field at p set from raw. Numeric
// fields are coerced; paths that do not resolve against rec (unknown fields,
// list indexes out of range) leave the copy unchanged.
func ApplyEdit(rec Startup, p FieldPath, raw string) Startup {
	out := rec.Clone()
	if !p.known() {
		return out
	}

	switch p.Group {
	case GroupTop:
		setTop(&out, p.Name, raw)
	case GroupMetrics:
		switch p.Name {
		case "fundingTotal":
			out.Metrics.FundingTotal = parseNumber(raw)
		case "employees":
			out.Metrics.Employees = parseNumber(raw)
		case "revenue":
			out.Metrics.Revenue = raw
		}
	case GroupSocial:
		switch p.Name {
		case "linkedin":
			out.SocialProfiles.LinkedIn = raw
		case "twitter":
			out.SocialProfiles.Twitter = raw
		case "facebook":
			out.SocialProfiles.Facebook = raw
		case "instagram":
			out.SocialProfiles.Instagram = raw
		}
	case GroupFounder:
		if p.Index >= len(out.Founders) {
			return out
		}
		f := &out.Founders[p.Index]
		switch p.Name {
		case "name":
			f.Name = raw
		case "role":
			f.Role = raw
		case "linkedin":
			f.LinkedIn = raw
		case "bio":
			f.Bio = raw
		}
	case GroupRound:
		if p.Index >= len(out.FundingRounds) {
			return out
		}
		r := &out.FundingRounds[p.Index]
		switch p.Name {
		case "stage":
			r.Stage = raw
		case "date":
			r.Date = raw
		case "amount":
			r.Amount = parseNumber(raw)
		case "valuation":
			r.Valuation = parseNumber(raw)
		case "investors":
			r.Investors = splitList(raw)
		case "notes":
			r.Notes = raw
		}
	}
	return out
}

func setTop(s *Startup, name, raw string) {
	switch name {
	case "name":
		s.Name = raw
	case "tagline":
		s.Tagline = raw
	case "description":
		s.Description = raw
	case "website":
		s.Website = raw
	case "logo":
		s.Logo = raw
	case "foundingDate":
		s.FoundingDate = raw
	case "category":
		s.Category = raw
	case "subCategory":
		s.SubCategory = raw
	case "stage":
		s.Stage = raw
	case "products":
		s.Products = raw
	case "country":
		s.Country = raw
	case "city":
		s.City = raw
	}
}

// parseNumber treats blank and unparseable input as zero. Non-finite values
// are rejected so the record always encodes as JSON.
func parseNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
