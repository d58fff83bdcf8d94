package listing

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTaglineLength is the longest accepted tagline, in characters.
const MaxTaglineLength = 100

// Result is the outcome of validating one section.
type Result struct {
	Errors map[string]string `json:"errors"`
	Valid  bool              `json:"valid"`
}

// Validate evaluates every rule of section against rec and reports all
// violations at once, keyed by field path. During the initial hydration of an
// existing record the section is reported valid without inspecting it.
func Validate(section Section, rec Startup, isInitialHydration bool) Result {
	errs := map[string]string{}
	if isInitialHydration {
		return Result{Errors: errs, Valid: true}
	}

	switch section {
	case SectionBasic:
		validateBasic(rec, errs)
	case SectionLocation:
		if blank(rec.Country) {
			errs["country"] = "Country is required"
		}
	case SectionMetrics:
		validateMetrics(rec.Metrics, errs)
	case SectionSocial:
		validateSocial(rec.SocialProfiles, errs)
	case SectionFounders:
		validateFounders(rec.Founders, errs)
	case SectionFunding:
		for i, round := range rec.FundingRounds {
			if round.Amount < 0 {
				errs[RoundField(i, "amount").String()] = "Amount cannot be negative"
			}
			if round.Valuation < 0 {
				errs[RoundField(i, "valuation").String()] = "Valuation cannot be negative"
			}
		}
	}

	return Result{Errors: errs, Valid: len(errs) == 0}
}

func validateBasic(rec Startup, errs map[string]string) {
	if blank(rec.Name) {
		errs["name"] = "Startup name is required"
	}
	if utf8.RuneCountInString(rec.Tagline) > MaxTaglineLength {
		errs["tagline"] = fmt.Sprintf("Tagline must be less than %d characters", MaxTaglineLength)
	}
	if blank(rec.Category) {
		errs["category"] = "Category is required"
	}
	if blank(rec.Stage) {
		errs["stage"] = "Stage is required"
	}
	if !httpURL(rec.Website) {
		errs["website"] = "Website must be a valid URL starting with http"
	}
	if !httpURL(rec.Logo) {
		errs["logo"] = "Logo must be a valid URL starting with http"
	}
}

func validateMetrics(m Metrics, errs map[string]string) {
	if m.FundingTotal < 0 {
		errs[Metric("fundingTotal").String()] = "Total funding cannot be negative"
	}
	if m.Employees < 0 {
		errs[Metric("employees").String()] = "Employee count cannot be negative"
	}
}

func validateSocial(p SocialProfiles, errs map[string]string) {
	profiles := []struct {
		field, label, value string
	}{
		{"linkedin", "LinkedIn", p.LinkedIn},
		{"twitter", "Twitter", p.Twitter},
		{"facebook", "Facebook", p.Facebook},
		{"instagram", "Instagram", p.Instagram},
	}
	for _, profile := range profiles {
		if !httpURL(profile.value) {
			errs[Social(profile.field).String()] = profile.label + " URL must start with http"
		}
	}
}

func validateFounders(founders []Founder, errs map[string]string) {
	named := false
	for i, f := range founders {
		if !blank(f.Name) {
			named = true
		}
		if !httpURL(f.LinkedIn) {
			errs[FounderField(i, "linkedin").String()] = "LinkedIn URL must start with http"
		}
	}
	if !named {
		errs["founders"] = "At least one founder with a name is required"
	}
}

// httpURL accepts the empty string; anything else must begin with "http".
func httpURL(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.HasPrefix(v, "http")
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}
