package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validStartup() Startup {
	s := NewStartup()
	s.Name = "Acme Robotics"
	s.Tagline = "Robots for warehouses"
	s.Category = "Robotics"
	s.Stage = "seed"
	s.Website = "https://acme.example"
	s.Country = "Germany"
	s.City = "Berlin"
	s.Founders = []Founder{{Name: "Ada", Role: "CEO", LinkedIn: "https://linkedin.com/in/ada"}}
	s.FundingRounds = []FundingRound{{Stage: "seed", Amount: 1_000_000, Valuation: 8_000_000, Investors: []string{"Alpha"}}}
	s.Metrics = Metrics{FundingTotal: 1_000_000, Employees: 8, Revenue: "0-100k"}
	return s
}

func TestValidStartupPassesEverySection(t *testing.T) {
	rec := validStartup()
	for _, s := range Sections {
		res := Validate(s, rec, false)
		assert.True(t, res.Valid, s)
		assert.Empty(t, res.Errors, s)
	}
}

func TestTaglineBoundary(t *testing.T) {
	rec := validStartup()

	rec.Tagline = strings.Repeat("a", 100)
	assert.True(t, Validate(SectionBasic, rec, false).Valid)

	rec.Tagline = strings.Repeat("a", 101)
	res := Validate(SectionBasic, rec, false)
	assert.False(t, res.Valid)
	assert.Equal(t, "Tagline must be less than 100 characters", res.Errors["tagline"])

	rec.Tagline = strings.Repeat("é", 100)
	assert.True(t, Validate(SectionBasic, rec, false).Valid)
}

func TestBasicCollectsEveryViolation(t *testing.T) {
	rec := NewStartup()
	rec.Website = "example.com"
	rec.Logo = "ftp://logo"
	rec.Tagline = strings.Repeat("x", 120)

	res := Validate(SectionBasic, rec, false)

	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 6)
	for _, key := range []string{"name", "category", "stage", "website", "logo", "tagline"} {
		assert.Contains(t, res.Errors, key)
	}
}

func TestLocationRequiresCountry(t *testing.T) {
	rec := validStartup()
	rec.Country = "  "
	rec.City = ""

	res := Validate(SectionLocation, rec, false)
	assert.Equal(t, map[string]string{"country": "Country is required"}, res.Errors)
}

func TestFoundersRules(t *testing.T) {
	rec := validStartup()
	rec.Founders = []Founder{{Name: ""}, {Name: " ", LinkedIn: "linkedin.com/in/x"}}

	res := Validate(SectionFounders, rec, false)
	assert.False(t, res.Valid)
	assert.Equal(t, "At least one founder with a name is required", res.Errors["founders"])
	assert.Equal(t, "LinkedIn URL must start with http", res.Errors["founders[1].linkedin"])
}

func TestFundingRoundsMustBeNonNegative(t *testing.T) {
	rec := validStartup()
	rec.FundingRounds = append(rec.FundingRounds, FundingRound{Amount: -1, Valuation: -5})

	res := Validate(SectionFunding, rec, false)
	assert.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors, "fundingRounds[1].amount")
	assert.Contains(t, res.Errors, "fundingRounds[1].valuation")
}

func TestMetricsAndSocialRules(t *testing.T) {
	rec := validStartup()
	rec.Metrics = Metrics{FundingTotal: -10, Employees: -1, Revenue: "billions"}
	rec.SocialProfiles = SocialProfiles{Twitter: "twitter.com/acme", Instagram: "https://instagram.com/acme"}

	metrics := Validate(SectionMetrics, rec, false)
	assert.Len(t, metrics.Errors, 2)
	assert.NotContains(t, metrics.Errors, "metrics.revenue")

	social := Validate(SectionSocial, rec, false)
	assert.Equal(t, map[string]string{"socialProfiles.twitter": "Twitter URL must start with http"}, social.Errors)
}

func TestInitialHydrationShortCircuits(t *testing.T) {
	rec := NewStartup()
	for _, s := range Sections {
		res := Validate(s, rec, true)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	rec := NewStartup()
	rec.Website = "example.com"

	for _, s := range Sections {
		assert.Equal(t, Validate(s, rec, false), Validate(s, rec, false), s)
	}
}
