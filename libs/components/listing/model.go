package listing

// Metrics holds the numeric traction figures of a startup.
type Metrics struct {
	FundingTotal float64 `json:"fundingTotal"`
	Employees    float64 `json:"employees"`
	Revenue      string  `json:"revenue"`
}

// SocialProfiles holds optional profile URLs.
type SocialProfiles struct {
	LinkedIn  string `json:"linkedin"`
	Twitter   string `json:"twitter"`
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
}

// Founder is one entry of the founding team.
type Founder struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	LinkedIn string `json:"linkedin"`
	Bio      string `json:"bio"`
}

// FundingRound records a past raise.
type FundingRound struct {
	Stage     string   `json:"stage"`
	Date      string   `json:"date"`
	Amount    float64  `json:"amount"`
	Valuation float64  `json:"valuation"`
	Investors []string `json:"investors"`
	Notes     string   `json:"notes"`
}

// Startup is the listing being created or edited.
type Startup struct {
	ID             string         `json:"id,omitempty"`
	Name           string         `json:"name"`
	Tagline        string         `json:"tagline"`
	Description    string         `json:"description"`
	Website        string         `json:"website"`
	Logo           string         `json:"logo"`
	FoundingDate   string         `json:"foundingDate"`
	Category       string         `json:"category"`
	SubCategory    string         `json:"subCategory"`
	Country        string         `json:"country"`
	City           string         `json:"city"`
	Stage          string         `json:"stage"`
	Products       string         `json:"products"`
	Metrics        Metrics        `json:"metrics"`
	SocialProfiles SocialProfiles `json:"socialProfiles"`
	Founders       []Founder      `json:"founders"`
	FundingRounds  []FundingRound `json:"fundingRounds"`
}

// NewStartup returns the empty record used in create mode: one blank founder
// and no funding rounds.
func NewStartup() Startup {
	return Startup{
		Founders:      []Founder{{}},
		FundingRounds: []FundingRound{},
	}
}

// Clone returns a deep copy; edits on the copy never alias the original's slices.
func (s Startup) Clone() Startup {
	out := s
	out.Founders = append([]Founder{}, s.Founders...)
	out.FundingRounds = make([]FundingRound, len(s.FundingRounds))
	for i, round := range s.FundingRounds {
		round.Investors = append([]string{}, round.Investors...)
		out.FundingRounds[i] = round
	}
	return out
}
