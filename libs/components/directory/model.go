// Package directory maintains the searchable index of published listings
// shown on the investor dashboard.
package directory

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/getlisted/platform/libs/components/listing"
)

// Listing is the indexed projection of a startup listing.
type Listing struct {
	ID           string         `json:"id" gorm:"primaryKey;size:64"`
	Name         string         `json:"name" gorm:"not null;index"`
	Tagline      string         `json:"tagline"`
	Category     string         `json:"category" gorm:"index"`
	Stage        string         `json:"stage" gorm:"index"`
	Country      string         `json:"country" gorm:"index"`
	City         string         `json:"city"`
	Website      string         `json:"website"`
	Logo         string         `json:"logo"`
	FundingTotal float64        `json:"fundingTotal"`
	Employees    float64        `json:"employees"`
	Revenue      string         `json:"revenue"`
	Founders     datatypes.JSON `json:"founders"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// FromStartup projects a saved startup into an index row.
func FromStartup(s listing.Startup) (*Listing, error) {
	if strings.TrimSpace(s.ID) == "" {
		return nil, errors.New("listing has no id")
	}
	founders := s.Founders
	if founders == nil {
		founders = []listing.Founder{}
	}
	raw, err := json.Marshal(founders)
	if err != nil {
		return nil, err
	}
	return &Listing{
		ID:           s.ID,
		Name:         strings.TrimSpace(s.Name),
		Tagline:      s.Tagline,
		Category:     strings.TrimSpace(s.Category),
		Stage:        strings.TrimSpace(s.Stage),
		Country:      strings.TrimSpace(s.Country),
		City:         strings.TrimSpace(s.City),
		Website:      s.Website,
		Logo:         s.Logo,
		FundingTotal: s.Metrics.FundingTotal,
		Employees:    s.Metrics.Employees,
		Revenue:      s.Metrics.Revenue,
		Founders:     datatypes.JSON(raw),
	}, nil
}

// ToDTO converts the row into a serialisable map.
func (l Listing) ToDTO() map[string]any {
	founders := []listing.Founder{}
	if len(l.Founders) > 0 {
		_ = json.Unmarshal(l.Founders, &founders)
	}
	return map[string]any{
		"id":           l.ID,
		"name":         l.Name,
		"tagline":      l.Tagline,
		"category":     l.Category,
		"stage":        l.Stage,
		"country":      l.Country,
		"city":         l.City,
		"website":      l.Website,
		"logo":         l.Logo,
		"fundingTotal": l.FundingTotal,
		"employees":    l.Employees,
		"revenue":      l.Revenue,
		"founders":     founders,
		"createdAt":    l.CreatedAt,
		"updatedAt":    l.UpdatedAt,
	}
}
