package listing

import (
	"encoding/json"
	"fmt"
)

// LogoFile is a newly selected logo image to upload with the listing.
type LogoFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FormField is one scalar multipart entry.
type FormField struct {
	Key   string
	Value string
}

// Payload is the transport form of a listing: scalar fields, JSON-encoded
// nested blobs, and exactly one of Logo or LogoURL.
type Payload struct {
	Fields  []FormField
	Logo    *LogoFile
	LogoURL string
}

// BuildPayload serialises rec for a create or update call. A non-empty logo
// file takes precedence; otherwise the existing logo URL is sent.
func BuildPayload(rec Startup, logo *LogoFile) (Payload, error) {
	p := Payload{
		Fields: []FormField{
			{"name", rec.Name},
			{"tagline", rec.Tagline},
			{"description", rec.Description},
			{"website", rec.Website},
			{"foundingDate", rec.FoundingDate},
			{"category", rec.Category},
			{"subCategory", rec.SubCategory},
			{"country", rec.Country},
			{"city", rec.City},
			{"stage", rec.Stage},
			{"products", rec.Products},
		},
	}

	founders := rec.Founders
	if founders == nil {
		founders = []Founder{}
	}
	rounds := rec.FundingRounds
	if rounds == nil {
		rounds = []FundingRound{}
	}

	blobs := []struct {
		key   string
		value any
	}{
		{"metrics", rec.Metrics},
		{"socialProfiles", rec.SocialProfiles},
		{"founders", founders},
		{"fundingRounds", rounds},
	}
	for _, blob := range blobs {
		raw, err := json.Marshal(blob.value)
		if err != nil {
			return Payload{}, fmt.Errorf("encode %s: %w", blob.key, err)
		}
		p.Fields = append(p.Fields, FormField{blob.key, string(raw)})
	}

	if logo != nil && len(logo.Data) > 0 {
		p.Logo = logo
	} else if rec.Logo != "" {
		p.LogoURL = rec.Logo
	}
	return p, nil
}

// Values flattens the scalar entries, including logoUrl when set.
func (p Payload) Values() map[string]string {
	out := make(map[string]string, len(p.Fields)+1)
	for _, f := range p.Fields {
		out[f.Key] = f.Value
	}
	if p.LogoURL != "" {
		out["logoUrl"] = p.LogoURL
	}
	return out
}
