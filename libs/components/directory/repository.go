package directory

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a listing is not indexed.
var ErrNotFound = errors.New("listing not found")

// Filter narrows a directory query. Empty fields match everything.
type Filter struct {
	Search   string
	Category string
	Stage    string
	Country  string
	Limit    int
	Offset   int
}

// Summary aggregates the directory for the dashboard header.
type Summary struct {
	Total        int64            `json:"total"`
	FundingTotal float64          `json:"fundingTotal"`
	ByStage      map[string]int64 `json:"byStage"`
	ByCategory   map[string]int64 `json:"byCategory"`
}

// Repository defines the persistence contract for the directory.
type Repository interface {
	Upsert(ctx context.Context, entity *Listing) error
	List(ctx context.Context, filter Filter) ([]Listing, error)
	Find(ctx context.Context, id string) (*Listing, error)
	Delete(ctx context.Context, id string) error
	Summary(ctx context.Context) (Summary, error)
}

// GormRepository stores the directory via GORM.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs a repository backed by db.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the directory schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Listing{})
}

// Upsert inserts the listing or overwrites the indexed copy.
func (r *GormRepository) Upsert(ctx context.Context, entity *Listing) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(entity).Error
}

var upsertColumns = []string{
	"name", "tagline", "category", "stage", "country", "city", "website", "logo",
	"funding_total", "employees", "revenue", "founders", "updated_at",
}

// List returns listings matching filter, most recently updated first.
func (r *GormRepository) List(ctx context.Context, filter Filter) ([]Listing, error) {
	query := r.db.WithContext(ctx).Model(&Listing{}).Order("updated_at DESC")
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(tagline) LIKE ?", like, like)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var listings []Listing
	if err := query.Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// Find looks up one listing.
func (r *GormRepository) Find(ctx context.Context, id string) (*Listing, error) {
	var entity Listing
	err := r.db.WithContext(ctx).First(&entity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Delete removes a listing from the index.
func (r *GormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Listing{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type bucket struct {
	Label string
	Total int64
}

// Summary counts listings per stage and category and totals their funding.
func (r *GormRepository) Summary(ctx context.Context) (Summary, error) {
	db := r.db.WithContext(ctx).Model(&Listing{})
	out := Summary{ByStage: map[string]int64{}, ByCategory: map[string]int64{}}

	if err := db.Count(&out.Total).Error; err != nil {
		return Summary{}, err
	}
	var funding struct{ Total float64 }
	if err := r.db.WithContext(ctx).Model(&Listing{}).
		Select("COALESCE(SUM(funding_total), 0) AS total").Scan(&funding).Error; err != nil {
		return Summary{}, err
	}
	out.FundingTotal = funding.Total

	groups := []struct {
		column string
		into   map[string]int64
	}{
		{"stage", out.ByStage},
		{"category", out.ByCategory},
	}
	for _, g := range groups {
		var rows []bucket
		err := r.db.WithContext(ctx).Model(&Listing{}).
			Select(g.column + " AS label, COUNT(*) AS total").
			Group(g.column).
			Scan(&rows).Error
		if err != nil {
			return Summary{}, err
		}
		for _, row := range rows {
			g.into[row.Label] = row.Total
		}
	}
	return out, nil
}
