package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/narwhalmedia/decisionengine/internal/domain/delay"
	"github.com/narwhalmedia/decisionengine/pkg/repository"
)

// DelayProfileRepository implements delay.Provider
type DelayProfileRepository struct {
	db *gorm.DB
}

// NewDelayProfileRepository creates a new GORM delay profile repository
func NewDelayProfileRepository(db *gorm.DB) *DelayProfileRepository {
	return &DelayProfileRepository{db: db}
}

var _ delay.Provider = (*DelayProfileRepository)(nil)

// All returns every stored profile in order.
func (r *DelayProfileRepository) All(ctx context.Context) ([]*delay.Profile, error) {
	models, err := repository.Find[DelayProfileModel](ctx, r.db, nil, repository.FindOptions{Order: "sort_order ASC"})
	if err != nil {
		return nil, err
	}
	profiles := make([]*delay.Profile, len(models))
	for i, m := range models {
		profiles[i] = m.ToDomain()
	}
	return profiles, nil
}

// BestForTags resolves the profile for an artist's tags. Without any stored
// profile the built-in default applies.
func (r *DelayProfileRepository) BestForTags(ctx context.Context, tags []int) (*delay.Profile, error) {
	profiles, err := r.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading delay profiles: %w", err)
	}
	if best := delay.BestForTags(profiles, tags); best != nil {
		return best, nil
	}
	return delay.DefaultProfile(), nil
}

// Save inserts or replaces a profile.
func (r *DelayProfileRepository) Save(ctx context.Context, p *delay.Profile) error {
	model := newDelayProfileModel(p)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("save delay profile: %w", err)
	}
	p.ID = model.ID
	return nil
}
