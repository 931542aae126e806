package gorm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/narwhalmedia/decisionengine/internal/domain/pending"
	"github.com/narwhalmedia/decisionengine/internal/domain/specification"
	pkgerrors "github.com/narwhalmedia/decisionengine/pkg/errors"
	"github.com/narwhalmedia/decisionengine/pkg/repository"
)

// PendingReleaseRepository implements pending.Store
type PendingReleaseRepository struct {
	db *gorm.DB
}

// NewPendingReleaseRepository creates a new GORM pending release repository
func NewPendingReleaseRepository(db *gorm.DB) *PendingReleaseRepository {
	return &PendingReleaseRepository{db: db}
}

var _ pending.Store = (*PendingReleaseRepository)(nil)

// OldestPendingRelease returns the earliest published pending release sharing
// an album with the target.
func (r *PendingReleaseRepository) OldestPendingRelease(ctx context.Context, artistID int, albumIDs []int) (*pending.Release, error) {
	models, err := repository.Find[PendingReleaseModel](ctx, r.db,
		specification.Equals("artist_id", artistID),
		repository.FindOptions{Order: "publish_date ASC"})
	if err != nil {
		return nil, err
	}

	for _, m := range models {
		if p := m.ToDomain(); p.Overlaps(albumIDs) {
			return p, nil
		}
	}
	return nil, nil
}

// Add inserts p, or refreshes the row already pending for the same artist,
// indexer and title. A refreshed row keeps its original id and Added time.
func (r *PendingReleaseRepository) Add(ctx context.Context, p *pending.Release) error {
	existing, err := repository.FindOne[PendingReleaseModel](ctx, r.db, specification.And(
		specification.Equals("artist_id", p.ArtistID),
		specification.Equals("indexer", p.Release.Indexer),
		specification.EqualFold("title", p.Title),
	), "added ASC")
	if err != nil && !pkgerrors.IsNotFound(err) {
		return fmt.Errorf("find pending release: %w", err)
	}

	model := newPendingReleaseModel(p)
	if existing != nil {
		model.ID = existing.ID
		model.Added = existing.Added
		if err := repository.Update(ctx, r.db, model); err != nil {
			return fmt.Errorf("update pending release: %w", err)
		}
	} else if err := repository.Create(ctx, r.db, model); err != nil {
		return fmt.Errorf("insert pending release: %w", err)
	}

	p.ID = parseID(model.ID)
	p.Added = model.Added
	return nil
}

func (r *PendingReleaseRepository) ListByArtist(ctx context.Context, artistID int) ([]*pending.Release, error) {
	models, err := repository.Find[PendingReleaseModel](ctx, r.db,
		specification.Equals("artist_id", artistID),
		repository.FindOptions{Order: "added ASC"})
	if err != nil {
		return nil, err
	}
	out := make([]*pending.Release, len(models))
	for i, m := range models {
		out[i] = m.ToDomain()
	}
	return out, nil
}

// RemoveForAlbums deletes the artist's pending releases that share an album
// with albumIDs.
func (r *PendingReleaseRepository) RemoveForAlbums(ctx context.Context, artistID int, albumIDs []int) (int64, error) {
	releases, err := r.ListByArtist(ctx, artistID)
	if err != nil {
		return 0, err
	}

	var ids []string
	for _, p := range releases {
		if p.Overlaps(albumIDs) {
			ids = append(ids, p.ID.String())
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return repository.DeleteWhere[PendingReleaseModel](ctx, r.db, specification.In("id", ids))
}

func (r *PendingReleaseRepository) RemoveByArtist(ctx context.Context, artistID int) (int64, error) {
	return repository.DeleteWhere[PendingReleaseModel](ctx, r.db, specification.Equals("artist_id", artistID))
}

// RemoveAddedBefore deletes pending releases queued before cutoff.
func (r *PendingReleaseRepository) RemoveAddedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return repository.DeleteWhere[PendingReleaseModel](ctx, r.db, specification.LessThan("added", cutoff.UTC()))
}
