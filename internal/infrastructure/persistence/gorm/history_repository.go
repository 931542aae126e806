package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/narwhalmedia/decisionengine/internal/domain/history"
	"github.com/narwhalmedia/decisionengine/internal/domain/specification"
	pkgerrors "github.com/narwhalmedia/decisionengine/pkg/errors"
	"github.com/narwhalmedia/decisionengine/pkg/repository"
)

// HistoryRepository implements history.Repository
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new GORM history repository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

var _ history.Repository = (*HistoryRepository)(nil)

// Insert records a history entry
func (r *HistoryRepository) Insert(ctx context.Context, entry *history.Entry) error {
	model := newHistoryModel(entry)
	if err := repository.Create(ctx, r.db, model); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	entry.ID = parseID(model.ID)
	return nil
}

// MostRecentForAlbum returns the newest entry for an album
func (r *HistoryRepository) MostRecentForAlbum(ctx context.Context, albumID int) (*history.Entry, error) {
	model, err := repository.FindOne[HistoryModel](ctx, r.db,
		specification.Equals("album_id", albumID), "date DESC")
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetByAlbum returns an album's entries, newest first
func (r *HistoryRepository) GetByAlbum(ctx context.Context, albumID int, eventType *history.EventType) ([]*history.Entry, error) {
	cond := specification.Equals("album_id", albumID)
	if eventType != nil {
		cond = specification.And(cond, specification.Equals("event_type", int(*eventType)))
	}
	return r.find(ctx, cond)
}

// FindByDownloadID returns every entry for a download client id
func (r *HistoryRepository) FindByDownloadID(ctx context.Context, downloadID string) ([]*history.Entry, error) {
	return r.find(ctx, specification.EqualFold("download_id", downloadID))
}

func (r *HistoryRepository) find(ctx context.Context, cond specification.Specification) ([]*history.Entry, error) {
	models, err := repository.Find[HistoryModel](ctx, r.db, cond, repository.FindOptions{Order: "date DESC"})
	if err != nil {
		return nil, err
	}
	entries := make([]*history.Entry, len(models))
	for i, m := range models {
		entries[i] = m.ToDomain()
	}
	return entries, nil
}
