package gorm

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/narwhalmedia/decisionengine/internal/domain/specification"
	"github.com/narwhalmedia/decisionengine/internal/domain/trackfile"
	"github.com/narwhalmedia/decisionengine/pkg/repository"
)

// TrackFileRepository implements trackfile.Provider
type TrackFileRepository struct {
	db *gorm.DB
}

// NewTrackFileRepository creates a new GORM track file repository
func NewTrackFileRepository(db *gorm.DB) *TrackFileRepository {
	return &TrackFileRepository{db: db}
}

var _ trackfile.Provider = (*TrackFileRepository)(nil)

func (r *TrackFileRepository) GetFilesByAlbum(ctx context.Context, albumID int) ([]*trackfile.TrackFile, error) {
	models, err := repository.Find[TrackFileModel](ctx, r.db,
		specification.Equals("album_id", albumID),
		repository.FindOptions{Order: "id ASC"})
	if err != nil {
		return nil, err
	}
	files := make([]*trackfile.TrackFile, len(models))
	for i, m := range models {
		files[i] = m.ToDomain()
	}
	return files, nil
}

func (r *TrackFileRepository) Insert(ctx context.Context, f *trackfile.TrackFile) error {
	model := newTrackFileModel(f)
	if err := repository.Create(ctx, r.db, model); err != nil {
		return fmt.Errorf("insert track file: %w", err)
	}
	f.ID = model.ID
	return nil
}
