package gorm

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/narwhalmedia/decisionengine/internal/domain/blocklist"
	"github.com/narwhalmedia/decisionengine/internal/domain/release"
	"github.com/narwhalmedia/decisionengine/internal/domain/specification"
	"github.com/narwhalmedia/decisionengine/pkg/repository"
)

// BlocklistRepository implements blocklist.Repository
type BlocklistRepository struct {
	db *gorm.DB
}

// NewBlocklistRepository creates a new GORM blocklist repository
func NewBlocklistRepository(db *gorm.DB) *BlocklistRepository {
	return &BlocklistRepository{db: db}
}

var _ blocklist.Repository = (*BlocklistRepository)(nil)

func (r *BlocklistRepository) FindByTitle(ctx context.Context, artistID int, title string) ([]*blocklist.Entry, error) {
	return r.find(ctx, specification.And(
		specification.Equals("artist_id", artistID),
		specification.EqualFold("source_title", title),
	))
}

func (r *BlocklistRepository) FindByTorrentInfoHash(ctx context.Context, artistID int, infoHash string) ([]*blocklist.Entry, error) {
	hash := release.NormalizeInfoHash(infoHash)
	if hash == "" {
		return nil, nil
	}
	return r.find(ctx, specification.And(
		specification.Equals("artist_id", artistID),
		specification.Equals("torrent_info_hash", hash),
	))
}

func (r *BlocklistRepository) FindByArtist(ctx context.Context, artistID int) ([]*blocklist.Entry, error) {
	return r.find(ctx, specification.Equals("artist_id", artistID))
}

func (r *BlocklistRepository) Insert(ctx context.Context, entry *blocklist.Entry) error {
	model := newBlocklistModel(entry)
	if err := repository.Create(ctx, r.db, model); err != nil {
		return fmt.Errorf("insert blocklist entry: %w", err)
	}
	entry.ID = parseID(model.ID)
	return nil
}

func (r *BlocklistRepository) DeleteByArtist(ctx context.Context, artistID int) (int64, error) {
	return repository.DeleteWhere[BlocklistModel](ctx, r.db, specification.Equals("artist_id", artistID))
}

// Purge removes entries dated before olderThan. A zero olderThan empties the table.
func (r *BlocklistRepository) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	if olderThan.IsZero() {
		result := r.db.WithContext(ctx).
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&BlocklistModel{})
		return result.RowsAffected, result.Error
	}
	return repository.DeleteWhere[BlocklistModel](ctx, r.db, specification.LessThan("date", olderThan.UTC()))
}

func (r *BlocklistRepository) find(ctx context.Context, cond specification.Specification) ([]*blocklist.Entry, error) {
	models, err := repository.Find[BlocklistModel](ctx, r.db, cond, repository.FindOptions{Order: "date DESC"})
	if err != nil {
		return nil, err
	}
	entries := make([]*blocklist.Entry, len(models))
	for i, m := range models {
		entries[i] = m.ToDomain()
	}
	return entries, nil
}
