package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/txspec/internal/platform/database"
	"github.com/phrazzld/txspec/internal/platform/logger"
	"github.com/phrazzld/txspec/internal/store"
)

// ArtistStore implements store.ArtistStore.
type ArtistStore struct {
	db      store.DBTX
	dialect database.Dialect
	logger  *slog.Logger
}

// NewArtistStore creates an artist store over db, which may be a pool or a
// transaction. If logger is nil, the default logger is used.
func NewArtistStore(db store.DBTX, dialect database.Dialect, logger *slog.Logger) *ArtistStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtistStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "artist_store")),
	}
}

var _ store.ArtistStore = (*ArtistStore)(nil)

// Create implements store.ArtistStore.Create.
func (s *ArtistStore) Create(ctx context.Context, artist *store.Artist) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := artist.Validate(); err != nil {
		log.Warn("artist validation failed during create", slog.String("error", err.Error()))
		return err
	}
	if artist.ID == "" {
		artist.ID = uuid.NewString()
	}
	if artist.CreatedAt.IsZero() {
		artist.CreatedAt = now()
	}

	query := s.dialect.Rebind(`INSERT INTO artists (id, name, created_at) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, artist.ID, artist.Name, artist.CreatedAt); err != nil {
		log.Error("failed to create artist",
			slog.String("error", err.Error()),
			slog.String("artist_id", artist.ID))
		return s.dialect.MapError(err)
	}

	log.Debug("artist created", slog.String("artist_id", artist.ID))
	return nil
}

// GetByID implements store.ArtistStore.GetByID.
func (s *ArtistStore) GetByID(ctx context.Context, id string) (*store.Artist, error) {
	query := s.dialect.Rebind(`SELECT id, name, created_at FROM artists WHERE id = ?`)

	var artist store.Artist
	err := s.db.QueryRowContext(ctx, query, id).Scan(&artist.ID, &artist.Name, &artist.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrArtistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist %s: %w", id, s.dialect.MapError(err))
	}
	return &artist, nil
}

// Count implements store.ArtistStore.Count.
func (s *ArtistStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count artists: %w", s.dialect.MapError(err))
	}
	return n, nil
}

// Delete implements store.ArtistStore.Delete. Albums are not cascaded; an
// artist that still has albums is rejected by the foreign key.
func (s *ArtistStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := s.dialect.Rebind(`DELETE FROM artists WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		if s.dialect.IsForeignKeyViolation(err) {
			log.Warn("artist still referenced by albums", slog.String("artist_id", id))
		}
		return s.dialect.MapError(err)
	}
	if err := store.CheckRowsAffected(result, "artist"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrArtistNotFound
		}
		return err
	}

	log.Debug("artist deleted", slog.String("artist_id", id))
	return nil
}

// now is truncated to the coarsest timestamp precision of the supported dialects.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
