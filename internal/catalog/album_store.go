package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/txspec/internal/platform/database"
	"github.com/phrazzld/txspec/internal/platform/logger"
	"github.com/phrazzld/txspec/internal/store"
)

// AlbumStore implements store.AlbumStore.
type AlbumStore struct {
	db      store.DBTX
	dialect database.Dialect
	logger  *slog.Logger
}

// NewAlbumStore creates an album store over db. If logger is nil, the
// default logger is used.
func NewAlbumStore(db store.DBTX, dialect database.Dialect, logger *slog.Logger) *AlbumStore {
	if db == nil {
		// ALLOW-PANIC: constructor misuse
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AlbumStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "album_store")),
	}
}

var _ store.AlbumStore = (*AlbumStore)(nil)

// Create implements store.AlbumStore.Create.
// Returns store.ErrInvalidEntity if the artist doesn't exist (foreign key violation).
func (s *AlbumStore) Create(ctx context.Context, album *store.Album) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := album.Validate(); err != nil {
		log.Warn("album validation failed during create", slog.String("error", err.Error()))
		return err
	}
	if album.ID == "" {
		album.ID = uuid.NewString()
	}
	if album.CreatedAt.IsZero() {
		album.CreatedAt = now()
	}

	query := s.dialect.Rebind(
		`INSERT INTO albums (id, artist_id, title, created_at) VALUES (?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, album.ID, album.ArtistID, album.Title, album.CreatedAt)
	if err != nil {
		if s.dialect.IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during album creation",
				slog.String("album_id", album.ID),
				slog.String("artist_id", album.ArtistID))
			return fmt.Errorf("%w: artist with ID %s not found: %w",
				store.ErrInvalidEntity, album.ArtistID, err)
		}
		log.Error("failed to create album",
			slog.String("error", err.Error()),
			slog.String("album_id", album.ID))
		return s.dialect.MapError(err)
	}

	log.Debug("album created",
		slog.String("album_id", album.ID),
		slog.String("artist_id", album.ArtistID))
	return nil
}

// GetByID implements store.AlbumStore.GetByID.
func (s *AlbumStore) GetByID(ctx context.Context, id string) (*store.Album, error) {
	query := s.dialect.Rebind(
		`SELECT id, artist_id, title, created_at FROM albums WHERE id = ?`)

	var album store.Album
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&album.ID, &album.ArtistID, &album.Title, &album.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrAlbumNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get album %s: %w", id, s.dialect.MapError(err))
	}
	return &album, nil
}

// Count implements store.AlbumStore.Count.
func (s *AlbumStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM albums`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count albums: %w", s.dialect.MapError(err))
	}
	return n, nil
}

// ListByArtist implements store.AlbumStore.ListByArtist.
func (s *AlbumStore) ListByArtist(ctx context.Context, artistID string) ([]store.Album, error) {
	query := s.dialect.Rebind(`
		SELECT id, artist_id, title, created_at
		FROM albums
		WHERE artist_id = ?
		ORDER BY title, id`)

	rows, err := s.db.QueryContext(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", s.dialect.MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var albums []store.Album
	for rows.Next() {
		var album store.Album
		if err := rows.Scan(&album.ID, &album.ArtistID, &album.Title, &album.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", s.dialect.MapError(err))
	}
	return albums, nil
}

// Delete implements store.AlbumStore.Delete.
func (s *AlbumStore) Delete(ctx context.Context, id string) error {
	query := s.dialect.Rebind(`DELETE FROM albums WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return s.dialect.MapError(err)
	}
	if err := store.CheckRowsAffected(result, "album"); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrAlbumNotFound
		}
		return err
	}
	return nil
}
