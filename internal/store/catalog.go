package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MaxNameLength bounds artist names and album titles.
const MaxNameLength = 200

// Artist is a row of the artists table.
type Artist struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Album is a row of the albums table. ArtistID references Artist.ID.
type Album struct {
	ID        string
	ArtistID  string
	Title     string
	CreatedAt time.Time
}

// ArtistStore defines persistence for artists.
type ArtistStore interface {
	// Create saves a new artist, assigning an ID when none is set.
	Create(ctx context.Context, artist *Artist) error

	// GetByID returns ErrArtistNotFound if the artist does not exist.
	GetByID(ctx context.Context, id string) (*Artist, error)

	Count(ctx context.Context) (int, error)

	// Delete returns ErrArtistNotFound if the artist does not exist, and an
	// ErrInvalidEntity error if albums still reference it.
	Delete(ctx context.Context, id string) error
}

// Validate checks the artist's fields. Errors wrap ErrInvalidEntity.
func (a *Artist) Validate() error {
	return validateName("artist name", a.Name)
}

// Validate checks the album's fields. Errors wrap ErrInvalidEntity.
func (a *Album) Validate() error {
	if strings.TrimSpace(a.ArtistID) == "" {
		return fmt.Errorf("%w: album artist ID is required", ErrInvalidEntity)
	}
	return validateName("album title", a.Title)
}

func validateName(field, value string) error {
	switch {
	case strings.TrimSpace(value) == "":
		return fmt.Errorf("%w: %s is required", ErrInvalidEntity, field)
	case len(value) > MaxNameLength:
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidEntity, field, MaxNameLength)
	}
	return nil
}

// AlbumStore defines persistence for albums.
type AlbumStore interface {
	// Create saves a new album. Returns an ErrInvalidEntity error when
	// ArtistID does not reference an existing artist.
	Create(ctx context.Context, album *Album) error

	GetByID(ctx context.Context, id string) (*Album, error)

	Count(ctx context.Context) (int, error)

	// ListByArtist returns the artist's albums ordered by title.
	ListByArtist(ctx context.Context, artistID string) ([]Album, error)

	// Delete returns ErrAlbumNotFound if the album does not exist.
	Delete(ctx context.Context, id string) error
}
