package conformance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/txspec/internal/catalog"
	"github.com/phrazzld/txspec/internal/cleanup"
	"github.com/phrazzld/txspec/internal/store"
	"github.com/phrazzld/txspec/internal/testdb"
)

// CatalogSuite checks the transaction wrapper, foreign key enforcement and
// cleanup ordering against one target. Each test method runs inside a
// transaction that TxSuite rolls back.
type CatalogSuite struct {
	testdb.TxSuite

	// Open returns the target under test; called once from SetupSuite.
	Open func() *testdb.Target

	target *testdb.Target
	// marker is a name unique to this suite run, used to check isolation.
	marker string
}

// NewCatalogSuite returns a suite that runs against the target returned by open.
func NewCatalogSuite(open func() *testdb.Target) *CatalogSuite {
	return &CatalogSuite{Open: open}
}

func (s *CatalogSuite) SetupSuite() {
	s.Require().NotNil(s.Open, "CatalogSuite.Open must be set")
	s.target = s.Open()
	testdb.SetupSchema(s.T(), s.target.DB, s.target.Dialect)
	s.DBs = []*sql.DB{s.target.DB}
	s.marker = "conformance-" + uuid.NewString()
}

// TearDownSuite verifies that no test leaked rows past its rollback.
func (s *CatalogSuite) TearDownSuite() {
	if s.target == nil {
		return
	}
	var n int
	err := s.target.DB.QueryRow(
		s.target.Dialect.Rebind(`SELECT COUNT(*) FROM artists WHERE name LIKE ?`),
		s.marker+"%").Scan(&n)
	s.Require().NoError(err)
	s.Zero(n, "rows written inside test transactions must not survive")
}

func (s *CatalogSuite) artists() *catalog.ArtistStore {
	return catalog.NewArtistStore(s.Tx(), s.target.Dialect, nil)
}

func (s *CatalogSuite) albums() *catalog.AlbumStore {
	return catalog.NewAlbumStore(s.Tx(), s.target.Dialect, nil)
}

func (s *CatalogSuite) name(suffix string) string {
	return fmt.Sprintf("%s %s", s.marker, suffix)
}

func (s *CatalogSuite) createArtistWithAlbum() (*store.Artist, *store.Album) {
	ctx := context.Background()
	artist := &store.Artist{Name: s.name("artist")}
	s.Require().NoError(s.artists().Create(ctx, artist))
	album := &store.Album{ArtistID: artist.ID, Title: "Side A"}
	s.Require().NoError(s.albums().Create(ctx, album))
	return artist, album
}

// TestWritesVisibleInsideTransaction checks that a test sees its own writes.
func (s *CatalogSuite) TestWritesVisibleInsideTransaction() {
	ctx := context.Background()
	artist, album := s.createArtistWithAlbum()

	got, err := s.artists().GetByID(ctx, artist.ID)
	s.Require().NoError(err)
	s.Equal(artist.Name, got.Name)

	list, err := s.albums().ListByArtist(ctx, artist.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(album.ID, list[0].ID)
}

// TestIsolationFirst and TestIsolationSecond write the same unique name; the
// later one only succeeds if the earlier one's transaction was rolled back.
func (s *CatalogSuite) TestIsolationFirst()  { s.assertFreshAndInsert() }
func (s *CatalogSuite) TestIsolationSecond() { s.assertFreshAndInsert() }

func (s *CatalogSuite) assertFreshAndInsert() {
	ctx := context.Background()

	var n int
	err := s.Tx().QueryRowContext(ctx,
		s.target.Dialect.Rebind(`SELECT COUNT(*) FROM artists WHERE name = ?`),
		s.name("isolation")).Scan(&n)
	s.Require().NoError(err)
	s.Zero(n, "a previous test's row leaked")

	s.Require().NoError(s.artists().Create(ctx, &store.Artist{Name: s.name("isolation")}))
}

// TestForeignKeysEnforced checks that an album cannot point at a missing artist.
func (s *CatalogSuite) TestForeignKeysEnforced() {
	err := s.albums().Create(context.Background(), &store.Album{
		ArtistID: uuid.NewString(),
		Title:    "Orphan",
	})
	s.ErrorIs(err, store.ErrInvalidEntity)
	s.True(s.target.Dialect.IsForeignKeyViolation(err), "expected a foreign key violation, got %v", err)
}

// TestCleanupOrderBoundary deletes child before parent inside the test
// transaction, which succeeds.
func (s *CatalogSuite) TestCleanupOrderBoundary() {
	ctx := context.Background()
	s.createArtistWithAlbum()

	err := cleanup.New(s.Tx(), s.target.Dialect, "albums", "artists").Clean(ctx)
	s.Require().NoError(err)

	n, err := s.artists().Count(ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

// TestCleanupWrongOrderFails deletes parent before child, which the database
// rejects. It is the last statement of the test: Postgres aborts the
// transaction after an error.
func (s *CatalogSuite) TestCleanupWrongOrderFails() {
	s.createArtistWithAlbum()

	err := cleanup.New(s.Tx(), s.target.Dialect, "artists", "albums").Clean(context.Background())
	s.Require().Error(err)
	s.True(s.target.Dialect.IsForeignKeyViolation(err), "expected a foreign key violation, got %v", err)
}

// TestPlannedOrderMatchesSchema checks the derived order for the example schema.
func (s *CatalogSuite) TestPlannedOrderMatchesSchema() {
	order, err := cleanup.Plan(context.Background(), s.Tx(), s.target.Dialect)
	s.Require().NoError(err)

	albums, artists := -1, -1
	for i, table := range order {
		switch table {
		case "albums":
			albums = i
		case "artists":
			artists = i
		}
	}
	s.Require().NotEqual(-1, albums)
	s.Require().NotEqual(-1, artists)
	s.Less(albums, artists, "albums reference artists and must be deleted first")
}
