package testdb

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/suite"

	"github.com/phrazzld/txspec/internal/store"
)

// TxSuite is a testify suite that runs every test method inside rolled-back
// transactions, one per database in DBs. Embed it and set DBs in SetupSuite:
//
//	type ArtistSuite struct {
//	    testdb.TxSuite
//	}
//
//	func (s *ArtistSuite) SetupSuite() {
//	    s.DBs = []*sql.DB{testdb.OpenSQLite(s.T()).DB}
//	}
//
// A suite that defines its own SetupTest or TearDownTest must call the
// embedded ones.
type TxSuite struct {
	suite.Suite

	// DBs are the databases to open a transaction on, in order.
	DBs []*sql.DB

	txs store.TxSet
}

// SetupTest opens one transaction on each database. Failing to open any of
// them fails the test, after the ones already opened are rolled back.
func (s *TxSuite) SetupTest() {
	s.Require().NotEmpty(s.DBs, "TxSuite.DBs must be set before the first test")

	txs, err := store.BeginAll(context.Background(), beginners(s.DBs), nil)
	s.Require().NoError(err, "failed to begin test transactions")
	s.txs = txs
}

// TearDownTest rolls back every transaction opened by SetupTest. testify
// runs it after failed and panicking tests too.
func (s *TxSuite) TearDownTest() {
	if s.txs == nil {
		return
	}
	txs := s.txs
	s.txs = nil
	rollback(s.T(), txs)
}

// Tx returns the current test's transaction on the first database.
func (s *TxSuite) Tx() *sql.Tx {
	return s.TxAt(0)
}

// TxAt returns the current test's transaction on database i.
func (s *TxSuite) TxAt(i int) *sql.Tx {
	s.Require().Less(i, len(s.txs), "no transaction for database %d; is SetupTest overridden?", i)
	return s.txs[i]
}

// Txs returns all of the current test's transactions.
func (s *TxSuite) Txs() store.TxSet {
	return s.txs
}
