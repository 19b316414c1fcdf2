// Package cleanup deletes test data without transactions.
//
// Some tests cannot run inside a rolled-back transaction, for example when
// the code under test opens its own connections. For those, a Cleaner
// deletes every row from a list of tables, one DELETE per table, in the
// order given. Tables that hold foreign keys must come before the tables
// they reference; Order and Plan derive such an order from the schema and
// Verify checks a hand-written one.
//
// A wrong order is not corrected at run time: the DELETE fails with the
// database's own foreign key violation and Clean stops there.
package cleanup
