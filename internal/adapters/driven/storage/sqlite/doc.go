// Package sqlite provides the durable index store backed by SQLite.
//
// One database file holds the whole index: repositories, documents,
// append-only revisions, parsed items and links, embedding vectors and
// frozen baselines. Schema migrations are embedded and applied at open.
//
// The database holds no information not derivable from git; operators
// can delete it and rebuild with a full scan.
package sqlite
