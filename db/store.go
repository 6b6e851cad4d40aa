package db

import (
	"context"
	"errors"
)

// Collection names under the store root.
const (
	CollectionReports     = "reports"
	CollectionUsers       = "users"
	CollectionCommodities = "commodityList"
	CollectionCounters    = "counters"
	CollectionPasswords   = "passwords"
	CollectionAuditLogs   = "auditLogs"
)

// ErrNotFound is returned by Get when no record exists at the key.
var ErrNotFound = errors.New("record not found")

// Snapshot is one record returned from a listing or query.
type Snapshot interface {
	Key() string
	DataTo(v interface{}) error
}

// Store is a schema-less keyed record store. Records live at
// <collection>/<id>; values are plain structs or maps.
type Store interface {
	// Get decodes the record into v, or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, v interface{}) error
	// Set writes the full record, replacing anything stored at the key.
	Set(ctx context.Context, collection, id string, v interface{}) error
	// Update merges fields into the record. It does not check existence.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, collection, id string) error
	// NewID returns a fresh store-generated key for the collection.
	NewID(ctx context.Context, collection string) (string, error)
	// All lists every record of the collection.
	All(ctx context.Context, collection string) ([]Snapshot, error)
	// WhereEqual lists the records whose child field equals value.
	WhereEqual(ctx context.Context, collection, field string, value interface{}) ([]Snapshot, error)
	// Increment atomically sets the counter to max(current, floor)+1 and returns it.
	Increment(ctx context.Context, collection, id string, floor int64) (int64, error)
	Close() error
}

// nextCounter is the increment rule shared by every backend.
func nextCounter(current, floor int64) int64 {
	if floor > current {
		current = floor
	}
	return current + 1
}
