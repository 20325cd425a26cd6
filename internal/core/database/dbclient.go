package db

import "github.com/markdave123-py/docreader/internal/core/store"

// DbClient is the job table plus connection lifecycle.
type DbClient interface {
	store.JobTable
	Close() error
}
