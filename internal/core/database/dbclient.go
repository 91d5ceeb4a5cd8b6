package db

import (
	"github.com/vitalia-labs/vitalia/internal/core"
)

// Compile-time check that the pgx-backed client satisfies the persistence
// interface the rest of the app depends on.
var _ core.DbClient = (*DatabaseClient)(nil)
