package data

import (
	"context"
	"database/sql"

	"github.com/clipsyelt-svg/Project/internal/migrate"
)

// RunMigrations applies the embedded job store schema by delegating to the migrate package.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
