// Package persistence picks the repository implementations matching the database dialect.
package persistence

import (
	"database/sql"
	"fmt"

	"commutecast/internal/infra/adapter/persistence/postgres"
	"commutecast/internal/infra/adapter/persistence/sqlite"
	"commutecast/internal/infra/db"
	"commutecast/internal/repository"
)

// Repositories bundles the stores used by the episode pipeline.
type Repositories struct {
	Subscribers repository.SubscriberRepository
	Episodes    repository.EpisodeRepository
}

// New returns the repositories for dialect.
func New(database *sql.DB, dialect db.Dialect) (Repositories, error) {
	switch dialect {
	case db.Postgres:
		return Repositories{
			Subscribers: postgres.NewSubscriberRepo(database),
			Episodes:    postgres.NewEpisodeRepo(database),
		}, nil
	case db.SQLite:
		return Repositories{
			Subscribers: sqlite.NewSubscriberRepo(database),
			Episodes:    sqlite.NewEpisodeRepo(database),
		}, nil
	default:
		return Repositories{}, fmt.Errorf("no repositories for dialect %q", string(dialect))
	}
}
