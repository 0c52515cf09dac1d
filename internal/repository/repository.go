package repository

import (
	"context"
	"database/sql"
	"time"

	"sensor_console/internal/models"
)

// JournalRepo stores the operator journal: commands, acknowledgements and link events.
type JournalRepo interface {
	Append(ctx context.Context, e models.ConsoleEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.ConsoleEvent, error)
}

type Repository struct {
	Journal JournalRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Journal: NewJournalSQLite(db),
	}
}
