package store

import (
	"context"
	"database/sql"

	"github.com/hireflow/intake-engine/internal/usecase"
)

// NewRepositories builds the intake repositories over q. Over a *sql.Tx every
// repository reads and writes inside that transaction.
func NewRepositories(q Queryer) usecase.Repositories {
	return usecase.Repositories{
		Applications: &ApplicationRepo{DB: q},
		Todos:        &TodoRepo{DB: q},
		Sessions:     &ChatSessionRepo{DB: q},
		Fields:       &ExtractedFieldRepo{DB: q},
		Facts:        &FactDefinitionRepo{DB: q},
		Logs:         &LogRepo{DB: q},
	}
}

// UnitOfWork runs each usecase step in one SQLite transaction.
type UnitOfWork struct {
	DB *sql.DB
}

// Do begins a transaction, hands fn repositories bound to it and commits
// when fn returns nil. Any error rolls back every write fn made.
func (u *UnitOfWork) Do(ctx context.Context, fn func(repos usecase.Repositories) error) error {
	return withTx(ctx, u.DB, func(tx Queryer) error {
		return fn(NewRepositories(tx))
	})
}
