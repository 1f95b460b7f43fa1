package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/exeat-ng/exeat_backend/internal/core/ports/repositories"
)

// NewRepositoryProvider constructs all pgsql-backed repositories.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		ExeatRepo: NewPgxExeatRepository(pool),
		UserRepo:  NewPgxUserRepository(pool),
	}
}
