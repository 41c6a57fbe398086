package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so every repository works inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles all repositories behind one unit of work. InTx runs fn with a
// Store bound to a single transaction: a state transition, its audit entries,
// notification markers and system notes commit or roll back together.
type Store interface {
	Incidents() IncidentRepository
	Cases() ProviderCaseRepository
	Offers() OfferRepository
	Visits() VisitRepository
	Audit() AuditRepository
	Notifications() NotificationRepository
	Notes() NoteRepository
	Documents() DocumentRepository
	Accounts() AccountRepository
	Vendors() VendorRepository
	Centers() CenterRepository
	InTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
	q    Querier
}

// NewStore builds the postgres-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool, q: pool}
}

func (s *pgStore) Incidents() IncidentRepository         { return &incidentRepository{q: s.q} }
func (s *pgStore) Cases() ProviderCaseRepository         { return &providerCaseRepository{q: s.q} }
func (s *pgStore) Offers() OfferRepository               { return &offerRepository{q: s.q} }
func (s *pgStore) Visits() VisitRepository               { return &visitRepository{q: s.q} }
func (s *pgStore) Audit() AuditRepository                { return &auditRepository{q: s.q} }
func (s *pgStore) Notifications() NotificationRepository { return &notificationRepository{q: s.q} }
func (s *pgStore) Notes() NoteRepository                 { return &noteRepository{q: s.q} }
func (s *pgStore) Documents() DocumentRepository         { return &documentRepository{q: s.q} }
func (s *pgStore) Accounts() AccountRepository           { return &accountRepository{q: s.q} }
func (s *pgStore) Vendors() VendorRepository             { return &vendorRepository{q: s.q} }
func (s *pgStore) Centers() CenterRepository             { return &centerRepository{q: s.q} }

func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	if _, nested := s.q.(pgx.Tx); nested {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgStore{pool: s.pool, q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
